package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		validation bool
		domain     bool
		notFound   bool
	}{
		{"validation", NewValidationError("bad", nil), true, false, false},
		{"domain", NewDomainError("no", nil), false, true, false},
		{"not found", NewNotFoundError("gone"), false, false, true},
		{"wrapped", fmt.Errorf("op: %w", NewNotFoundError("gone")), false, false, true},
		{"plain", errors.New("x"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.domain, IsDomain(tt.err))
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
		})
	}
}

func TestErrorString(t *testing.T) {
	err := NewDomainError("Can only refund completed payments", nil)
	assert.Equal(t, "DOMAIN: Can only refund completed payments", err.Error())
}

func TestRandomOutcomeRate(t *testing.T) {
	always := NewRandomOutcome(1, rand.New(rand.NewPCG(1, 2)))
	never := NewRandomOutcome(0, rand.New(rand.NewPCG(1, 2)))
	for i := 0; i < 100; i++ {
		assert.True(t, always.Succeed())
		assert.False(t, never.Succeed())
	}
}

func TestRandomOutcomeSeededIsRepeatable(t *testing.T) {
	a := NewRandomOutcome(0.5, rand.New(rand.NewPCG(7, 7)))
	b := NewRandomOutcome(0.5, rand.New(rand.NewPCG(7, 7)))
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Succeed(), b.Succeed())
	}
}

func TestFixedOutcome(t *testing.T) {
	assert.True(t, FixedOutcome(true).Succeed())
	assert.False(t, FixedOutcome(false).Succeed())
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}

	first := gen.Generate()
	second := gen.Generate()
	assert.NotEqual(t, first, second)

	parsed, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestFormatTime(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	ts := time.Date(2024, 1, 15, 11, 0, 0, 123456789, loc)
	assert.Equal(t, "2024-01-15T10:00:00.123Z", FormatTime(ts))
}
