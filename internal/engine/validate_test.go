package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/ir"
)

func TestCanonicalize(t *testing.T) {
	orders := testEntity(t, "orders")

	got := canonicalize(orders, ir.IRObject{"products": ir.IRArray{ir.IRInt(1)}})
	assert.Equal(t, ir.IRObject{"lineItems": ir.IRArray{ir.IRInt(1)}}, got)

	both := canonicalize(orders, ir.IRObject{
		"products":  ir.IRArray{ir.IRInt(1)},
		"lineItems": ir.IRArray{ir.IRInt(2)},
	})
	assert.Equal(t, ir.IRObject{"lineItems": ir.IRArray{ir.IRInt(2)}}, both)
}

func TestCoerce(t *testing.T) {
	products := testEntity(t, "products")

	tests := []struct {
		name    string
		field   string
		raw     ir.IRValue
		want    ir.IRValue
		wantErr string
	}{
		{"int to number", "price", ir.IRInt(5), ir.MustNumber("5"), ""},
		{"numeric string to number", "price", ir.IRString(" 2.50 "), ir.MustNumber("2.5"), ""},
		{"bool to number", "price", ir.IRBool(true), nil, "price must be a number"},
		{"integral number to int", "stock", ir.MustNumber("4.0"), ir.IRInt(4), ""},
		{"fractional number to int", "stock", ir.MustNumber("4.5"), nil, "stock must be an integer"},
		{"string to int", "stock", ir.IRString("12"), ir.IRInt(12), ""},
		{"number to string", "name", ir.IRInt(1), nil, "name must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := products.Field(tt.field)
			require.True(t, ok)

			got, err := coerce(f, tt.raw)
			if tt.wantErr != "" {
				requireEngineError(t, err, ErrCodeValidation, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, ir.Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestEnumCheckedBeforeKind(t *testing.T) {
	payments := testEntity(t, "payments")
	method, ok := payments.Field("method")
	require.True(t, ok)

	_, err := checkField(method, ir.IRInt(3))
	verr := requireEngineError(t, err, ErrCodeValidation, "Invalid payment method")
	assert.Equal(t, []string{"credit_card", "debit_card", "paypal", "bank_transfer"}, verr.Details["validMethods"])
}

func TestApplyUpdateIgnoresImmutableAndNull(t *testing.T) {
	products := testEntity(t, "products")
	rec := ir.IRObject{
		"id":       ir.IRInt(1),
		"name":     ir.IRString("Book"),
		"price":    ir.MustNumber("19.99"),
		"category": ir.IRString("Books"),
		"stock":    ir.IRInt(100),
	}

	err := applyUpdate(products, rec, ir.IRObject{
		"id":    ir.IRInt(9),
		"price": ir.IRNull{},
		"stock": ir.IRInt(0),
		"extra": ir.IRString("x"),
	})
	require.NoError(t, err)

	assert.Equal(t, ir.IRInt(1), rec["id"])
	assert.True(t, ir.Equal(ir.MustNumber("19.99"), rec["price"]))
	assert.Equal(t, ir.IRInt(0), rec["stock"])
	assert.NotContains(t, rec, "extra")
}
