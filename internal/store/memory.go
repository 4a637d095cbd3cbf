package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/storefront/internal/ir"
	"github.com/roach88/storefront/internal/queryir"
)

// Memory is a slice-backed Store. Records stay sorted by id, which is also
// insertion order, so lookups use binary search.
type Memory struct {
	seq     *Sequence
	records []ir.IRObject
}

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{
		seq:     NewSequence(),
		records: make([]ir.IRObject, 0, 64),
	}
}

func (m *Memory) Insert(_ context.Context, rec ir.IRObject) (ir.IRObject, error) {
	stored := rec.Clone()
	if stored == nil {
		stored = ir.IRObject{}
	}
	stored["id"] = ir.IRInt(m.seq.Next())
	m.records = append(m.records, stored)
	return stored.Clone(), nil
}

func (m *Memory) Get(_ context.Context, id int64) (ir.IRObject, bool, error) {
	i, ok := m.find(id)
	if !ok {
		return nil, false, nil
	}
	return m.records[i].Clone(), true, nil
}

func (m *Memory) Put(_ context.Context, rec ir.IRObject) error {
	id, ok := rec.ID()
	if !ok {
		return fmt.Errorf("put: record has no integer id")
	}
	i, found := m.find(id)
	if !found {
		return fmt.Errorf("put %d: %w", id, ErrNotFound)
	}
	m.records[i] = rec.Clone()
	return nil
}

func (m *Memory) Delete(_ context.Context, id int64) (bool, error) {
	i, ok := m.find(id)
	if !ok {
		return false, nil
	}
	// slices.Delete zeroes the vacated tail slot, so the record can be collected.
	m.records = slices.Delete(m.records, i, i+1)
	return true, nil
}

func (m *Memory) Scan(_ context.Context, p queryir.Predicate) ([]ir.IRObject, error) {
	out := make([]ir.IRObject, 0, len(m.records))
	for _, rec := range m.records {
		if queryir.Match(p, rec) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (m *Memory) Len(_ context.Context) (int, error) {
	return len(m.records), nil
}

func (m *Memory) Close() error {
	m.records = nil
	return nil
}

func (m *Memory) find(id int64) (int, bool) {
	return slices.BinarySearchFunc(m.records, id, func(rec ir.IRObject, target int64) int {
		got, _ := rec.ID()
		switch {
		case got < target:
			return -1
		case got > target:
			return 1
		default:
			return 0
		}
	})
}
