package engine

import (
	"context"
	"fmt"

	"github.com/roach88/storefront/internal/ir"
)

// Behavior holds the entity-specific parts of a lifecycle that the rule
// table cannot express. Every hook is optional.
type Behavior struct {
	// Derive fills derived fields of a validated record before it is first
	// stored (order total, payment outcome).
	Derive func(tx *Tx, rec ir.IRObject) error

	// Actions are named record operations exposed as POST /<c>/{id}/<name>.
	Actions map[string]Action

	// Summary computes a read-only report over every record.
	Summary func(recs []ir.IRObject) ir.IRObject
}

// Action is an entity operation on an existing record.
type Action struct {
	// Run receives a copy of the target record and the request body.
	// It returns the record to report to the caller; persisting changes is
	// Run's job (tx.Put or tx.Insert).
	Run func(tx *Tx, rec ir.IRObject, input ir.IRObject) (ir.IRObject, error)

	// Creates marks actions that append a new record (reported as 201).
	Creates bool
}

// Tx is the view of the engine an op has while it runs in the loop.
// It must not be retained after the hook returns.
type Tx struct {
	ctx context.Context
	e   *Engine
}

// Now returns the current time formatted for a record timestamp.
func (tx *Tx) Now() ir.IRString {
	return ir.IRString(FormatTime(tx.e.clock.Now()))
}

// Succeeded draws the outcome of a simulated external operation.
func (tx *Tx) Succeeded() bool {
	return tx.e.outcome.Succeed()
}

// Token returns a fresh unique token.
func (tx *Tx) Token() string {
	return tx.e.tokens.Generate()
}

// Insert appends a new record and returns it with its assigned id.
func (tx *Tx) Insert(rec ir.IRObject) (ir.IRObject, error) {
	stored, err := tx.e.store.Insert(tx.ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", tx.e.entity.Collection, err)
	}
	return stored, nil
}

// Put replaces an existing record.
func (tx *Tx) Put(rec ir.IRObject) error {
	if err := tx.e.store.Put(tx.ctx, rec); err != nil {
		return fmt.Errorf("put %s: %w", tx.e.entity.Collection, err)
	}
	return nil
}

// Status returns the record's current status, or "" when the entity has no
// status machine.
func (tx *Tx) Status(rec ir.IRObject) string {
	st := tx.e.entity.Status
	if st == nil {
		return ""
	}
	s, _ := rec[st.Field].(ir.IRString)
	return string(s)
}

// CanTransition reports whether the record may move to the given status.
func (tx *Tx) CanTransition(rec ir.IRObject, to string) bool {
	st := tx.e.entity.Status
	return st != nil && st.Allows(tx.Status(rec), to)
}
