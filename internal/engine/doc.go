// Package engine implements the Resource Lifecycle Engine.
//
// One Engine serves one entity. It is parameterised by the entity's row of
// the rule table (required fields, enumerations, filters, status machine)
// and by a Behavior (derivation hooks, actions, summary) supplied by the
// resources package.
//
// ARCHITECTURE:
//
// Single-Writer Op Loop:
// Every operation, reads included, is queued and executed by Run in one
// goroutine. An operation runs to completion before the next is dequeued,
// so read-modify-write sequences on the store never interleave and the
// store needs no locking.
//
// Operation Flow:
// 1. A caller (HTTP handler, harness, seed loader) calls Create, Update, ...
// 2. The call enqueues an op and blocks on its reply channel
// 3. Run dequeues the op, validates input against the entity rules
// 4. Derivation hooks run before the record is stored
// 5. The result or a typed *Error is sent back to the caller
//
// Non-determinism (payment and delivery outcomes, transaction tokens,
// timestamps) enters only through the injected OutcomeSource,
// TokenGenerator and Clock, so tests can script all of it.
package engine
