package engine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"runtime/debug"
	"slices"

	"github.com/roach88/storefront/internal/rules"
	"github.com/roach88/storefront/internal/store"
)

// Engine is the single-writer lifecycle engine of one entity.
//
// CRITICAL: All store access happens in the Run loop goroutine.
// The public operations (Create, List, ...) enqueue work and wait for it.
//
// Thread-safety model:
//   - Operations: safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Stop(): safe from any goroutine
type Engine struct {
	entity   *rules.Entity
	behavior Behavior
	store    store.Store
	queue    *opQueue

	clock   Clock
	outcome OutcomeSource
	tokens  TokenGenerator
}

// Option allows configuration of engine collaborators.
type Option func(*Engine)

// WithClock sets the clock used for record timestamps.
// Default: SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithOutcome sets the source of simulated external outcomes.
// Default: RandomOutcome with DefaultSuccessRate.
func WithOutcome(o OutcomeSource) Option {
	return func(e *Engine) {
		e.outcome = o
	}
}

// WithTokens sets the generator for transaction tokens.
// Default: UUIDv7Generator.
func WithTokens(g TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// New creates an Engine for one entity over the given store.
// The engine takes ownership of the store and closes it when Run returns.
func New(entity *rules.Entity, behavior Behavior, s store.Store, opts ...Option) *Engine {
	e := &Engine{
		entity:   entity,
		behavior: behavior,
		store:    s,
		queue:    newOpQueue(),
		clock:    SystemClock{},
		outcome:  NewRandomOutcome(DefaultSuccessRate, nil),
		tokens:   UUIDv7Generator{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Entity returns the rule table row the engine enforces.
func (e *Engine) Entity() *rules.Entity {
	return e.entity
}

// HasAction reports whether the entity offers the named action.
func (e *Engine) HasAction(name string) bool {
	_, ok := e.behavior.Actions[name]
	return ok
}

// ActionNames returns the sorted names of the entity's actions.
func (e *Engine) ActionNames() []string {
	return slices.Sorted(maps.Keys(e.behavior.Actions))
}

// HasSummary reports whether the entity offers a summary.
func (e *Engine) HasSummary() bool {
	return e.behavior.Summary != nil
}

// Run starts the single-writer op loop.
// Blocks until ctx is cancelled or Stop() is called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// When the loop ends, ops still queued fail with ErrStopped and the store
// is closed.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "collection", e.entity.Collection)

	defer func() {
		for _, o := range e.queue.Drain() {
			o.fail(ErrStopped)
		}
		if err := e.store.Close(); err != nil {
			slog.Error("close store", "collection", e.entity.Collection, "error", err)
		}
	}()

	for {
		// Try non-blocking dequeue first
		if o, ok := e.queue.TryDequeue(); ok {
			e.execute(ctx, o)
			continue
		}

		// No op ready - wait for signal or context cancellation
		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled", "collection", e.entity.Collection)
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed,
			// which makes this case fire immediately
			if e.queue.Len() == 0 && e.closed() {
				slog.Info("engine stopping: queue closed", "collection", e.entity.Collection)
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the engine.
// Ops already queued still run; Run returns once they are done.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) closed() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

// execute runs one op. A panicking op is reported to its caller as an
// error; the loop and the store survive.
// CRITICAL: Called only from Run() goroutine - single-writer guarantee.
func (e *Engine) execute(ctx context.Context, o op) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine op panicked",
				"collection", e.entity.Collection,
				"op", o.name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			o.fail(fmt.Errorf("%s: panic: %v", o.name, r))
		}
	}()

	slog.Debug("processing op", "collection", e.entity.Collection, "op", o.name)
	o.run(ctx)
}

// result carries an op's reply.
type result[T any] struct {
	val T
	err error
}

// submit enqueues fn and waits for its reply.
//
// Once enqueued, fn runs to completion even if the caller stops waiting:
// an accepted operation always reaches a definite result. The caller's
// ctx only bounds how long it waits.
func submit[T any](ctx context.Context, e *Engine, name string, fn func(tx *Tx) (T, error)) (T, error) {
	var zero T
	reply := make(chan result[T], 1)

	queued := e.queue.Enqueue(op{
		name: name,
		run: func(loopCtx context.Context) {
			v, err := fn(&Tx{ctx: loopCtx, e: e})
			reply <- result[T]{val: v, err: err}
		},
		fail: func(err error) {
			reply <- result[T]{err: err}
		},
	})
	if !queued {
		return zero, ErrStopped
	}

	select {
	case r := <-reply:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
