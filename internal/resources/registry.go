package resources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/rules"
	"github.com/roach88/storefront/internal/store"
)

// BehaviorFor returns the behaviour of a collection. Collections without
// derived state (users, products, or ones added by a rules override) get
// the zero Behavior.
func BehaviorFor(collection string) engine.Behavior {
	switch collection {
	case "orders":
		return OrderBehavior()
	case "payments":
		return PaymentBehavior()
	case "notifications":
		return NotificationBehavior()
	default:
		return engine.Behavior{}
	}
}

// Options configures a Registry.
type Options struct {
	// Backend names the store backend (store.BackendMemory by default).
	Backend string

	// Collections restricts the registry to these collections.
	// Empty means every collection of the table.
	Collections []string

	// Engine options shared by every engine (clock, outcome, tokens).
	Engine []engine.Option
}

// Registry owns the store and engine of each served collection.
//
// Thread-safety: lookups are safe from any goroutine once NewRegistry
// returns; Run must be called once.
type Registry struct {
	table   *rules.Table
	order   []string
	engines map[string]*engine.Engine
}

// NewRegistry opens a store and builds an engine for each selected
// collection. Unknown collections are an error.
func NewRegistry(table *rules.Table, opts Options) (*Registry, error) {
	names := opts.Collections
	if len(names) == 0 {
		names = table.Collections()
	}

	r := &Registry{
		table:   table,
		engines: make(map[string]*engine.Engine, len(names)),
	}

	for _, name := range names {
		if _, dup := r.engines[name]; dup {
			continue
		}
		entity, ok := table.Entity(name)
		if !ok {
			r.closeStores()
			return nil, fmt.Errorf("unknown collection %q (known: %v)", name, table.Collections())
		}

		s, err := store.Open(opts.Backend)
		if err != nil {
			r.closeStores()
			return nil, fmt.Errorf("open %s store: %w", name, err)
		}

		r.engines[name] = engine.New(entity, BehaviorFor(name), s, opts.Engine...)
		r.order = append(r.order, name)
	}

	return r, nil
}

// Table returns the rule table the registry was built from.
func (r *Registry) Table() *rules.Table {
	return r.table
}

// Collections returns the served collections in registration order.
func (r *Registry) Collections() []string {
	return append([]string(nil), r.order...)
}

// Engine returns the engine of a collection.
func (r *Registry) Engine(collection string) (*engine.Engine, bool) {
	e, ok := r.engines[collection]
	return e, ok
}

// Run runs every engine loop until ctx is cancelled or Stop is called.
// Context cancellation is not reported as an error.
func (r *Registry) Run(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, name := range r.order {
		e := r.engines[name]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s engine: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errors.Join(errs...)
}

// Stop stops every engine. Queued operations still complete.
func (r *Registry) Stop() {
	for _, name := range r.order {
		r.engines[name].Stop()
	}
}

// Seed loads the seed records of every collection. The engines must be
// running.
func (r *Registry) Seed(ctx context.Context) error {
	for _, name := range r.order {
		n, err := r.engines[name].Seed(ctx)
		if err != nil {
			return err
		}
		slog.Info("collection seeded", "collection", name, "records", n)
	}
	return nil
}

// closeStores releases the stores of engines that never ran.
func (r *Registry) closeStores() {
	for _, name := range r.order {
		e := r.engines[name]
		e.Stop()
		// Run on a stopped engine returns at once and closes the store.
		_ = e.Run(context.Background())
	}
}
