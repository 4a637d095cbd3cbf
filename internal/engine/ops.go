package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/storefront/internal/ir"
)

// Create validates input, applies defaults, the initial status, the
// creation stamp and the entity's derivation hook, then appends the record.
func (e *Engine) Create(ctx context.Context, input ir.IRObject) (ir.IRObject, error) {
	return submit(ctx, e, "create", func(tx *Tx) (ir.IRObject, error) {
		rec, err := validateCreate(e.entity, canonicalize(e.entity, input))
		if err != nil {
			return nil, err
		}

		if st := e.entity.Status; st != nil {
			rec[st.Field] = ir.IRString(st.Initial)
		}
		if e.entity.CreatedStamp != "" {
			rec[e.entity.CreatedStamp] = tx.Now()
		}

		if e.behavior.Derive != nil {
			if err := e.behavior.Derive(tx, rec); err != nil {
				return nil, err
			}
		}

		stored, err := tx.Insert(rec)
		if err != nil {
			return nil, err
		}

		id, _ := stored.ID()
		slog.Info("record created", "collection", e.entity.Collection, "id", id)
		return stored, nil
	})
}

// Get returns one record.
func (e *Engine) Get(ctx context.Context, id int64) (ir.IRObject, error) {
	return submit(ctx, e, "get", func(tx *Tx) (ir.IRObject, error) {
		return e.load(tx, id)
	})
}

// List returns the records matching the declared filters in query, in
// insertion order. The result is never nil.
func (e *Engine) List(ctx context.Context, query map[string]string) ([]ir.IRObject, error) {
	pred := BuildFilter(e.entity, query)
	return submit(ctx, e, "list", func(tx *Tx) ([]ir.IRObject, error) {
		recs, err := e.store.Scan(tx.ctx, pred)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", e.entity.Collection, err)
		}
		return recs, nil
	})
}

// Update merges the supplied mutable fields over an existing record.
func (e *Engine) Update(ctx context.Context, id int64, input ir.IRObject) (ir.IRObject, error) {
	if !e.entity.Updatable {
		return nil, ErrUnsupported
	}
	return submit(ctx, e, "update", func(tx *Tx) (ir.IRObject, error) {
		rec, err := e.load(tx, id)
		if err != nil {
			return nil, err
		}
		if err := applyUpdate(e.entity, rec, canonicalize(e.entity, input)); err != nil {
			return nil, err
		}
		if err := tx.Put(rec); err != nil {
			return nil, err
		}

		slog.Info("record updated", "collection", e.entity.Collection, "id", id)
		return rec, nil
	})
}

// Delete removes a record.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	if !e.entity.Deletable {
		return ErrUnsupported
	}
	_, err := submit(ctx, e, "delete", func(tx *Tx) (struct{}, error) {
		ok, err := e.store.Delete(tx.ctx, id)
		if err != nil {
			return struct{}{}, fmt.Errorf("delete %s %d: %w", e.entity.Collection, id, err)
		}
		if !ok {
			return struct{}{}, NewNotFoundError(e.entity.NotFoundMessage())
		}

		slog.Info("record deleted", "collection", e.entity.Collection, "id", id)
		return struct{}{}, nil
	})
	return err
}

// Transition sets a record's status from input[status field] and stamps
// the status's stamp field. Only entities with a manual status machine
// support it.
func (e *Engine) Transition(ctx context.Context, id int64, input ir.IRObject) (ir.IRObject, error) {
	st := e.entity.Status
	if st == nil || !st.Manual {
		return nil, ErrUnsupported
	}
	return submit(ctx, e, "transition", func(tx *Tx) (ir.IRObject, error) {
		rec, err := e.load(tx, id)
		if err != nil {
			return nil, err
		}

		to, _ := input[st.Field].(ir.IRString)
		if !st.Valid(string(to)) {
			msg := st.Message
			if msg == "" {
				msg = "Valid status is required"
			}
			key := st.ValidKey
			if key == "" {
				key = "validStatuses"
			}
			return nil, NewValidationError(msg, map[string]any{key: append([]string(nil), st.Values...)})
		}

		from := tx.Status(rec)
		if !st.Allows(from, string(to)) {
			return nil, NewDomainError(
				fmt.Sprintf("Cannot change status from %s to %s", from, to),
				map[string]any{"from": from, "to": string(to)},
			)
		}

		rec[st.Field] = to
		if st.Stamp != "" {
			rec[st.Stamp] = tx.Now()
		}
		if err := tx.Put(rec); err != nil {
			return nil, err
		}

		slog.Info("status changed", "collection", e.entity.Collection, "id", id, "from", from, "to", string(to))
		return rec, nil
	})
}

// Invoke runs a named action on an existing record. The boolean result
// reports whether the action created a new record.
func (e *Engine) Invoke(ctx context.Context, action string, id int64, input ir.IRObject) (ir.IRObject, bool, error) {
	a, ok := e.behavior.Actions[action]
	if !ok {
		return nil, false, ErrUnsupported
	}
	if input == nil {
		input = ir.IRObject{}
	}
	out, err := submit(ctx, e, "action:"+action, func(tx *Tx) (ir.IRObject, error) {
		rec, err := e.load(tx, id)
		if err != nil {
			return nil, err
		}
		out, err := a.Run(tx, rec, input)
		if err != nil {
			return nil, err
		}

		slog.Info("action completed", "collection", e.entity.Collection, "action", action, "id", id)
		return out, nil
	})
	return out, a.Creates, err
}

// Summarize computes the entity's summary over a snapshot of all records.
func (e *Engine) Summarize(ctx context.Context) (ir.IRObject, error) {
	if e.behavior.Summary == nil {
		return nil, ErrUnsupported
	}
	return submit(ctx, e, "summary", func(tx *Tx) (ir.IRObject, error) {
		recs, err := e.store.Scan(tx.ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", e.entity.Collection, err)
		}
		return e.behavior.Summary(recs), nil
	})
}

// Snapshot returns every record in insertion order.
func (e *Engine) Snapshot(ctx context.Context) ([]ir.IRObject, error) {
	return e.List(ctx, nil)
}

// Seed appends the entity's seed records verbatim, in one op.
// Seeds are trusted fixtures: they skip validation and derivation.
func (e *Engine) Seed(ctx context.Context) (int, error) {
	return submit(ctx, e, "seed", func(tx *Tx) (int, error) {
		for i, raw := range e.entity.Seed {
			rec, err := seedRecord(raw)
			if err != nil {
				return i, fmt.Errorf("seed %s[%d]: %w", e.entity.Collection, i, err)
			}
			if _, err := tx.Insert(rec); err != nil {
				return i, fmt.Errorf("seed %s[%d]: %w", e.entity.Collection, i, err)
			}
		}

		slog.Debug("seeded", "collection", e.entity.Collection, "records", len(e.entity.Seed))
		return len(e.entity.Seed), nil
	})
}

// load fetches a record or returns the entity's NotFound error.
func (e *Engine) load(tx *Tx, id int64) (ir.IRObject, error) {
	rec, ok, err := e.store.Get(tx.ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", e.entity.Collection, id, err)
	}
	if !ok {
		return nil, NewNotFoundError(e.entity.NotFoundMessage())
	}
	return rec, nil
}
