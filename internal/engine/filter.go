package engine

import (
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/roach88/storefront/internal/ir"
	"github.com/roach88/storefront/internal/queryir"
	"github.com/roach88/storefront/internal/rules"
)

// BuildFilter turns list query parameters into a conjunction of predicates.
//
// Only declared filters take part; other parameters and empty values are
// ignored. Values are typed by the field's kind, so "?userId=1" matches the
// integer 1. A value that does not parse as the field's kind stays a
// string and therefore matches nothing.
func BuildFilter(entity *rules.Entity, query map[string]string) queryir.Predicate {
	filters := entity.Filters()

	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	slices.Sort(names)

	preds := make([]queryir.Predicate, 0, len(names))
	for _, name := range names {
		raw := query[name]
		if raw == "" {
			continue
		}

		if filters[name] == rules.FilterFold {
			preds = append(preds, queryir.EqualFold{Field: name, Value: raw})
			continue
		}

		kind := rules.KindString
		if f, ok := entity.Field(name); ok {
			kind = f.Kind
		}
		preds = append(preds, queryir.Equals{Field: name, Value: filterValue(kind, raw)})
	}

	if len(preds) == 0 {
		return nil
	}
	return queryir.And{Predicates: preds}
}

func filterValue(kind rules.FieldKind, raw string) ir.IRValue {
	switch kind {
	case rules.KindInt:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return ir.IRInt(n)
		}
	case rules.KindNumber:
		if d, err := decimal.NewFromString(raw); err == nil {
			return ir.NewIRNumber(d)
		}
	case rules.KindBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return ir.IRBool(b)
		}
	}
	return ir.IRString(raw)
}
