package queryir

import (
	"golang.org/x/text/cases"

	"github.com/roach88/storefront/internal/ir"
)

var folder = cases.Fold()

// Fold returns the Unicode case-folded form of s.
func Fold(s string) string {
	return folder.String(s)
}

// Match reports whether a record satisfies the predicate.
// A nil predicate matches every record.
func Match(p Predicate, rec ir.IRObject) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case Equals:
		v, ok := rec[pred.Field]
		return ok && ir.Equal(pred.Value, v)
	case *Equals:
		return Match(*pred, rec)
	case EqualFold:
		s, ok := rec[pred.Field].(ir.IRString)
		return ok && Fold(string(s)) == Fold(pred.Value)
	case *EqualFold:
		return Match(*pred, rec)
	case And:
		for _, sub := range pred.Predicates {
			if !Match(sub, rec) {
				return false
			}
		}
		return true
	case *And:
		return Match(*pred, rec)
	default:
		return false
	}
}

// Filter returns the records that satisfy the predicate, preserving order.
// The result is never nil.
func Filter(p Predicate, recs []ir.IRObject) []ir.IRObject {
	out := make([]ir.IRObject, 0, len(recs))
	for _, rec := range recs {
		if Match(p, rec) {
			out = append(out, rec)
		}
	}
	return out
}
