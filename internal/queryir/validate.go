package queryir

import (
	"fmt"
	"regexp"

	"github.com/roach88/storefront/internal/ir"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Validate checks that a predicate is well formed: every field is a plain
// identifier, no comparison is against null, and no node is nil.
//
// Backends rely on this before embedding field names in generated queries.
// Validate is a pure function with no side effects.
func Validate(p Predicate) error {
	switch pred := p.(type) {
	case nil:
		return nil
	case Equals:
		if err := validateField(pred.Field); err != nil {
			return err
		}
		switch pred.Value.(type) {
		case nil, ir.IRNull:
			return fmt.Errorf("field %q compared to null", pred.Field)
		case ir.IRArray, ir.IRObject:
			return fmt.Errorf("field %q compared to a composite value", pred.Field)
		}
		return nil
	case *Equals:
		return Validate(*pred)
	case EqualFold:
		return validateField(pred.Field)
	case *EqualFold:
		return Validate(*pred)
	case And:
		for i, sub := range pred.Predicates {
			if sub == nil {
				return fmt.Errorf("and[%d]: nil predicate", i)
			}
			if err := Validate(sub); err != nil {
				return fmt.Errorf("and[%d]: %w", i, err)
			}
		}
		return nil
	case *And:
		return Validate(*pred)
	default:
		return fmt.Errorf("unknown predicate type: %T", p)
	}
}

func validateField(field string) error {
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("invalid field name %q", field)
	}
	return nil
}
