package engine

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/storefront/internal/ir"
	"github.com/roach88/storefront/internal/rules"
)

// canonicalize renames aliased input keys to their field names.
// A canonical key wins over its alias when both are supplied.
func canonicalize(entity *rules.Entity, input ir.IRObject) ir.IRObject {
	out := make(ir.IRObject, len(input))
	for k, v := range input {
		out[k] = v
	}
	for _, f := range entity.Fields {
		for _, alias := range f.Aliases {
			v, ok := out[alias]
			if !ok {
				continue
			}
			delete(out, alias)
			if _, exists := out[f.Name]; !exists {
				out[f.Name] = v
			}
		}
	}
	return out
}

// validateCreate checks a create request and builds the new record from
// the declared fields only. Undeclared input keys are dropped.
//
// Check order: every required field is present and non-blank, then each
// supplied field in declaration order is coerced to its kind and checked
// against its enumeration and sign constraints.
func validateCreate(entity *rules.Entity, input ir.IRObject) (ir.IRObject, error) {
	var missing []string
	for _, f := range entity.Fields {
		if f.Required && missingValue(&f, input[f.Name]) {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, NewValidationError(entity.RequiredMessage, map[string]any{"missing": missing})
	}

	rec := make(ir.IRObject, len(entity.Fields))
	for _, f := range entity.Fields {
		raw, supplied := input[f.Name]
		if !supplied || ir.IsBlank(raw) {
			if f.HasDefault() {
				def, err := ir.UnmarshalIRValue(f.Default)
				if err != nil {
					return nil, fmt.Errorf("default for %s: %w", f.Name, err)
				}
				rec[f.Name] = def
			}
			continue
		}

		v, err := checkField(&f, raw)
		if err != nil {
			return nil, err
		}
		rec[f.Name] = v
	}
	return rec, nil
}

// applyUpdate merges a partial update over rec in place.
//
// Only mutable fields change. An overwrite field is replaced whenever it is
// supplied with a non-null value; any other field only when the supplied
// value is non-blank, so blank values keep the prior value.
func applyUpdate(entity *rules.Entity, rec, input ir.IRObject) error {
	for _, f := range entity.Fields {
		if !f.Mutable {
			continue
		}
		raw, supplied := input[f.Name]
		if !supplied {
			continue
		}
		if _, isNull := raw.(ir.IRNull); isNull {
			continue
		}
		if !f.Overwrite && ir.IsBlank(raw) {
			continue
		}

		v, err := checkField(&f, raw)
		if err != nil {
			return err
		}
		rec[f.Name] = v
	}
	return nil
}

// missingValue reports whether a required field counts as absent.
// List fields also count as absent when the value is not a list.
func missingValue(f *rules.Field, v ir.IRValue) bool {
	if ir.IsBlank(v) {
		return true
	}
	if f.Kind == rules.KindList {
		_, isList := v.(ir.IRArray)
		return !isList
	}
	return false
}

// checkField coerces a supplied value to the field's kind and enforces the
// field's enumeration and sign constraints.
func checkField(f *rules.Field, raw ir.IRValue) (ir.IRValue, error) {
	v, err := coerce(f, raw)
	if err != nil {
		return nil, err
	}

	if len(f.Enum) > 0 {
		s, _ := v.(ir.IRString)
		if !slices.Contains(f.Enum, string(s)) {
			return nil, enumError(f)
		}
	}

	if f.Positive {
		d, ok := ir.AsDecimal(v)
		if ok && !d.IsPositive() {
			return nil, NewValidationError(f.Name+" must be positive", map[string]any{"field": f.Name})
		}
	}

	return v, nil
}

func enumError(f *rules.Field) *Error {
	msg := f.EnumMessage
	if msg == "" {
		msg = "Invalid " + f.Name
	}
	key := f.EnumKey
	if key == "" {
		key = "valid"
	}
	return NewValidationError(msg, map[string]any{key: slices.Clone(f.Enum)})
}

// coerce converts raw to the field's kind. Numeric strings are accepted for
// numeric fields, as form-style clients send them.
func coerce(f *rules.Field, raw ir.IRValue) (ir.IRValue, error) {
	switch f.Kind {
	case rules.KindInt:
		switch v := raw.(type) {
		case ir.IRInt:
			return v, nil
		case ir.IRNumber:
			if v.Decimal.IsInteger() {
				return ir.IRInt(v.Decimal.IntPart()), nil
			}
		case ir.IRString:
			if n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64); err == nil {
				return ir.IRInt(n), nil
			}
		}
		return nil, kindError(f, "an integer")

	case rules.KindNumber:
		switch v := raw.(type) {
		case ir.IRNumber:
			return v, nil
		case ir.IRInt:
			return ir.NewIRNumber(decimal.NewFromInt(int64(v))), nil
		case ir.IRString:
			if d, err := decimal.NewFromString(strings.TrimSpace(string(v))); err == nil {
				return ir.NewIRNumber(d), nil
			}
		}
		return nil, kindError(f, "a number")

	case rules.KindString:
		if v, ok := raw.(ir.IRString); ok {
			return v, nil
		}
		if len(f.Enum) > 0 {
			return nil, enumError(f)
		}
		return nil, kindError(f, "a string")

	case rules.KindList:
		if v, ok := raw.(ir.IRArray); ok {
			return v, nil
		}
		return nil, kindError(f, "a list")

	case rules.KindBool:
		if v, ok := raw.(ir.IRBool); ok {
			return v, nil
		}
		return nil, kindError(f, "a boolean")

	default:
		return nil, fmt.Errorf("field %s: unknown kind %q", f.Name, f.Kind)
	}
}

func kindError(f *rules.Field, want string) *Error {
	return NewValidationError(fmt.Sprintf("%s must be %s", f.Name, want), map[string]any{"field": f.Name})
}

// seedRecord decodes one seed row of the rule table.
func seedRecord(raw json.RawMessage) (ir.IRObject, error) {
	rec, err := ir.UnmarshalIRObject(raw)
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return rec, nil
}
