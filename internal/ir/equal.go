package ir

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Equal reports whether two values are structurally equal.
// Numbers compare by value across IRInt and IRNumber, since JSON has a single
// number type: IRInt(2) equals IRNumber(2.0). All other types must match
// exactly, so IRInt(1) never equals IRString("1").
func Equal(a, b IRValue) bool {
	if a == nil {
		a = IRNull{}
	}
	if b == nil {
		b = IRNull{}
	}

	switch av := a.(type) {
	case IRNull:
		_, ok := b.(IRNull)
		return ok
	case IRString:
		bv, ok := b.(IRString)
		return ok && av == bv
	case IRInt, IRNumber:
		ad, aok := AsDecimal(a)
		bd, bok := AsDecimal(b)
		return aok && bok && ad.Equal(bd)
	case IRBool:
		bv, ok := b.(IRBool)
		return ok && av == bv
	case IRArray:
		bv, ok := b.(IRArray)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case IRObject:
		bv, ok := b.(IRObject)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, exists := bv[k]
			if !exists || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsBlank reports whether a field value counts as missing for a required
// field: absent (nil), null, the empty string, zero, or an empty list.
func IsBlank(v IRValue) bool {
	switch val := v.(type) {
	case nil, IRNull:
		return true
	case IRString:
		return val == ""
	case IRInt:
		return val == 0
	case IRNumber:
		return val.Decimal.IsZero()
	case IRBool:
		return !bool(val)
	case IRArray:
		return len(val) == 0
	case IRObject:
		return false
	default:
		return true
	}
}

// AsDecimal returns the numeric value of an IRInt or IRNumber.
func AsDecimal(v IRValue) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case IRInt:
		return decimal.NewFromInt(int64(val)), true
	case IRNumber:
		return val.Decimal, true
	default:
		return decimal.Decimal{}, false
	}
}

// ParseDecimal is AsDecimal that also accepts a string holding a decimal
// literal, as sent by form-style clients.
func ParseDecimal(v IRValue) (decimal.Decimal, bool) {
	if s, ok := v.(IRString); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(string(s)))
		return d, err == nil
	}
	return AsDecimal(v)
}
