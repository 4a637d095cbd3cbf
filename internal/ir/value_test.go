package ir

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	// Verify all types implement IRValue (compile-time check via assignment)
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = MustNumber("9.99")
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra":  IRString("z"),
		"apple":  IRString("a"),
		"banana": IRString("b"),
	}

	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
	assert.Empty(t, IRObject{}.SortedKeys())
}

func TestUnmarshalIRValueNumbers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  IRValue
	}{
		{"integer", `42`, IRInt(42)},
		{"negative integer", `-7`, IRInt(-7)},
		{"zero", `0`, IRInt(0)},
		{"decimal", `999.99`, MustNumber("999.99")},
		{"trailing zero decimal", `2.0`, MustNumber("2")},
		{"exponent", `1e2`, MustNumber("100")},
		{"string stays string", `"42"`, IRString("42")},
		{"null", `null`, IRNull{}},
		{"bool", `true`, IRBool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalIRValue([]byte(tt.input))
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "want %#v, got %#v", tt.want, got)
		})
	}
}

func TestUnmarshalIRValueNumberKinds(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`1.0`))
	require.NoError(t, err)
	_, isNumber := v.(IRNumber)
	assert.True(t, isNumber, "fractional literal must decode to IRNumber even when integral")

	v, err = UnmarshalIRValue([]byte(`10`))
	require.NoError(t, err)
	_, isInt := v.(IRInt)
	assert.True(t, isInt)
}

func TestUnmarshalIRObject(t *testing.T) {
	obj, err := UnmarshalIRObject([]byte(`{"userId":1,"lineItems":[{"productId":1,"quantity":2,"unitPrice":49.99}],"note":null}`))
	require.NoError(t, err)

	assert.Equal(t, IRInt(1), obj["userId"])
	assert.Equal(t, IRNull{}, obj["note"])

	items, ok := obj["lineItems"].(IRArray)
	require.True(t, ok)
	require.Len(t, items, 1)

	item, ok := items[0].(IRObject)
	require.True(t, ok)
	assert.True(t, Equal(MustNumber("49.99"), item["unitPrice"]))
}

func TestUnmarshalIRValueTrailingData(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"trailing whitespace", "{\"a\":1} \n\t", false},
		{"trailing garbage", `{"name":"a","email":"b"} garbage`, true},
		{"second value", `{"a":1}{"b":2}`, true},
		{"trailing number", `1 2`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalIRValue([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUnmarshalIRObjectRejectsNonObject(t *testing.T) {
	_, err := UnmarshalIRObject([]byte(`[1,2]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected JSON object")

	_, err = UnmarshalIRObject([]byte(`{"broken":`))
	require.Error(t, err)
}

func TestIRObjectMarshalSortedKeys(t *testing.T) {
	obj := IRObject{
		"total":  MustNumber("1029.97"),
		"status": IRString("pending"),
		"id":     IRInt(3),
		"userId": IRInt(1),
	}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"id":3,"status":"pending","total":1029.97,"userId":1}`, string(data))
}

func TestIRNumberMarshalTrimsTrailingZeros(t *testing.T) {
	n := NewIRNumber(decimal.RequireFromString("49.990"))
	data, err := MarshalIRValue(n)
	require.NoError(t, err)
	assert.Equal(t, `49.99`, string(data))

	neg := NewIRNumber(decimal.NewFromInt(-25))
	data, err = MarshalIRValue(neg)
	require.NoError(t, err)
	assert.Equal(t, `-25`, string(data))
}

func TestMarshalIRValueNil(t *testing.T) {
	data, err := MarshalIRValue(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestIRObjectClone(t *testing.T) {
	orig := IRObject{
		"lineItems": IRArray{IRObject{"quantity": IRInt(1)}},
		"name":      IRString("Laptop"),
	}

	clone := orig.Clone()
	clone["name"] = IRString("Phone")
	clone["lineItems"].(IRArray)[0].(IRObject)["quantity"] = IRInt(5)

	assert.Equal(t, IRString("Laptop"), orig["name"])
	assert.Equal(t, IRInt(1), orig["lineItems"].(IRArray)[0].(IRObject)["quantity"])
	assert.Nil(t, IRObject(nil).Clone())
}

func TestIRObjectID(t *testing.T) {
	id, ok := IRObject{"id": IRInt(7)}.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, ok = IRObject{"id": IRString("7")}.ID()
	assert.False(t, ok)
}

func TestMustNumberPanicsOnGarbage(t *testing.T) {
	assert.Panics(t, func() { MustNumber("not-a-number") })
}
