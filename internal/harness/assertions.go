package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			if event.Type == EventResponse {
				fmt.Fprintf(&buf, "  [%d] %s -> %d\n", event.Seq, event.Request, event.Status)
			}
		}
	}

	return buf.String()
}

// AssertionContext provides the engine for state assertions.
type AssertionContext struct {
	Engine *engine.Engine
	Ctx    context.Context
}

// assertTraceContains checks that a request was made and, when the
// assertion names a status, answered with it.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type != EventResponse || event.Request != assertion.Request {
			continue
		}
		if assertion.Status == 0 || event.Status == assertion.Status {
			return nil
		}
	}

	expected := assertion.Request
	if assertion.Status != 0 {
		expected = fmt.Sprintf("%s answered with %d", assertion.Request, assertion.Status)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that requests appear in the given order.
// Requests don't need to be consecutive.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for _, event := range trace {
		if event.Type != EventRequest {
			continue
		}
		if _, seen := positions[event.Request]; !seen {
			positions[event.Request] = int(event.Seq)
		}
	}

	for _, req := range assertion.Requests {
		if _, ok := positions[req]; !ok {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all requests present: %v", assertion.Requests),
				Actual:   fmt.Sprintf("missing request: %s", req),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Requests); i++ {
		prev := assertion.Requests[i-1]
		curr := assertion.Requests[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("requests in order: %v", assertion.Requests),
				Actual: fmt.Sprintf("%s (seq %d) should be before %s (seq %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that a request was made exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == EventRequest && event.Request == assertion.Request {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s made %d time(s)", assertion.Request, assertion.Count),
			Actual:   fmt.Sprintf("made %d time(s)", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks one record, selected by id or by filters,
// against the expected fields.
func assertFinalState(ctx context.Context, e *engine.Engine, assertion Assertion) error {
	var rec ir.IRObject
	if assertion.ID != 0 {
		got, err := e.Get(ctx, assertion.ID)
		if engine.IsNotFound(err) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("record %d", assertion.ID),
				Actual:   "not found",
			}
		}
		if err != nil {
			return fmt.Errorf("final_state: %w", err)
		}
		rec = got
	} else {
		recs, err := e.List(ctx, whereQuery(assertion.Where))
		if err != nil {
			return fmt.Errorf("final_state: %w", err)
		}
		if len(recs) != 1 {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("exactly one record where %s", formatWhere(assertion.Where)),
				Actual:   fmt.Sprintf("%d records", len(recs)),
			}
		}
		rec = recs[0]
	}

	want, err := toIR(assertion.Expect)
	if err != nil {
		return fmt.Errorf("final_state: expect: %w", err)
	}
	if !matchSubset(want, rec) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: mustJSON(want),
			Actual:   mustJSON(rec),
		}
	}
	return nil
}

// assertRecordCount checks how many records match the filters.
func assertRecordCount(ctx context.Context, e *engine.Engine, assertion Assertion) error {
	recs, err := e.List(ctx, whereQuery(assertion.Where))
	if err != nil {
		return fmt.Errorf("record_count: %w", err)
	}
	if len(recs) != assertion.Count {
		return &AssertionError{
			Type:     AssertRecordCount,
			Expected: fmt.Sprintf("%d record(s) where %s", assertion.Count, formatWhere(assertion.Where)),
			Actual:   fmt.Sprintf("%d record(s)", len(recs)),
		}
	}
	return nil
}

// whereQuery renders filters the way they arrive in a query string.
func whereQuery(where map[string]any) map[string]string {
	if len(where) == 0 {
		return nil
	}
	query := make(map[string]string, len(where))
	for k, v := range where {
		query[k] = fmt.Sprint(v)
	}
	return query
}

// formatWhere formats filters for error messages, in key order.
func formatWhere(where map[string]any) string {
	if len(where) == 0 {
		return "(all)"
	}
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, where[k])
	}
	return strings.Join(parts, ", ")
}

// matchSubset reports whether got contains want. Objects match when every
// key of want matches in got; arrays match element by element and must
// have the same length; scalars use ir.Equal.
func matchSubset(want, got ir.IRValue) bool {
	switch w := want.(type) {
	case ir.IRObject:
		g, ok := got.(ir.IRObject)
		if !ok {
			return false
		}
		for k, wv := range w {
			gv, present := g[k]
			if !present {
				return false
			}
			if !matchSubset(wv, gv) {
				return false
			}
		}
		return true
	case ir.IRArray:
		g, ok := got.(ir.IRArray)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range w {
			if !matchSubset(w[i], g[i]) {
				return false
			}
		}
		return true
	default:
		return ir.Equal(want, got)
	}
}

// toIR converts a YAML-decoded value to an IRValue through JSON, so that
// scenario values and response bodies share one number representation.
func toIR(v any) (ir.IRValue, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return ir.UnmarshalIRValue(data)
}

func mustJSON(v ir.IRValue) string {
	data, err := ir.MarshalIRValue(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides the engine for state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState, AssertRecordCount:
			if actx == nil || actx.Engine == nil {
				err = fmt.Errorf("assertion[%d]: %s requires an engine", i, assertion.Type)
			} else if assertion.Type == AssertFinalState {
				err = assertFinalState(actx.Ctx, actx.Engine, assertion)
			} else {
				err = assertRecordCount(actx.Ctx, actx.Engine, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
