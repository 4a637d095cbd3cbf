package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/httpapi"
	"github.com/roach88/storefront/internal/ir"
	"github.com/roach88/storefront/internal/resources"
	"github.com/roach88/storefront/internal/rules"
	"github.com/roach88/storefront/internal/testutil"
)

// Harness is the test execution engine.
// It drives one service's router with a deterministic clock, outcome
// source and token generator.
type Harness struct {
	engine  *engine.Engine
	handler http.Handler
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh registry holding only the scenario's
// service. A nil table means the built-in rules.
//
// Execution flow:
//  1. Build the registry and start its engine loop
//  2. Load seed records unless the scenario disables them
//  3. Send each step through the HTTP router and check its expectation
//  4. Evaluate assertions against the trace and the final records
func Run(scenario *Scenario, table *rules.Table) (*Result, error) {
	if table == nil {
		var err error
		if table, err = rules.Default(); err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
	}

	reg, err := resources.NewRegistry(table, resources.Options{
		Backend:     scenario.Backend,
		Collections: []string{scenario.Service},
		Engine: []engine.Option{
			engine.WithClock(testutil.NewStepClock()),
			engine.WithOutcome(testutil.NewOutcomes(scenario.Outcomes...)),
			engine.WithTokens(testutil.NewCountingTokens("")),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	if scenario.Seeded() {
		if err := reg.Seed(ctx); err != nil {
			return nil, fmt.Errorf("failed to seed: %w", err)
		}
	}

	eng, _ := reg.Engine(scenario.Service)
	h := &Harness{
		engine:  eng,
		handler: httpapi.NewRouter(eng),
		logger:  slog.Default().With("scenario", scenario.Name),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(i, step, result); err != nil {
			return nil, err
		}
	}

	actx := &AssertionContext{
		Engine: eng,
		Ctx:    ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep sends one request, records it and its response in the trace
// and checks the step's expectation.
func (h *Harness) executeStep(i int, step Step, result *Result) error {
	label := step.Label()

	var (
		payload   []byte
		traceBody ir.IRValue
	)
	switch {
	case step.Raw != "":
		payload = []byte(step.Raw)
		traceBody = ir.IRString(step.Raw)
	case step.Body != nil:
		data, err := json.Marshal(step.Body)
		if err != nil {
			return fmt.Errorf("step %d: encode body: %w", i, err)
		}
		if traceBody, err = ir.UnmarshalIRValue(data); err != nil {
			return fmt.Errorf("step %d: encode body: %w", i, err)
		}
		payload = data
	}

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(step.Method, step.Path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	result.AddRequestTrace(label, traceBody)

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	got, err := decodeResponse(rec.Body.Bytes())
	if err != nil {
		return fmt.Errorf("step %d (%s): %w", i, label, err)
	}
	result.AddResponseTrace(label, rec.Code, got)

	h.logger.Debug("step completed", "step", i, "request", label, "status", rec.Code)

	if step.Expect != nil {
		for _, msg := range checkExpect(step.Expect, rec.Code, got) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i, label, msg))
		}
	}
	return nil
}

// decodeResponse parses a response body. An empty body (204) is nil.
func decodeResponse(data []byte) (ir.IRValue, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	v, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return nil, errors.Join(errors.New("response is not JSON"), err)
	}
	return v, nil
}

// checkExpect compares a response with an expectation and returns one
// message per mismatch.
func checkExpect(exp *Expect, status int, got ir.IRValue) []string {
	var msgs []string

	if status != exp.Status {
		msgs = append(msgs, fmt.Sprintf("expected status %d, got %d", exp.Status, status))
	}

	if exp.Body != nil {
		want, err := toIR(exp.Body)
		switch {
		case err != nil:
			msgs = append(msgs, fmt.Sprintf("invalid expected body: %v", err))
		case !matchSubset(want, got):
			msgs = append(msgs, fmt.Sprintf("expected body %s, got %s", mustJSON(want), mustJSON(got)))
		}
	}

	if len(exp.Absent) > 0 {
		obj, _ := got.(ir.IRObject)
		for _, key := range exp.Absent {
			if _, present := obj[key]; present {
				msgs = append(msgs, fmt.Sprintf("expected no %q in body, got %s", key, mustJSON(obj[key])))
			}
		}
	}

	return msgs
}
