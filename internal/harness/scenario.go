package harness

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines an HTTP conformance scenario against one service.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Service is the collection served (users, products, ...).
	Service string `yaml:"service"`

	// Backend selects the store backend; empty means memory.
	Backend string `yaml:"backend,omitempty"`

	// Seed loads the collection's seed records before the steps.
	// Defaults to true.
	Seed *bool `yaml:"seed,omitempty"`

	// Outcomes scripts the simulated external outcomes in draw order.
	// Draws past the end succeed.
	Outcomes []bool `yaml:"outcomes,omitempty"`

	// Steps are the requests, sent in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and the final store contents.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Seeded reports whether seed records are loaded.
func (s *Scenario) Seeded() bool {
	return s.Seed == nil || *s.Seed
}

// Step is one HTTP request.
type Step struct {
	Method string `yaml:"method"`
	Path   string `yaml:"path"`

	// Body is sent as JSON. Ignored when Raw is set.
	Body any `yaml:"body,omitempty"`

	// Raw is sent verbatim, for malformed bodies.
	Raw string `yaml:"raw,omitempty"`

	// Expect validates the response. If nil, any response is accepted.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Label identifies the request in traces and assertions: "POST /users".
func (s Step) Label() string {
	return s.Method + " " + s.Path
}

// Expect specifies the expected response.
type Expect struct {
	// Status is the expected status code.
	Status int `yaml:"status"`

	// Body is a subset of the expected JSON body.
	Body any `yaml:"body,omitempty"`

	// Absent lists top-level keys the body must not contain.
	Absent []string `yaml:"absent,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Request is a step label (trace_contains, trace_count).
	Request string `yaml:"request,omitempty"`

	// Status optionally narrows trace_contains to responses with this code.
	Status int `yaml:"status,omitempty"`

	// Requests is the expected order (trace_order).
	Requests []string `yaml:"requests,omitempty"`

	// Count is the expected number (trace_count, record_count).
	Count int `yaml:"count,omitempty"`

	// ID selects one record (final_state).
	ID int64 `yaml:"id,omitempty"`

	// Where holds list filters (final_state, record_count).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect holds expected field values, subset match (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertRecordCount   = "record_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so that typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

var validMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Service == "" {
		return fmt.Errorf("service is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if !validMethods[step.Method] {
			return fmt.Errorf("steps[%d]: unsupported method %q", i, step.Method)
		}
		if !strings.HasPrefix(step.Path, "/") {
			return fmt.Errorf("steps[%d]: path must start with /", i)
		}
		if step.Expect != nil && (step.Expect.Status < 100 || step.Expect.Status > 599) {
			return fmt.Errorf("steps[%d].expect: status %d is not an HTTP status", i, step.Expect.Status)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Request == "" {
			return fmt.Errorf("assertions[%d]: request is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Requests) == 0 {
			return fmt.Errorf("assertions[%d]: requests list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Request == "" {
			return fmt.Errorf("assertions[%d]: request is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		if a.ID == 0 && len(a.Where) == 0 {
			return fmt.Errorf("assertions[%d]: id or where is required for final_state", index)
		}
	case AssertRecordCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
