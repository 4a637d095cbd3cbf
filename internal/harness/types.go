package harness

import "github.com/roach88/storefront/internal/ir"

// Trace event types.
const (
	EventRequest  = "request"
	EventResponse = "response"
)

// TraceEvent records one request or response of a scenario run.
type TraceEvent struct {
	Seq     int64      `json:"seq"`
	Type    string     `json:"type"`
	Request string     `json:"request"`
	Status  int        `json:"status,omitempty"`
	Body    ir.IRValue `json:"body,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains the requests and responses in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddRequestTrace appends a request event.
func (r *Result) AddRequestTrace(label string, body ir.IRValue) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     int64(len(r.Trace) + 1),
		Type:    EventRequest,
		Request: label,
		Body:    body,
	})
}

// AddResponseTrace appends a response event.
func (r *Result) AddResponseTrace(label string, status int, body ir.IRValue) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     int64(len(r.Trace) + 1),
		Type:    EventResponse,
		Request: label,
		Status:  status,
		Body:    body,
	})
}
