// Package harness runs HTTP conformance scenarios against one storefront
// service in-process.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: payment_refund
//	description: "A completed payment can be partially refunded"
//	service: payments
//	outcomes: [true]        # scripted capture/delivery results, then success
//	seed: true              # load the collection's seed records (default)
//	steps:
//	  - method: POST
//	    path: /payments/1/refund
//	    body: { amount: 50 }
//	    expect:
//	      status: 201
//	      body: { amount: -50, status: completed }
//	      absent: [sentAt]
//	assertions:
//	  - type: trace_contains
//	    request: POST /payments/1/refund
//	    status: 201
//	  - type: final_state
//	    id: 1
//	    expect: { status: completed }
//
// Expected bodies match by subset: only the listed keys are compared, and
// nested objects and lists are compared the same way.
//
// # Assertion Types
//
//   - trace_contains: a request was made, optionally answered with a status
//   - trace_order: requests were made in the given order
//   - trace_count: a request was made exactly N times
//   - final_state: one record (by id or by filters) has the expected fields
//   - record_count: the collection holds N records matching the filters
//
// # Deterministic Testing
//
// Every run uses a fresh registry with testutil.StepClock,
// testutil.Outcomes and testutil.CountingTokens, so the trace of a
// scenario is identical across runs and can be compared with a golden file.
package harness
