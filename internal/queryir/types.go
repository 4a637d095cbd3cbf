package queryir

import "github.com/roach88/storefront/internal/ir"

// Query represents an abstract query over one collection.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = literal_value
//   - EqualFold: field equals a string under Unicode case folding
//   - And: all predicates must be true
//
// There is no OR: list filters are always conjunctions.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select reads every record of a collection that satisfies Filter, in
// insertion order.
//
//	Select{
//	  From: "orders",
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "userId", Value: ir.IRInt(1)},
//	    Equals{Field: "status", Value: ir.IRString("pending")},
//	  }},
//	}
type Select struct {
	From   string    // Collection name
	Filter Predicate // nil = no filter
}

func (Select) queryNode() {}

// Equals represents a field-equals-literal predicate.
//
// Comparison is type-aware: a record field holding IRInt(1) does not equal
// IRString("1"). A record without the field never matches.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// EqualFold matches string fields equal to Value under Unicode case folding.
// Non-string fields never match.
type EqualFold struct {
	Field string
	Value string
}

func (EqualFold) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// An empty And is vacuously true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
