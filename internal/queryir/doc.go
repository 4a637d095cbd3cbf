// Package queryir provides the filter predicate representation used by list
// queries.
//
// A list request's query string becomes a conjunction of field predicates.
// Stores evaluate predicates in memory (Match, Filter) or hand them to a
// backend compiler (querysql) that translates them to SQL.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, so backends can switch
// exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	    // field = value
//	case EqualFold:
//	    // case-insensitive string comparison
//	case And:
//	    // conjunction
//	}
//
// Evaluation never reorders records: Filter keeps insertion order, and the
// SQL backend orders by id.
package queryir
