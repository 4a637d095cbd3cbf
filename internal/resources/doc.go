// Package resources supplies the entity-specific behaviour of the five
// storefront collections and wires each into an engine.
//
// The rule table (package rules) says what a valid record looks like. This
// package holds what the table cannot say:
//
//   - orders: the total derived from the line items
//   - payments: the simulated capture outcome and the refund action
//   - notifications: the simulated delivery action and the stats summary
//
// Users and products are plain CRUD and need no behaviour.
//
// Registry is the composition root: it owns one store and one engine per
// served collection and runs their loops.
package resources
