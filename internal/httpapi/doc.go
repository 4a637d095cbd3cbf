// Package httpapi exposes one engine as an HTTP service.
//
// Routes are derived from the entity's rules and behaviour:
//
//	GET    /health
//	GET    /<collection>[?filters]
//	POST   /<collection>
//	GET    /<collection>/{id}
//	PUT    /<collection>/{id}          updatable entities
//	DELETE /<collection>/{id}          deletable entities
//	PUT    /<collection>/{id}/status   entities with a manual status machine
//	POST   /<collection>/{id}/<action> entity actions (refund, send)
//	GET    /<collection>/stats/summary entities with a summary
//
// Engine errors map to status codes: validation and domain errors to 400,
// not-found to 404, a stopped engine to 503, anything else to 500. Error
// bodies are {"error": message, ...details}.
package httpapi
