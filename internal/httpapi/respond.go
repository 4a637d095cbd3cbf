package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/ir"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// readBody decodes the request body as a JSON object. An empty body is an
// empty object. Anything else that is not a JSON object gets a 400.
func readBody(w http.ResponseWriter, r *http.Request) (ir.IRObject, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid JSON body", nil))
		return nil, false
	}
	if len(data) == 0 {
		return ir.IRObject{}, true
	}

	input, err := ir.UnmarshalIRObject(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid JSON body", nil))
		return nil, false
	}
	return input, true
}

// errorBody builds {"error": message, ...details}. A detail cannot
// replace the message.
func errorBody(message string, details map[string]any) map[string]any {
	body := make(map[string]any, len(details)+1)
	for k, v := range details {
		body[k] = v
	}
	body["error"] = message
	return body
}

// writeError maps an engine error to its status code and body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *engine.Error
	switch {
	case errors.As(err, &e):
		status := http.StatusBadRequest
		if e.Code == engine.ErrCodeNotFound {
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorBody(e.Message, e.Details))

	case errors.Is(err, engine.ErrUnsupported):
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed", nil))

	case errors.Is(err, engine.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("Service unavailable", nil))

	default:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody("Internal server error", nil))
	}
}

// writeJSON writes v as the JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
