package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/rules"
)

// handler serves the routes of one engine.
type handler struct {
	engine *engine.Engine
	entity *rules.Entity
}

// NewRouter builds the chi router for one engine.
func NewRouter(e *engine.Engine) http.Handler {
	h := &handler{engine: e, entity: e.Entity()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.entity.Service))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("Not found", nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed", nil))
	})

	r.Get("/health", h.health)

	r.Route("/"+h.entity.Collection, func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)

		if e.HasSummary() {
			r.Get("/stats/summary", h.summary)
		}

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			if h.entity.Updatable {
				r.Put("/", h.update)
			}
			if h.entity.Deletable {
				r.Delete("/", h.delete)
			}
			if st := h.entity.Status; st != nil && st.Manual {
				r.Put("/status", h.transition)
			}
			for _, name := range e.ActionNames() {
				r.Post("/"+name, h.action(name))
			}
		})
	})

	return r
}
