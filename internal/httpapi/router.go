// Package httpapi exposes the treasure service as a JSON HTTP API.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mmynk/treasurehunt/internal/metrics"
	"github.com/mmynk/treasurehunt/internal/middleware"
	"github.com/mmynk/treasurehunt/internal/treasure"
)

// Handler holds all API handler state.
type Handler struct {
	svc *treasure.Service
}

// NewHandler creates a new API handler.
func NewHandler(svc *treasure.Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the treasure routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/treasures", func(r chi.Router) {
		r.Get("/find", h.FindTreasures)
		r.Post("/{id}/collect", h.CollectTreasure)
		r.Get("/balance", h.GetBalance)
	})
}

// NewRouter builds the full server mux: common middleware, the treasure routes,
// and the root, health and metrics endpoints.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.UserID)
	r.Use(middleware.RequestLog)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Hello World!"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	h.Routes(r)
	return r
}
