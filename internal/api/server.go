package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/coffeebar/internal/eventbus"
	"github.com/shaharia-lab/coffeebar/internal/service"
)

const errInvalidJSONBody = "invalid JSON body"

// EventSource lets handlers follow machine events.
type EventSource interface {
	Subscribe(listener eventbus.Listener) (unsubscribe func())
}

// Server holds all dependencies for the REST API handlers.
type Server struct {
	machineSvc service.MachineService
	events     EventSource
	logger     *slog.Logger
}

// New creates a new API Server backed by the provided service. events may be
// nil, in which case GET /events is not served.
func New(machineSvc service.MachineService, events EventSource, logger *slog.Logger) *Server {
	return &Server{
		machineSvc: machineSvc,
		events:     events,
		logger:     logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/status", s.handleStatus)
	r.Get("/recipes", s.handleRecipes)
	r.Get("/version", s.handleVersion)

	r.Post("/fill/water", s.handleFillWater)
	r.Post("/fill/coffee", s.handleFillCoffee)

	r.Post("/brew", s.handleBrew)
	r.Post("/brew/espresso", s.handleBrewDrink(service.Espresso))
	r.Post("/brew/double-espresso", s.handleBrewDrink(service.DoubleEspresso))
	r.Post("/brew/americano", s.handleBrewDrink(service.Americano))
	r.Post("/brew/ristretto", s.handleBrewDrink(service.Ristretto))

	if s.events != nil {
		r.Get("/events", s.handleEvents)
	}
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a human-readable error in the {"detail": "..."} shape the UI displays.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
