package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"lexiround/internal/config"
	"lexiround/internal/game"
	"lexiround/internal/room"
	"lexiround/internal/store"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	registry *store.Registry
	cfg      *config.ServerConfig
	logger   *slog.Logger
}

// New creates a Handler.
func New(registry *store.Registry, cfg *config.ServerConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{registry: registry, cfg: cfg, logger: logger}
}

// errorBody is the uniform failure envelope of the control surface.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, game.HTTPStatus(err), errorBody{Error: err.Error()})
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return &game.Failure{Kind: game.KindBadRequest, Message: "invalid request body: " + err.Error()}
	}
	return nil
}

// lookup resolves the {code} route parameter to a room actor.
func (h *Handler) lookup(w http.ResponseWriter, rawCode string) (*room.Actor, bool) {
	a, err := h.registry.Get(rawCode)
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	return a, true
}
