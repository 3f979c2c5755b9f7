package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tunehive/partyhub/internal/api/handler"
	"github.com/tunehive/partyhub/internal/api/middleware"
	"github.com/tunehive/partyhub/internal/realtime"
	"github.com/tunehive/partyhub/internal/services/party"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Coordinator *party.Coordinator
	WSHandler   *realtime.WSHandler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	partyHandler := handler.NewPartyHandler(cfg.Coordinator)
	playlistHandler := handler.NewPlaylistHandler(cfg.Coordinator)

	identityMiddleware := middleware.Identity()
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check endpoint (no identity required)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Party routes (all require caller identity)
	parties := api.PathPrefix("/parties").Subrouter()
	parties.Use(identityMiddleware)
	parties.HandleFunc("", partyHandler.Create).Methods(http.MethodPost)
	parties.HandleFunc("", partyHandler.List).Methods(http.MethodGet)
	parties.HandleFunc("/active", partyHandler.Active).Methods(http.MethodGet)
	parties.HandleFunc("/{id}", partyHandler.Get).Methods(http.MethodGet)
	parties.HandleFunc("/{id}", partyHandler.Update).Methods(http.MethodPatch)
	parties.HandleFunc("/{id}", partyHandler.End).Methods(http.MethodDelete)
	parties.HandleFunc("/{id}/join", partyHandler.Join).Methods(http.MethodPost)
	parties.HandleFunc("/{id}/leave", partyHandler.Leave).Methods(http.MethodPost)

	// Playlist routes, scoped to the caller's active party
	playlist := api.PathPrefix("/playlist").Subrouter()
	playlist.Use(identityMiddleware)
	playlist.HandleFunc("/songs", playlistHandler.AddSong).Methods(http.MethodPost)
	playlist.HandleFunc("/songs/{song_id}", playlistHandler.RemoveSong).Methods(http.MethodDelete)

	// WebSocket endpoint; keeps its own identity handling since the
	// upgrade happens before any response can be written
	if cfg.WSHandler != nil {
		r.HandleFunc("/ws", cfg.WSHandler.ServeWS).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
