package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tunehive/partyhub/internal/api/apierr"
	"github.com/tunehive/partyhub/internal/api/middleware"
	"github.com/tunehive/partyhub/internal/api/request"
	"github.com/tunehive/partyhub/internal/api/response"
	"github.com/tunehive/partyhub/internal/model"
	"github.com/tunehive/partyhub/internal/services/party"
)

// PlaylistHandler handles playlist endpoints. The target party is never
// named in the request: it is resolved from the caller's current active
// party membership.
type PlaylistHandler struct {
	coordinator *party.Coordinator
}

// NewPlaylistHandler creates a new playlist handler
func NewPlaylistHandler(coordinator *party.Coordinator) *PlaylistHandler {
	return &PlaylistHandler{coordinator: coordinator}
}

// AddSong handles POST /api/v1/playlist/songs
func (h *PlaylistHandler) AddSong(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())

	var req request.AddSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.SongID <= 0 {
		apierr.WriteError(w, apierr.NewInvalidRequestError("song_id is required"))
		return
	}

	entry, err := h.coordinator.AddSong(r.Context(), userID, model.SongID(req.SongID))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.PlaylistEntryFromModel(entry))
}

// RemoveSong handles DELETE /api/v1/playlist/songs/{song_id}
func (h *PlaylistHandler) RemoveSong(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())

	raw := mux.Vars(r)["song_id"]
	songID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || songID <= 0 {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid song id"))
		return
	}

	entry, err := h.coordinator.RemoveSong(r.Context(), userID, model.SongID(songID))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlaylistEntryFromModel(entry))
}
