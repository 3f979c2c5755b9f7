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

// PartyHandler handles party lifecycle endpoints
type PartyHandler struct {
	coordinator *party.Coordinator
}

// NewPartyHandler creates a new party handler
func NewPartyHandler(coordinator *party.Coordinator) *PartyHandler {
	return &PartyHandler{coordinator: coordinator}
}

func partyIDFromPath(r *http.Request) (model.PartyID, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.NewInvalidRequestError("invalid party id")
	}
	return model.PartyID(id), nil
}

// Create handles POST /api/v1/parties
func (h *PartyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())

	var req request.CreatePartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Name == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("name is required"))
		return
	}

	p, err := h.coordinator.CreateParty(r.Context(), userID, req.Name)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PartyFromModel(p))
}

// List handles GET /api/v1/parties
func (h *PartyHandler) List(w http.ResponseWriter, r *http.Request) {
	parties, err := h.coordinator.ListParties(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PartyListFromModel(parties))
}

// Get handles GET /api/v1/parties/{id}
func (h *PartyHandler) Get(w http.ResponseWriter, r *http.Request) {
	partyID, err := partyIDFromPath(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	p, err := h.coordinator.GetParty(r.Context(), partyID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PartyFromModel(p))
}

// Update handles PATCH /api/v1/parties/{id}
func (h *PartyHandler) Update(w http.ResponseWriter, r *http.Request) {
	partyID, err := partyIDFromPath(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	var req request.UpdatePartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	patch := model.PartyPatch{Name: req.Name}
	if req.Status != nil {
		status := model.PartyStatus(*req.Status)
		if status != model.PartyStatusActive && status != model.PartyStatusEnded {
			apierr.WriteError(w, apierr.NewInvalidRequestError("invalid status"))
			return
		}
		patch.Status = &status
	}

	p, err := h.coordinator.UpdateParty(r.Context(), partyID, patch)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PartyFromModel(p))
}

// End handles DELETE /api/v1/parties/{id}
func (h *PartyHandler) End(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())
	partyID, err := partyIDFromPath(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	if _, err := h.coordinator.EndParty(r.Context(), partyID, userID); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Join handles POST /api/v1/parties/{id}/join
func (h *PartyHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())
	partyID, err := partyIDFromPath(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	participant, err := h.coordinator.JoinParty(r.Context(), partyID, userID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ParticipantFromModel(participant))
}

// Leave handles POST /api/v1/parties/{id}/leave.
// Leaving a party the caller is not in is a no-op, not an error.
func (h *PartyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())
	partyID, err := partyIDFromPath(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	participant, err := h.coordinator.LeaveParty(r.Context(), partyID, userID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	if participant == nil {
		response.NoContent(w)
		return
	}
	response.JSON(w, http.StatusOK, response.ParticipantFromModel(participant))
}

// Active handles GET /api/v1/parties/active. Returns 200 with the party,
// or 204 when the caller is in no active party; reconnecting clients call
// this to resynchronize their local view.
func (h *PartyHandler) Active(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())

	p, err := h.coordinator.GetActiveParty(r.Context(), userID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	if p == nil {
		response.NoContent(w)
		return
	}
	response.JSON(w, http.StatusOK, response.PartyFromModel(p))
}
