package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tunehive/partyhub/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodePartyNotFound       = "PARTY_NOT_FOUND"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeSongNotFound        = "SONG_NOT_FOUND"
	CodeSongNotInPlaylist   = "SONG_NOT_IN_PLAYLIST"
	CodeParticipantNotFound = "PARTICIPANT_NOT_FOUND"
	CodeAlreadyInParty      = "ALREADY_IN_PARTY"
	CodeAlreadyHosting      = "ALREADY_HOSTING"
	CodeNotHost             = "NOT_HOST"
	CodePartyNotActive      = "PARTY_NOT_ACTIVE"
	CodeNoActiveParty       = "NO_ACTIVE_PARTY"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrPartyNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePartyNotFound, "Party not found"}}
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}
	case errors.Is(err, model.ErrSongNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSongNotFound, "Song not found"}}
	case errors.Is(err, model.ErrSongNotInPlaylist):
		return &httpError{http.StatusNotFound, APIError{CodeSongNotInPlaylist, "Song is not in the playlist"}}
	case errors.Is(err, model.ErrParticipantNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeParticipantNotFound, "Participant not found"}}
	case errors.Is(err, model.ErrAlreadyInParty):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInParty, "Already in an active party"}}
	case errors.Is(err, model.ErrAlreadyHosting):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyHosting, "Already hosting an active party"}}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, APIError{CodeNotHost, "Only the host can perform this action"}}
	case errors.Is(err, model.ErrPartyNotActive):
		return &httpError{http.StatusConflict, APIError{CodePartyNotActive, "Party is not active"}}
	case errors.Is(err, model.ErrNoActiveParty):
		return &httpError{http.StatusPreconditionFailed, APIError{CodeNoActiveParty, "User is not in any active party"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Caller identity required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
