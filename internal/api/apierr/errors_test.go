package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunehive/partyhub/internal/model"
)

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{model.ErrPartyNotFound, http.StatusNotFound, CodePartyNotFound},
		{model.ErrUserNotFound, http.StatusNotFound, CodeUserNotFound},
		{model.ErrSongNotFound, http.StatusNotFound, CodeSongNotFound},
		{model.ErrSongNotInPlaylist, http.StatusNotFound, CodeSongNotInPlaylist},
		{model.ErrParticipantNotFound, http.StatusNotFound, CodeParticipantNotFound},
		{model.ErrAlreadyInParty, http.StatusConflict, CodeAlreadyInParty},
		{model.ErrAlreadyHosting, http.StatusConflict, CodeAlreadyHosting},
		{model.ErrNotHost, http.StatusForbidden, CodeNotHost},
		{model.ErrPartyNotActive, http.StatusConflict, CodePartyNotActive},
		{model.ErrNoActiveParty, http.StatusPreconditionFailed, CodeNoActiveParty},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
		{NewInvalidRequestError("bad input"), http.StatusBadRequest, CodeInvalidRequest},
		{NewUnauthorizedError(), http.StatusUnauthorized, CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestWriteErrorPreservesWrappedSentinel(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("ending party: %w", model.ErrNotHost))

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CodeNotHost, resp.Error.Code)
}
