package middleware

import (
	"log/slog"
	"net/http"

	"github.com/tunehive/partyhub/internal/api/apierr"
	"github.com/tunehive/partyhub/internal/middleware"
)

// Recovery creates panic recovery middleware for the API.
// A recovered panic becomes a JSON INTERNAL_ERROR response.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
