package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"agora-express/internal/middleware"
	"agora-express/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: message})
}

// writeServiceError maps a service error onto the HTTP taxonomy. Domain
// errors carry their own status; anything else is an internal error.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, domainStatus(domainErr.Code), domainErr.Message, logger)
		return
	}
	logger.Error().Err(err).Msg("internal error")
	writeError(w, http.StatusInternalServerError, "Internal server error", logger)
}

// domainStatus maps a domain error code to an HTTP status.
func domainStatus(code string) int {
	switch code {
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeConflict:
		return http.StatusConflict
	case model.ErrCodeInvalidArgument,
		model.ErrCodeInvalidJSON,
		model.ErrCodeMissingField,
		model.ErrCodeInsufficientCoins,
		model.ErrCodeInvalidStampCode,
		model.ErrCodeCardFull,
		model.ErrCodeGiftUsed,
		model.ErrCodeGiftExpired:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// callerID extracts the authenticated user's id from the request context.
// Routes behind BearerAuth always have it; a false return means the route
// was wired without the auth middleware.
func callerID(r *http.Request) (uuid.UUID, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	return claims.UserID, true
}
