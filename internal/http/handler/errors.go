package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/http/middleware"
	"github.com/sandeepkv93/api-playground-backend/internal/http/response"
	"github.com/sandeepkv93/api-playground-backend/internal/repository"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

// writeServiceError maps service and repository errors onto the API envelope.
// Anything unrecognised is logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(w, r, http.StatusUnprocessableEntity, response.CodeValidation, "validation failed", verr.Fields)
	case service.IsAuthError(err):
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "invalid access token", nil)
	case errors.Is(err, repository.ErrSessionNotFound):
		response.Error(w, r, http.StatusNotFound, response.CodeNotFound, "session not found", nil)
	case errors.Is(err, repository.ErrTaskNotFound):
		response.Error(w, r, http.StatusNotFound, response.CodeNotFound, "task not found", nil)
	case errors.Is(err, repository.ErrNoteNotFound):
		response.Error(w, r, http.StatusNotFound, response.CodeNotFound, "note not found", nil)
	case errors.Is(err, repository.ErrUserStatsNotFound):
		response.Error(w, r, http.StatusNotFound, response.CodeNotFound, "stats not found", nil)
	default:
		slog.ErrorContext(r.Context(), "request failed", "op", op, "error", err)
		response.Error(w, r, http.StatusInternalServerError, response.CodeInternal, "internal server error", nil)
	}
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing access token", nil)
	}
	return identity, ok
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid id", map[string]string{"id": raw})
		return 0, false
	}
	return uint(id), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := response.DecodeJSON(r, dst); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, err.Error(), nil)
		return false
	}
	return true
}
