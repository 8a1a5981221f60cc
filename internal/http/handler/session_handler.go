package handler

import (
	"net/http"

	"github.com/sandeepkv93/api-playground-backend/internal/http/response"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

type SessionHandler struct {
	sessions service.SessionServiceInterface
}

func NewSessionHandler(sessions service.SessionServiceInterface) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create issues an anonymous session. This is the only response that ever
// carries the token.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.CreateSession(r.Context())
	if err != nil {
		writeServiceError(w, r, "session.create", err)
		return
	}
	observability.Audit(r, "session.created", "session_id", session.ID, "username", session.Username)
	response.JSON(w, r, http.StatusCreated, service.NewSessionView(session, true))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	session, err := h.sessions.GetSessionForOwner(r.Context(), identity, id)
	if err != nil {
		writeServiceError(w, r, "session.get", err)
		return
	}
	response.JSON(w, r, http.StatusOK, service.NewSessionView(session, false))
}

func (h *SessionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.sessions.RevokeSession(r.Context(), identity, id); err != nil {
		writeServiceError(w, r, "session.revoke", err)
		return
	}
	observability.Audit(r, "session.revoked", "session_id", id, "username", identity.Username)
	response.NoContent(w)
}
