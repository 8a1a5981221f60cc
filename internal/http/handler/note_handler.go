package handler

import (
	"net/http"

	"github.com/sandeepkv93/api-playground-backend/internal/http/response"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

type NoteHandler struct {
	notes service.NoteServiceInterface
}

func NewNoteHandler(notes service.NoteServiceInterface) *NoteHandler {
	return &NoteHandler{notes: notes}
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	notes, err := h.notes.List(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, "note.list", err)
		return
	}
	response.JSON(w, r, http.StatusOK, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	note, err := h.notes.Get(r.Context(), identity, id)
	if err != nil {
		writeServiceError(w, r, "note.get", err)
		return
	}
	response.JSON(w, r, http.StatusOK, note)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var in service.NoteInput
	if !decodeBody(w, r, &in) {
		return
	}
	note, err := h.notes.Create(r.Context(), identity, in)
	if err != nil {
		writeServiceError(w, r, "note.create", err)
		return
	}
	observability.Audit(r, "note.created", "note_id", note.ID, "username", identity.Username)
	response.JSON(w, r, http.StatusCreated, note)
}

func (h *NoteHandler) Replace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

func (h *NoteHandler) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *NoteHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in service.NoteInput
	if !decodeBody(w, r, &in) {
		return
	}
	update := h.notes.Replace
	if partial {
		update = h.notes.Patch
	}
	note, err := update(r.Context(), identity, id, in)
	if err != nil {
		writeServiceError(w, r, "note.update", err)
		return
	}
	response.JSON(w, r, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.notes.Delete(r.Context(), identity, id); err != nil {
		writeServiceError(w, r, "note.delete", err)
		return
	}
	observability.Audit(r, "note.deleted", "note_id", id, "username", identity.Username)
	response.NoContent(w)
}
