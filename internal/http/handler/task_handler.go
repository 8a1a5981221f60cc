package handler

import (
	"net/http"

	"github.com/sandeepkv93/api-playground-backend/internal/http/response"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

type TaskHandler struct {
	tasks service.TaskServiceInterface
}

func NewTaskHandler(tasks service.TaskServiceInterface) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	tasks, err := h.tasks.List(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, "task.list", err)
		return
	}
	response.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	task, err := h.tasks.Get(r.Context(), identity, id)
	if err != nil {
		writeServiceError(w, r, "task.get", err)
		return
	}
	response.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var in service.TaskInput
	if !decodeBody(w, r, &in) {
		return
	}
	task, err := h.tasks.Create(r.Context(), identity, in)
	if err != nil {
		writeServiceError(w, r, "task.create", err)
		return
	}
	observability.Audit(r, "task.created", "task_id", task.ID, "username", identity.Username)
	response.JSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) Replace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

func (h *TaskHandler) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *TaskHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in service.TaskInput
	if !decodeBody(w, r, &in) {
		return
	}
	update := h.tasks.Replace
	if partial {
		update = h.tasks.Patch
	}
	task, err := update(r.Context(), identity, id, in)
	if err != nil {
		writeServiceError(w, r, "task.update", err)
		return
	}
	response.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.tasks.Delete(r.Context(), identity, id); err != nil {
		writeServiceError(w, r, "task.delete", err)
		return
	}
	observability.Audit(r, "task.deleted", "task_id", id, "username", identity.Username)
	response.NoContent(w)
}
