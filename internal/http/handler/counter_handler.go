package handler

import (
	"net/http"

	"github.com/sandeepkv93/api-playground-backend/internal/http/response"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

type CounterHandler struct {
	counter service.CounterServiceInterface
}

func NewCounterHandler(counter service.CounterServiceInterface) *CounterHandler {
	return &CounterHandler{counter: counter}
}

func (h *CounterHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	view, err := h.counter.Get(r.Context())
	if err != nil {
		writeServiceError(w, r, "counter.get", err)
		return
	}
	response.JSON(w, r, http.StatusOK, view)
}

func (h *CounterHandler) Increment(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	view, err := h.counter.Increment(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, "counter.increment", err)
		return
	}
	response.JSON(w, r, http.StatusOK, view)
}
