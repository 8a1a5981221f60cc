package handler

import (
	"net/http"

	"github.com/sandeepkv93/api-playground-backend/internal/http/response"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

type StatsHandler struct {
	stats service.StatsServiceInterface
}

func NewStatsHandler(stats service.StatsServiceInterface) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	view, err := h.stats.View(r.Context(), identity.Username)
	if err != nil {
		writeServiceError(w, r, "stats.me", err)
		return
	}
	response.JSON(w, r, http.StatusOK, view)
}
