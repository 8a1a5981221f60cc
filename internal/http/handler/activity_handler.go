package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sandeepkv93/api-playground-backend/internal/http/response"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

type ActivityHandler struct {
	feed service.ActivityFeed
}

func NewActivityHandler(feed service.ActivityFeed) *ActivityHandler {
	return &ActivityHandler{feed: feed}
}

// List returns recent activities newest first. A missing or out of range
// limit falls back to the configured maximum.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "limit must be a positive integer", map[string]string{"limit": raw})
			return
		}
		limit = n
	}
	activities, err := h.feed.Recent(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, "activity.list", err)
		return
	}
	response.JSON(w, r, http.StatusOK, activities)
}
