// Package smoke walks the core playground flow against a running API and
// verifies the stats and activity side effects.
package smoke

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sandeepkv93/api-playground-backend/internal/tools/common"
)

type session struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type stats struct {
	RequestsMade   int64    `json:"requests_made"`
	TasksCreated   int64    `json:"tasks_created"`
	TasksCompleted int64    `json:"tasks_completed"`
	Rank           string   `json:"rank"`
	Badges         []string `json:"badges"`
}

type task struct {
	ID        uint `json:"id"`
	Completed bool `json:"completed"`
}

type activity struct {
	Username string `json:"username"`
	Type     string `json:"type"`
}

// Run returns one detail line per verified step.
func Run(ctx context.Context, baseURL string) ([]string, error) {
	anon := common.NewClient(baseURL)
	var details []string

	var s session
	if _, err := anon.Do(ctx, http.MethodPost, "/api/sessions", nil, &s); err != nil {
		return details, fmt.Errorf("create session: %w", err)
	}
	if s.Token == "" || s.Username == "" {
		return details, fmt.Errorf("create session: missing token or username")
	}
	details = append(details, "session created username="+s.Username)
	c := anon.WithToken(s.Token)

	var created task
	title := fmt.Sprintf("smoke %d", time.Now().UnixNano())
	if _, err := c.Do(ctx, http.MethodPost, "/api/tasks", map[string]any{"title": title}, &created); err != nil {
		return details, fmt.Errorf("create task: %w", err)
	}
	details = append(details, fmt.Sprintf("task created id=%d", created.ID))

	before, err := fetchStats(ctx, c)
	if err != nil {
		return details, err
	}
	if before.TasksCreated != 1 || before.TasksCompleted != 0 || before.RequestsMade < 1 {
		return details, fmt.Errorf("stats after create: unexpected %+v", before)
	}
	details = append(details, fmt.Sprintf("stats ok requests=%d rank=%s", before.RequestsMade, before.Rank))

	var completed task
	path := fmt.Sprintf("/api/tasks/%d", created.ID)
	if _, err := c.Do(ctx, http.MethodPatch, path, map[string]any{"completed": true}, &completed); err != nil {
		return details, fmt.Errorf("complete task: %w", err)
	}
	if !completed.Completed {
		return details, fmt.Errorf("complete task: task %d still open", created.ID)
	}
	// A second completion must not be counted again.
	if _, err := c.Do(ctx, http.MethodPatch, path, map[string]any{"completed": true}, nil); err != nil {
		return details, fmt.Errorf("re-complete task: %w", err)
	}

	after, err := fetchStats(ctx, c)
	if err != nil {
		return details, err
	}
	if after.TasksCompleted != 1 {
		return details, fmt.Errorf("stats after complete: tasks_completed=%d want 1", after.TasksCompleted)
	}
	if after.RequestsMade <= before.RequestsMade {
		return details, fmt.Errorf("stats after complete: requests_made did not grow (%d -> %d)", before.RequestsMade, after.RequestsMade)
	}
	details = append(details, fmt.Sprintf("completion counted once badges=%v", after.Badges))

	var activities []activity
	if _, err := c.Do(ctx, http.MethodGet, "/api/activities?limit=50", nil, &activities); err != nil {
		return details, fmt.Errorf("list activities: %w", err)
	}
	if !hasActivity(activities, s.Username, "task.post") {
		return details, fmt.Errorf("list activities: no task.post activity for %s", s.Username)
	}
	details = append(details, fmt.Sprintf("activity feed ok entries=%d", len(activities)))

	if _, err := c.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/sessions/%d", s.ID), nil, nil); err != nil {
		return details, fmt.Errorf("revoke session: %w", err)
	}
	status, err := c.Do(ctx, http.MethodGet, "/api/stats/me", nil, nil)
	if status != http.StatusUnauthorized {
		return details, fmt.Errorf("revoked token still accepted: status=%d err=%v", status, err)
	}
	details = append(details, "session revoked")
	return details, nil
}

func fetchStats(ctx context.Context, c *common.Client) (stats, error) {
	var st stats
	if _, err := c.Do(ctx, http.MethodGet, "/api/stats/me", nil, &st); err != nil {
		return st, fmt.Errorf("fetch stats: %w", err)
	}
	return st, nil
}

func hasActivity(activities []activity, username, kind string) bool {
	for _, a := range activities {
		if a.Username == username && a.Type == kind {
			return true
		}
	}
	return false
}
