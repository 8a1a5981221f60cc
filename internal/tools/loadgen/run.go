// Package loadgen drives realistic playground traffic against a running API.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sandeepkv93/api-playground-backend/internal/tools/common"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int64
	Failures      int64
	StatusClasses map[string]int64
}

var profiles = map[string][]step{
	"mixed":   {createTask, listTasks, completeTask, createNote, listNotes, incrementCounter, readStats, readActivities},
	"tasks":   {createTask, listTasks, completeTask, deleteTask},
	"notes":   {createNote, listNotes, patchNote},
	"counter": {incrementCounter, readCounter},
	"read":    {listTasks, listNotes, readStats, readActivities, readCounter},
}

type worker struct {
	client *common.Client
	rng    *rand.Rand
	taskID uint
	noteID uint
}

type step func(ctx context.Context, w *worker) (int, error)

// Run spreads the configured rate across Concurrency workers, each holding its
// own anonymous session, until Duration elapses or ctx is cancelled.
func Run(ctx context.Context, cfg Config) (Result, error) {
	profile := normalizeProfile(cfg.Profile)
	steps, ok := profiles[profile]
	if !ok {
		return Result{}, fmt.Errorf("unknown profile %q", profile)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	base := common.NewClient(cfg.BaseURL)
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Concurrency)
	var (
		total    atomic.Int64
		failures atomic.Int64
		mu       sync.Mutex
		classes  = map[string]int64{}
	)
	record := func(status int, err error) {
		total.Add(1)
		if err != nil || status >= 400 || status == 0 {
			failures.Add(1)
		}
		mu.Lock()
		classes[classifyStatusClass(status)]++
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(runCtx)
	for i := 0; i < cfg.Concurrency; i++ {
		seed := cfg.Seed + int64(i)
		g.Go(func() error {
			var session struct {
				Token string `json:"token"`
			}
			status, err := base.Do(gctx, http.MethodPost, "/api/sessions", nil, &session)
			record(status, err)
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("create session: %w", err)
			}
			w := &worker{client: base.WithToken(session.Token), rng: rand.New(rand.NewSource(seed))}
			for {
				if err := limiter.Wait(gctx); err != nil {
					return nil
				}
				status, err := steps[w.rng.Intn(len(steps))](gctx, w)
				if gctx.Err() != nil && errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				record(status, err)
			}
		})
	}
	err := g.Wait()

	res := Result{TotalRequests: total.Load(), Failures: failures.Load(), StatusClasses: classes}
	if err != nil {
		return res, err
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	return res, nil
}

func createTask(ctx context.Context, w *worker) (int, error) {
	var task struct {
		ID uint `json:"id"`
	}
	body := map[string]any{"title": fmt.Sprintf("task-%d", w.rng.Intn(10000)), "description": "generated"}
	status, err := w.client.Do(ctx, http.MethodPost, "/api/tasks", body, &task)
	if err == nil {
		w.taskID = task.ID
	}
	return status, err
}

func listTasks(ctx context.Context, w *worker) (int, error) {
	return w.client.Do(ctx, http.MethodGet, "/api/tasks", nil, nil)
}

func completeTask(ctx context.Context, w *worker) (int, error) {
	if w.taskID == 0 {
		return createTask(ctx, w)
	}
	return w.client.Do(ctx, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", w.taskID), map[string]any{"completed": true}, nil)
}

func deleteTask(ctx context.Context, w *worker) (int, error) {
	if w.taskID == 0 {
		return createTask(ctx, w)
	}
	status, err := w.client.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", w.taskID), nil, nil)
	w.taskID = 0
	return status, err
}

func createNote(ctx context.Context, w *worker) (int, error) {
	var note struct {
		ID uint `json:"id"`
	}
	body := map[string]any{"title": fmt.Sprintf("note-%d", w.rng.Intn(10000)), "content": "generated"}
	status, err := w.client.Do(ctx, http.MethodPost, "/api/notes", body, &note)
	if err == nil {
		w.noteID = note.ID
	}
	return status, err
}

func listNotes(ctx context.Context, w *worker) (int, error) {
	return w.client.Do(ctx, http.MethodGet, "/api/notes", nil, nil)
}

func patchNote(ctx context.Context, w *worker) (int, error) {
	if w.noteID == 0 {
		return createNote(ctx, w)
	}
	return w.client.Do(ctx, http.MethodPatch, fmt.Sprintf("/api/notes/%d", w.noteID), map[string]any{"content": "edited"}, nil)
}

func incrementCounter(ctx context.Context, w *worker) (int, error) {
	return w.client.Do(ctx, http.MethodPost, "/api/counter/increment", nil, nil)
}

func readCounter(ctx context.Context, w *worker) (int, error) {
	return w.client.Do(ctx, http.MethodGet, "/api/counter", nil, nil)
}

func readStats(ctx context.Context, w *worker) (int, error) {
	return w.client.Do(ctx, http.MethodGet, "/api/stats/me", nil, nil)
}

func readActivities(ctx context.Context, w *worker) (int, error) {
	return w.client.Do(ctx, http.MethodGet, "/api/activities?limit=20", nil, nil)
}

func classifyStatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}

func normalizeProfile(profile string) string {
	p := strings.ToLower(strings.TrimSpace(profile))
	if p == "" {
		return "mixed"
	}
	return p
}
