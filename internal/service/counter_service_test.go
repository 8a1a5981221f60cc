package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/realtime"
	"github.com/sandeepkv93/api-playground-backend/internal/repository"
)

const testCounterTopic = "http://localhost/topics/counter"

func TestCounterIncrementBroadcastsAndRecordsActivity(t *testing.T) {
	db := newServiceTestDB(t)
	sessionsRepo := repository.NewSessionRepository(db)
	sessions := NewSessionService(sessionsRepo, time.Hour, discardLogger())
	activities := repository.NewActivityRepository(db)
	hub := realtime.NewHub(8)
	counterCh, cancel := hub.Subscribe(testCounterTopic)
	defer cancel()
	pub := NewActivityPublisher(activities, hub, testActivityTopic, 0, discardLogger())
	svc := NewCounterService(repository.NewGormCounterStore(db), sessionsRepo, hub, testCounterTopic, pub, discardLogger())
	ctx := context.Background()

	session, err := sessions.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	view, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Value != 0 || view.LastUpdated != nil || view.TotalUsers != 1 || view.ActiveUsers != 1 {
		t.Fatalf("unexpected initial view %+v", view)
	}

	view, err = svc.Increment(ctx, domain.Identity{SessionID: session.ID, Username: session.Username})
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if view.Value != 1 || view.LastUpdated == nil {
		t.Fatalf("unexpected view after increment %+v", view)
	}

	select {
	case msg := <-counterCh:
		var got CounterView
		if err := json.Unmarshal(msg.Payload, &got); err != nil {
			t.Fatalf("decode counter broadcast: %v", err)
		}
		if got.Value != 1 {
			t.Fatalf("expected broadcast value 1, got %d", got.Value)
		}
	case <-time.After(time.Second):
		t.Fatal("expected counter broadcast")
	}

	acts, _ := activities.ListRecent(ctx, 1)
	if len(acts) != 1 || acts[0].Type != "counter.post" || acts[0].Username != session.Username {
		t.Fatalf("expected counter.post activity, got %+v", acts)
	}
}

func TestCounterIncrementConcurrent(t *testing.T) {
	db := newServiceTestDB(t)
	svc := NewCounterService(repository.NewGormCounterStore(db), repository.NewSessionRepository(db), nil, testCounterTopic, nil, discardLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Increment(ctx, domain.Identity{Username: "u"}); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()
	view, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Value != 20 {
		t.Fatalf("expected 20 increments, got %d", view.Value)
	}
}

func TestCounterServiceWithRedisStore(t *testing.T) {
	_, client := startTestRedis(t)
	db := newServiceTestDB(t)
	store := repository.NewRedisCounterStore(client, "svc_test")
	svc := NewCounterService(store, repository.NewSessionRepository(db), nil, testCounterTopic, nil, discardLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Increment(ctx, domain.Identity{Username: "u"}); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	view, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Value != 3 || view.LastUpdated == nil {
		t.Fatalf("unexpected redis-backed view %+v", view)
	}
}
