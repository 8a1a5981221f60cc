package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestGormCounterStoreIncrement(t *testing.T) {
	store := NewGormCounterStore(newTestDB(t))
	ctx := context.Background()

	initial, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get before first increment: %v", err)
	}
	if initial.Value != 0 {
		t.Fatalf("expected zero counter, got %d", initial.Value)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Increment(ctx, time.Now()); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	c, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Value != 10 {
		t.Fatalf("expected 10, got %d", c.Value)
	}
}

func TestRedisCounterStoreIncrement(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisCounterStore(client, "counter_test")
	ctx := context.Background()

	c, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if c.Value != 0 || !c.LastUpdated.IsZero() {
		t.Fatalf("expected empty counter, got %+v", c)
	}

	at := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	if _, err := store.Increment(ctx, at); err != nil {
		t.Fatalf("increment: %v", err)
	}
	c, err = store.Increment(ctx, at.Add(time.Second))
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if c.Value != 2 {
		t.Fatalf("expected 2 from increment, got %d", c.Value)
	}

	c, err = store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Value != 2 || !c.LastUpdated.Equal(at.Add(time.Second)) {
		t.Fatalf("unexpected stored counter %+v", c)
	}
	if got, _ := server.Get("counter_test:counter:value"); got != "2" {
		t.Fatalf("expected raw redis value 2, got %q", got)
	}
}
