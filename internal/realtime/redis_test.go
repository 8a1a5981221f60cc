package realtime

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisBroadcasterRelaysToLocalHub(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hub := NewHub(4)
	ch, cancelSub := hub.Subscribe("activities")
	defer cancelSub()

	relay := NewRedisRelay(client, "relay_test", hub, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	select {
	case <-relay.Ready():
	case err := <-done:
		t.Fatalf("relay exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not subscribe")
	}

	b := NewRedisBroadcaster(client, "relay_test")
	id, err := b.Broadcast(context.Background(), "activities", []byte(`{"id":1}`))
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	select {
	case msg := <-ch:
		if msg.ID != id || string(msg.Payload) != `{"id":1}` {
			t.Fatalf("unexpected relayed message %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected relayed message")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("relay returned error on shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestRedisBroadcasterSurfacesPublishErrors(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	server.Close()

	if _, err := NewRedisBroadcaster(client, "x").Broadcast(context.Background(), "t", []byte("p")); err == nil {
		t.Fatal("expected publish error against closed redis")
	}
}
