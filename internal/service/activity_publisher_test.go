package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandeepkv93/api-playground-backend/internal/database"
	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/realtime"
	"github.com/sandeepkv93/api-playground-backend/internal/repository"
)

const testActivityTopic = "http://localhost/topics/activities"

type failingBroadcaster struct {
	calls atomic.Int32
}

func (b *failingBroadcaster) Broadcast(context.Context, string, []byte) (string, error) {
	b.calls.Add(1)
	return "", errors.New("hub unreachable")
}

func TestPublishStoresActivityWhenBroadcastFails(t *testing.T) {
	repo := repository.NewActivityRepository(newServiceTestDB(t))
	broadcaster := &failingBroadcaster{}
	pub := NewActivityPublisher(repo, broadcaster, testActivityTopic, 0, discardLogger())
	ctx := context.Background()

	outcome, err := pub.Publish(ctx, NewResourceActivity("SwiftFox100", "task", "post", 7, "Buy milk", nil))
	if err != nil {
		t.Fatalf("publish should swallow broadcast failures: %v", err)
	}
	if !outcome.Stored || outcome.BroadcastID != "" || outcome.Activity.ID == 0 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if broadcaster.calls.Load() != 1 {
		t.Fatalf("expected one broadcast attempt, got %d", broadcaster.calls.Load())
	}
	stored, err := repo.ListRecent(ctx, 10)
	if err != nil || len(stored) != 1 {
		t.Fatalf("expected stored activity, got %d err=%v", len(stored), err)
	}
}

func TestPublishBroadcastsSummaryAfterStore(t *testing.T) {
	repo := repository.NewActivityRepository(newServiceTestDB(t))
	hub := realtime.NewHub(4)
	ch, cancel := hub.Subscribe(testActivityTopic)
	defer cancel()
	pub := NewActivityPublisher(repo, hub, testActivityTopic, 0, discardLogger())
	fixed := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	pub.now = func() time.Time { return fixed }

	outcome, err := pub.Publish(context.Background(), NewResourceActivity("SwiftFox100", "note", "patch", 3, "Ideas", map[string]any{"content": "x"}))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if outcome.BroadcastID == "" {
		t.Fatal("expected broadcast id")
	}

	var msg realtime.Message
	select {
	case msg = <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected broadcast on activity topic")
	}
	var got ActivityMessage
	if err := json.Unmarshal(msg.Payload, &got); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if got.ID != outcome.Activity.ID || got.ID == 0 {
		t.Fatalf("broadcast must carry the stored id, got %d", got.ID)
	}
	if got.Type != "note.patch" || got.Username != "SwiftFox100" || got.Message != "updated the note “Ideas”" {
		t.Fatalf("unexpected summary %+v", got)
	}
	if got.Timestamp != "2026-05-04T03:02:01Z" {
		t.Fatalf("expected RFC3339 timestamp, got %q", got.Timestamp)
	}
	if got.Data["note_id"] != float64(3) || got.Data["content"] != "x" {
		t.Fatalf("unexpected data %+v", got.Data)
	}
}

func TestPublishPersistFailureSkipsBroadcast(t *testing.T) {
	db := newServiceTestDB(t)
	repo := repository.NewActivityRepository(db)
	broadcaster := &failingBroadcaster{}
	pub := NewActivityPublisher(repo, broadcaster, testActivityTopic, 0, discardLogger())
	_ = database.Close(db)

	outcome, err := pub.Publish(context.Background(), NewResourceActivity("u", "task", "post", 1, "t", nil))
	if !errors.Is(err, ErrActivityPersist) {
		t.Fatalf("expected ErrActivityPersist, got %v", err)
	}
	if outcome.Stored {
		t.Fatal("expected Stored=false on persist failure")
	}
	if broadcaster.calls.Load() != 0 {
		t.Fatal("nothing may be broadcast when the store fails")
	}
}

func TestRecentClampsLimit(t *testing.T) {
	repo := repository.NewActivityRepository(newServiceTestDB(t))
	pub := NewActivityPublisher(repo, nil, testActivityTopic, 2, discardLogger())
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if _, err := pub.Publish(ctx, &domain.Activity{Username: "u", Type: "task.post", Message: "m"}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	got, err := pub.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit clamped to 2, got %d", len(got))
	}
}

func TestNewResourceActivityMessages(t *testing.T) {
	cases := map[string]string{
		"post":   "created the task “Write docs”",
		"PUT":    "updated the task “Write docs”",
		"patch":  "updated the task “Write docs”",
		"delete": "deleted the task “Write docs”",
		"merge":  "modified the task “Write docs”",
	}
	for method, want := range cases {
		a := NewResourceActivity("u", "Task", method, 9, "Write docs", nil)
		if a.Message != want {
			t.Fatalf("%s: expected %q, got %q", method, want, a.Message)
		}
	}
	a := NewResourceActivity("u", "task", "post", 9, "Write docs", map[string]any{"completed": false})
	if a.Type != "task.post" || a.Data["task_id"] != uint(9) || a.Data["title"] != "Write docs" || a.Data["completed"] != false {
		t.Fatalf("unexpected activity %+v", a)
	}
}
