package realtime

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWriteEventSplitsMultilinePayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEvent(&buf, Message{ID: "urn:uuid:1", Payload: []byte("a\nb")}); err != nil {
		t.Fatalf("write event: %v", err)
	}
	want := "id: urn:uuid:1\ndata: a\ndata: b\n\n"
	if buf.String() != want {
		t.Fatalf("unexpected frame %q want %q", buf.String(), want)
	}
}

func TestScannerParsesEventsAndSkipsComments(t *testing.T) {
	stream := ": subscribed\n\nid: 1\ndata: {\"a\":1}\n\n: heartbeat\n\nevent: counter\nid: 2\ndata: x\ndata: y\n\ndata: tail"
	s := NewScanner(strings.NewReader(stream))

	var events []Event
	for s.Next() {
		events = append(events, s.Event())
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scanner error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}
	if events[0].ID != "1" || events[0].Data != `{"a":1}` {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Type != "counter" || events[1].Data != "x\ny" {
		t.Fatalf("unexpected second event %+v", events[1])
	}
	if events[2].Data != "tail" {
		t.Fatalf("expected unterminated final event, got %+v", events[2])
	}
}

func TestStreamHandlerDeliversHubMessages(t *testing.T) {
	hub := NewHub(4)
	srv := httptest.NewServer(StreamHandler(hub, StreamOptions{DefaultTopic: "activities", Heartbeat: time.Hour}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	waitForSubscribers(t, hub, "activities", 1)
	id, _ := hub.Broadcast(ctx, "activities", []byte(`{"message":"hi"}`))

	scanner := NewScanner(resp.Body)
	if !scanner.Next() {
		t.Fatalf("expected an event, err=%v", scanner.Err())
	}
	ev := scanner.Event()
	if ev.ID != id || ev.Data != `{"message":"hi"}` {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestStreamHandlerRejectsDisallowedTopic(t *testing.T) {
	h := StreamHandler(NewHub(1), StreamOptions{DefaultTopic: "a", AllowedTopics: []string{"a"}})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stream?topic=b", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for disallowed topic, got %d", rr.Code)
	}
}

func waitForSubscribers(t *testing.T, hub *Hub, topic string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount(topic) < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d subscribers on %s", n, topic)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
