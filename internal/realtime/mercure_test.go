package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sandeepkv93/api-playground-backend/internal/security"
)

const testMercureKey = "abcdefghijklmnopqrstuvwxyz123456"

func TestMercureBroadcasterPublishesForm(t *testing.T) {
	signer := security.NewPublisherJWT(testMercureKey)
	var gotTopic, gotData string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		claims, err := signer.Parse(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		gotTopic = r.PostForm.Get("topic")
		gotData = r.PostForm.Get("data")
		if !claims.CanPublish(gotTopic) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("urn:uuid:from-hub\n"))
	}))
	defer srv.Close()

	m := NewMercureBroadcaster(srv.URL, signer, srv.Client())
	id, err := m.Broadcast(context.Background(), "http://localhost/topics/activities", []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if id != "urn:uuid:from-hub" {
		t.Fatalf("expected hub ack id, got %q", id)
	}
	if gotTopic != "http://localhost/topics/activities" || gotData != `{"a":1}` {
		t.Fatalf("unexpected form topic=%q data=%q", gotTopic, gotData)
	}
}

func TestMercureBroadcasterRejectsNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewMercureBroadcaster(srv.URL, security.NewPublisherJWT(testMercureKey), srv.Client())
	if _, err := m.Broadcast(context.Background(), "t", []byte("x")); err == nil {
		t.Fatal("expected error for 503 hub response")
	}
}
