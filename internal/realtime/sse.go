package realtime

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type StreamOptions struct {
	DefaultTopic string
	// AllowedTopics restricts subscriptions; empty allows any topic.
	AllowedTopics []string
	Heartbeat     time.Duration
}

// StreamHandler serves the hub as a text/event-stream. The topic comes from
// the "topic" query parameter.
func StreamHandler(hub *Hub, opts StreamOptions) http.HandlerFunc {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 15 * time.Second
	}
	return func(w http.ResponseWriter, r *http.Request) {
		topic := strings.TrimSpace(r.URL.Query().Get("topic"))
		if topic == "" {
			topic = opts.DefaultTopic
		}
		if !topicAllowed(topic, opts.AllowedTopics) {
			http.Error(w, "unknown topic", http.StatusBadRequest)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		messages, cancel := hub.Subscribe(topic)
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, ": subscribed\n\n")
		flusher.Flush()

		ticker := time.NewTicker(opts.Heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				if _, err := io.WriteString(w, ": heartbeat\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if err := WriteEvent(w, msg); err != nil {
					slog.DebugContext(r.Context(), "sse client write failed", "topic", topic, "error", err)
					return
				}
				flusher.Flush()
			}
		}
	}
}

// WriteEvent encodes msg as one SSE event. Multi-line payloads become
// several data fields.
func WriteEvent(w io.Writer, msg Message) error {
	var buf bytes.Buffer
	if msg.ID != "" {
		fmt.Fprintf(&buf, "id: %s\n", msg.ID)
	}
	for _, line := range strings.Split(strings.ReplaceAll(string(msg.Payload), "\r\n", "\n"), "\n") {
		fmt.Fprintf(&buf, "data: %s\n", line)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func topicAllowed(topic string, allowed []string) bool {
	if topic == "" {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == topic {
			return true
		}
	}
	return false
}
