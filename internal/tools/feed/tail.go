// Package feed tails the live activity stream.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sandeepkv93/api-playground-backend/internal/realtime"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

// Tail connects to the stream endpoint and calls fn for each event until ctx
// ends, the server closes the stream, or fn returns an error.
func Tail(ctx context.Context, client *http.Client, baseURL, topic string, fn func(realtime.Event) error) error {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/api/activities/stream")
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	if topic != "" {
		q := u.Query()
		q.Set("topic", topic)
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("connect stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("connect stream: unexpected status %s", resp.Status)
	}

	scanner := realtime.NewScanner(resp.Body)
	for scanner.Next() {
		if err := fn(scanner.Event()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && ctx.Err() == nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// FormatEvent renders an activity event as one line. Payloads that are not
// activity messages are printed raw.
func FormatEvent(ev realtime.Event) string {
	var msg service.ActivityMessage
	if err := json.Unmarshal([]byte(ev.Data), &msg); err != nil || msg.Type == "" {
		return ev.Data
	}
	return fmt.Sprintf("%s  %-16s %-18s %s", msg.Timestamp, msg.Type, msg.Username, msg.Message)
}
