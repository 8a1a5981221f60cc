package realtime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/api-playground-backend/internal/observability"
	"github.com/sandeepkv93/api-playground-backend/internal/security"
)

// MercureBroadcaster publishes to an external Mercure hub. The hub answers
// a publish with the update id in the response body.
type MercureBroadcaster struct {
	hubURL   string
	signer   *security.PublisherJWT
	client   *http.Client
	tokenTTL time.Duration
}

func NewMercureBroadcaster(hubURL string, signer *security.PublisherJWT, client *http.Client) *MercureBroadcaster {
	if client == nil {
		client = &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &MercureBroadcaster{hubURL: hubURL, signer: signer, client: client, tokenTTL: time.Minute}
}

func (m *MercureBroadcaster) Broadcast(ctx context.Context, topic string, payload []byte) (string, error) {
	token, err := m.signer.Sign([]string{topic}, m.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("sign mercure publisher token: %w", err)
	}
	form := url.Values{}
	form.Set("topic", topic)
	form.Set("data", string(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.hubURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := m.client.Do(req)
	if err != nil {
		observability.RecordBroadcastFanout(ctx, "mercure", "error", 0)
		return "", fmt.Errorf("mercure publish: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("read mercure response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		observability.RecordBroadcastFanout(ctx, "mercure", "rejected", 0)
		return "", fmt.Errorf("mercure hub returned %s", resp.Status)
	}
	id := strings.TrimSpace(string(body))
	if id == "" {
		return "", fmt.Errorf("mercure hub returned an empty update id")
	}
	observability.RecordBroadcastFanout(ctx, "mercure", "published", 1)
	return id, nil
}
