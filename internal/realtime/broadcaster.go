// Package realtime delivers best-effort push notifications to feed
// subscribers over server-sent events, optionally through Redis pub/sub or
// an external Mercure hub.
package realtime

import (
	"context"

	"github.com/google/uuid"
)

// Broadcaster pushes payload to every subscriber of topic and returns the
// identifier assigned to the update.
type Broadcaster interface {
	Broadcast(ctx context.Context, topic string, payload []byte) (string, error)
}

type Message struct {
	ID      string
	Topic   string
	Payload []byte
}

func newMessageID() string {
	return "urn:uuid:" + uuid.NewString()
}

// MirrorBroadcaster publishes through primary and, once it acknowledges,
// replays the update to the local hub so in-process SSE clients see it too.
type MirrorBroadcaster struct {
	primary Broadcaster
	local   *Hub
}

func NewMirrorBroadcaster(primary Broadcaster, local *Hub) *MirrorBroadcaster {
	return &MirrorBroadcaster{primary: primary, local: local}
}

func (m *MirrorBroadcaster) Broadcast(ctx context.Context, topic string, payload []byte) (string, error) {
	id, err := m.primary.Broadcast(ctx, topic, payload)
	if err != nil {
		return "", err
	}
	if m.local != nil {
		m.local.Deliver(Message{ID: id, Topic: topic, Payload: payload})
	}
	return id, nil
}
