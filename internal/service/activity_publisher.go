package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"
	"github.com/sandeepkv93/api-playground-backend/internal/realtime"
	"github.com/sandeepkv93/api-playground-backend/internal/repository"
)

var ErrActivityPersist = errors.New("persist activity")

const DefaultActivityListLimit = 50

// PublishOutcome reports how far a publish got. BroadcastID is empty when the
// activity was stored but the real-time notification failed.
type PublishOutcome struct {
	Activity    *domain.Activity
	Stored      bool
	BroadcastID string
}

// ActivityMessage is the JSON pushed to feed subscribers.
type ActivityMessage struct {
	ID        uint           `json:"id"`
	Type      string         `json:"type"`
	Username  string         `json:"username"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
}

func NewActivityMessage(a *domain.Activity) ActivityMessage {
	data := map[string]any(a.Data)
	if data == nil {
		data = map[string]any{}
	}
	return ActivityMessage{
		ID:        a.ID,
		Type:      a.Type,
		Username:  a.Username,
		Message:   a.Message,
		Data:      data,
		Timestamp: a.Timestamp.Format(time.RFC3339),
	}
}

type ActivityPublisher struct {
	activityRepo repository.ActivityRepository
	broadcaster  realtime.Broadcaster
	topic        string
	listLimit    int
	logger       *slog.Logger
	now          func() time.Time
}

func NewActivityPublisher(activityRepo repository.ActivityRepository, broadcaster realtime.Broadcaster, topic string, listLimit int, logger *slog.Logger) *ActivityPublisher {
	if listLimit <= 0 {
		listLimit = DefaultActivityListLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityPublisher{
		activityRepo: activityRepo,
		broadcaster:  broadcaster,
		topic:        topic,
		listLimit:    listLimit,
		logger:       logger,
		now:          time.Now,
	}
}

// Publish stores the activity and then broadcasts it. Only the store step can
// fail the call; a broadcast failure is logged and reported through an empty
// BroadcastID.
func (p *ActivityPublisher) Publish(ctx context.Context, activity *domain.Activity) (PublishOutcome, error) {
	ctx, span := otel.Tracer("api-playground-backend").Start(ctx, "activity.publish")
	defer span.End()
	span.SetAttributes(attribute.String("activity.type", activity.Type))

	outcome := PublishOutcome{Activity: activity}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = p.now().UTC()
	}
	if err := p.activityRepo.Create(ctx, activity); err != nil {
		observability.RecordActivityPublish(ctx, "persist", "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return outcome, fmt.Errorf("%w: %v", ErrActivityPersist, err)
	}
	outcome.Stored = true
	observability.RecordActivityPublish(ctx, "persist", "success")

	if p.broadcaster == nil {
		observability.RecordActivityPublish(ctx, "broadcast", "disabled")
		return outcome, nil
	}
	payload, err := json.Marshal(NewActivityMessage(activity))
	if err != nil {
		p.logger.ErrorContext(ctx, "encode activity broadcast failed", "activity_id", activity.ID, "error", err)
		observability.RecordActivityPublish(ctx, "broadcast", "error")
		return outcome, nil
	}
	id, err := p.broadcaster.Broadcast(ctx, p.topic, payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "activity broadcast failed",
			"activity_id", activity.ID,
			"activity_type", activity.Type,
			"topic", p.topic,
			"error", err,
		)
		observability.RecordActivityPublish(ctx, "broadcast", "error")
		span.AddEvent("broadcast failed")
		return outcome, nil
	}
	outcome.BroadcastID = id
	observability.RecordActivityPublish(ctx, "broadcast", "success")
	p.logger.InfoContext(ctx, "activity published", "activity_id", activity.ID, "update_id", id)
	return outcome, nil
}

// Recent lists the newest activities. limit is clamped to the configured
// maximum.
func (p *ActivityPublisher) Recent(ctx context.Context, limit int) ([]domain.Activity, error) {
	if limit <= 0 || limit > p.listLimit {
		limit = p.listLimit
	}
	return p.activityRepo.ListRecent(ctx, limit)
}

var activityVerbs = map[string]string{
	"post":   "created",
	"put":    "updated",
	"patch":  "updated",
	"delete": "deleted",
}

// NewResourceActivity builds the activity for a mutation of a named resource,
// e.g. type "task.post" with message `created the task “Buy milk”`.
func NewResourceActivity(username, resource, method string, id uint, title string, fields map[string]any) *domain.Activity {
	resource = strings.ToLower(resource)
	method = strings.ToLower(method)
	verb, ok := activityVerbs[method]
	if !ok {
		verb = "modified"
	}
	data := datatypes.JSONMap{
		resource + "_id": id,
		"title":          title,
	}
	for k, v := range fields {
		data[k] = v
	}
	return &domain.Activity{
		Username: username,
		Type:     resource + "." + method,
		Message:  fmt.Sprintf("%s the %s “%s”", verb, resource, title),
		Data:     data,
	}
}
