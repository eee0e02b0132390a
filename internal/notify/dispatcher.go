package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher pushes a live alert to whoever is listening on channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Message is the JSON pushed to live subscribers.
type Message struct {
	Type  EventKind    `json:"type"`
	Alert models.Alert `json:"alert"`
}

type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

type Dispatcher struct {
	alerts    repository.AlertRepository
	publisher Publisher
	logger    *zap.Logger
}

// NewDispatcher builds a dispatcher. publisher may be nil when no live feed
// is configured; alerts are still persisted for polling.
func NewDispatcher(alerts repository.AlertRepository, publisher Publisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{alerts: alerts, publisher: publisher, logger: logger}
}

// Dispatch applies events in order. It never fails: every error is logged
// and the remaining events still run.
func (d *Dispatcher) Dispatch(ctx context.Context, events []Event) {
	for _, ev := range events {
		switch ev.Kind {
		case EventAlertCreated:
			d.create(ctx, ev.Alert)
		case EventAlertsRetired:
			if _, err := d.alerts.Retire(ctx, ev.ValueID, ev.Category, ev.Actor); err != nil {
				d.logger.Error("failed to retire alerts",
					zap.Int64("value_id", ev.ValueID),
					zap.String("category", ev.Category),
					zap.Error(err),
				)
			}
		case EventAlertsRead:
			if _, err := d.alerts.RetireFor(ctx, ev.ValueID, ev.Category, ev.Target); err != nil {
				d.logger.Error("failed to mark alerts read",
					zap.Int64("value_id", ev.ValueID),
					zap.String("category", ev.Category),
					zap.String("target_user", ev.Target),
					zap.Error(err),
				)
			}
		default:
			d.logger.Warn("unknown notify event", zap.String("kind", string(ev.Kind)))
		}
	}
}

func (d *Dispatcher) create(ctx context.Context, a models.Alert) {
	created, err := d.alerts.Create(ctx, a)
	if err != nil {
		d.logger.Error("failed to create alert",
			zap.String("target_user", a.TargetUser),
			zap.Int64("value_id", a.ValueID),
			zap.Error(err),
		)
		return
	}

	if d.publisher == nil {
		return
	}
	payload, err := json.Marshal(Message{Type: EventAlertCreated, Alert: *created})
	if err != nil {
		d.logger.Error("failed to marshal alert", zap.Int64("alert_id", created.AlertID), zap.Error(err))
		return
	}
	if err := d.publisher.Publish(ctx, Channel(created.TargetUser), payload); err != nil {
		d.logger.Warn("failed to publish alert",
			zap.Int64("alert_id", created.AlertID),
			zap.String("target_user", created.TargetUser),
			zap.Error(err),
		)
	}
}
