// Package messaging publishes billing events to Redis.
package messaging

import (
	"context"
	"fmt"

	"github.com/Mattie1391/sportify-backend/internal/domain/event"
	pkgMessaging "github.com/Mattie1391/sportify-backend/pkg/messaging"
	"go.uber.org/zap"
)

// EventPublisher publishes billing events on one Redis channel
type EventPublisher struct {
	client  pkgMessaging.RedisClient
	channel string
	logger  *zap.Logger
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(client pkgMessaging.RedisClient, channel string, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

var _ event.Publisher = (*EventPublisher)(nil)

func (p *EventPublisher) Publish(ctx context.Context, evt event.BillingEvent) error {
	if err := p.client.Publish(ctx, p.channel, evt); err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.Type, err)
	}

	p.logger.Debug("Billing event published",
		zap.String("channel", p.channel),
		zap.String("type", string(evt.Type)))
	return nil
}

// NopPublisher drops every event. It stands in when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, event.BillingEvent) error { return nil }
