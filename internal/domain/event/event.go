// Package event defines the billing events published to other services.
package event

import (
	"context"
	"time"
)

type Type string

const (
	SubscriptionActivated        Type = "subscription.activated"
	SubscriptionRenewed          Type = "subscription.renewed"
	SubscriptionRenewalCancelled Type = "subscription.renewal_cancelled"
	PayoutComputed               Type = "payout.computed"
)

// BillingEvent is the envelope published on the billing channel.
type BillingEvent struct {
	Type       Type                   `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

// New builds an event stamped with the current time.
func New(t Type, data map[string]interface{}) BillingEvent {
	return BillingEvent{Type: t, OccurredAt: time.Now().UTC(), Data: data}
}

// Publisher delivers billing events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, evt BillingEvent) error
}
