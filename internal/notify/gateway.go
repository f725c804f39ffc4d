// Package notify delivers reminder notifications through a pluggable
// gateway: web push, SMTP email fallback, or a mock for tests.
package notify

import (
	"context"
	"errors"

	"smarttasker/internal/model"
)

// ErrSubscriptionExpired is the terminal delivery failure: the push
// endpoint is permanently gone (HTTP 410 semantics) and the stored
// subscription must be invalidated rather than retried.
var ErrSubscriptionExpired = errors.New("push subscription expired")

// Payload is the notification content handed to a gateway.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Gateway is the delivery capability the reminder clock depends on.
type Gateway interface {
	// IsSubscribed reports whether this device can currently receive
	// notifications. It never fails; misconfiguration or a missing
	// subscription read as false.
	IsSubscribed(ctx context.Context) bool

	// Deliver sends the payload. A terminal failure wraps
	// ErrSubscriptionExpired; any other error is considered transient.
	// Gateways that do not use push subscriptions ignore sub.
	Deliver(ctx context.Context, sub *model.PushSubscriptionRecord, payload Payload) error
}
