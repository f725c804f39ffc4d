package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"smarttasker/internal/model"
	"smarttasker/internal/store"
)

// WebPushGateway delivers reminders through a web push service using
// VAPID authentication.
type WebPushGateway struct {
	store      store.Store
	logger     *slog.Logger
	subject    string
	publicKey  string
	privateKey string
}

// NewWebPush creates a web push gateway. The private key comes from the
// keyring, not the config file.
func NewWebPush(s store.Store, logger *slog.Logger, subject, publicKey, privateKey string) *WebPushGateway {
	return &WebPushGateway{
		store:      s,
		logger:     logger,
		subject:    subject,
		publicKey:  publicKey,
		privateKey: privateKey,
	}
}

// IsSubscribed reports whether VAPID keys are configured and a push
// subscription is on record. Store errors read as not subscribed.
func (g *WebPushGateway) IsSubscribed(ctx context.Context) bool {
	if g.subject == "" || g.publicKey == "" || g.privateKey == "" {
		return false
	}

	sub, err := g.store.GetSubscription(ctx)
	if err != nil {
		g.logger.Warn("reading push subscription failed", "error", err)
		return false
	}
	return sub != nil
}

// Deliver encrypts and sends the payload to the subscription endpoint.
func (g *WebPushGateway) Deliver(ctx context.Context, sub *model.PushSubscriptionRecord, payload Payload) error {
	if sub == nil {
		return fmt.Errorf("no push subscription to deliver to")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding push payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      g.subject,
		VAPIDPublicKey:  g.publicKey,
		VAPIDPrivateKey: g.privateKey,
		TTL:             60,
	})
	if err != nil {
		return fmt.Errorf("sending push notification: %w", err)
	}
	defer resp.Body.Close()

	return classifyPushStatus(resp.StatusCode)
}

// classifyPushStatus maps a push service response code to the gateway
// error taxonomy. 404/410 mean the endpoint is permanently gone.
func classifyPushStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return fmt.Errorf("push service returned %d: %w", code, ErrSubscriptionExpired)
	default:
		return fmt.Errorf("push service returned %d", code)
	}
}
