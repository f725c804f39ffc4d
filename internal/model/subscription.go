package model

import "time"

// PushSubscriptionKeys holds the client key material required to encrypt
// a push message for this subscription.
type PushSubscriptionKeys struct {
	P256dh string `json:"p256dh" db:"p256dh"`
	Auth   string `json:"auth" db:"auth"`
}

// PushSubscriptionRecord is the stored push subscription for this install.
// There is at most one; it is deleted on unsubscribe or when the push
// service reports the endpoint gone (410).
type PushSubscriptionRecord struct {
	Endpoint string               `json:"endpoint"`
	Keys     PushSubscriptionKeys `json:"keys"`

	// ExpirationTime is nil when the push service sets no expiry.
	ExpirationTime *time.Time `json:"expiration_time,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
