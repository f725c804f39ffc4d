package notify

import (
	"context"
	"sync"

	"smarttasker/internal/model"
)

// MockGateway records deliveries instead of sending them. Tests configure
// its subscription state and per-call failures.
type MockGateway struct {
	mu sync.Mutex

	Subscribed bool

	// DeliverErr, when non-nil, is returned by every Deliver call.
	DeliverErr error

	// Delivered accumulates successfully "sent" payloads in call order.
	Delivered []Payload
}

// NewMock creates a mock gateway that reports an active subscription.
func NewMock() *MockGateway {
	return &MockGateway{Subscribed: true}
}

// IsSubscribed returns the configured subscription state.
func (g *MockGateway) IsSubscribed(_ context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Subscribed
}

// Deliver records the payload, or fails with the configured error.
func (g *MockGateway) Deliver(_ context.Context, _ *model.PushSubscriptionRecord, payload Payload) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.DeliverErr != nil {
		return g.DeliverErr
	}
	g.Delivered = append(g.Delivered, payload)
	return nil
}

// SetDeliverErr updates the failure injected into Deliver.
func (g *MockGateway) SetDeliverErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.DeliverErr = err
}

// DeliveredCount returns how many payloads were recorded.
func (g *MockGateway) DeliveredCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Delivered)
}
