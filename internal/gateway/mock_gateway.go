package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// alphanumericChars for generating Stripe-compatible IDs
const alphanumericChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomAlphanumeric generates a random alphanumeric string of given length
func randomAlphanumeric(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumericChars[rand.Intn(len(alphanumericChars))]
	}
	return string(b)
}

// MockGateway implements CheckoutGateway for testing and load testing.
// Sessions are kept in memory so tests can look them up by ID.
type MockGateway struct {
	sessions sync.Map // session ID -> *CheckoutSessionRequest

	// FailNext makes the next CreateSession call fail, for testing
	// the compensating release path.
	FailNext bool

	mu sync.Mutex
}

// NewMockGateway creates a new mock gateway
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// CreateSession records the request and returns a fake hosted session
func (g *MockGateway) CreateSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSessionResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("checkout session request is required")
	}

	g.mu.Lock()
	fail := g.FailNext
	g.FailNext = false
	g.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("mock gateway: session creation failed")
	}

	sessionID := fmt.Sprintf("cs_test_%s", randomAlphanumeric(24))
	g.sessions.Store(sessionID, req)

	return &CheckoutSessionResponse{
		SessionID: sessionID,
		URL:       fmt.Sprintf("https://checkout.stripe.com/c/pay/%s", sessionID),
	}, nil
}

// Session returns the recorded request for a session ID
func (g *MockGateway) Session(sessionID string) (*CheckoutSessionRequest, bool) {
	v, ok := g.sessions.Load(sessionID)
	if !ok {
		return nil, false
	}
	return v.(*CheckoutSessionRequest), true
}

// Name returns the gateway name
func (g *MockGateway) Name() string {
	return "mock"
}

var _ CheckoutGateway = (*MockGateway)(nil)
