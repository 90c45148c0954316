package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// FakeProvider is an in-memory Provider for tests and local development.
// Sessions are created open/unpaid and can be advanced with MarkPaid or
// MarkExpired. Webhook payloads are plain JSON events signed with a shared
// static signature.
type FakeProvider struct {
	mu       sync.Mutex
	seq      int
	sessions map[string]SessionStatus
	lastReq  CheckoutRequest

	// CreateErr and StatusErr, when set, are returned by the corresponding
	// calls to simulate provider outages.
	CreateErr error
	StatusErr error

	// Signature is the only webhook signature VerifyWebhook accepts.
	Signature string
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		sessions:  make(map[string]SessionStatus),
		Signature: "fake-signature",
	}
}

func (p *FakeProvider) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.CreateErr != nil {
		return CheckoutSession{}, p.CreateErr
	}

	p.lastReq = req
	p.seq++
	id := fmt.Sprintf("cs_test_%04d", p.seq)
	p.sessions[id] = SessionStatus{
		SessionID:     id,
		PaymentStatus: PaymentStatusUnpaid,
		SessionStatus: SessionStatusOpen,
		AmountTotal:   req.Amount,
		Currency:      req.Currency,
	}
	return CheckoutSession{SessionID: id, URL: "https://checkout.example.com/" + id}, nil
}

func (p *FakeProvider) GetSessionStatus(_ context.Context, sessionID string) (SessionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.StatusErr != nil {
		return SessionStatus{}, p.StatusErr
	}
	status, ok := p.sessions[sessionID]
	if !ok {
		return SessionStatus{}, fmt.Errorf("unknown session %s", sessionID)
	}
	return status, nil
}

func (p *FakeProvider) VerifyWebhook(payload []byte, signature string) (Event, error) {
	if signature != p.Signature {
		return Event{}, ErrInvalidSignature
	}
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if event.SessionID == "" {
		return Event{}, ErrIgnoredEvent
	}
	return event, nil
}

// LastRequest returns the most recent checkout request, for assertions.
func (p *FakeProvider) LastRequest() CheckoutRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastReq
}

// MarkPaid flips a session to paid/complete.
func (p *FakeProvider) MarkPaid(sessionID string) {
	p.setStatus(sessionID, PaymentStatusPaid, SessionStatusComplete)
}

// MarkExpired flips a session to expired.
func (p *FakeProvider) MarkExpired(sessionID string) {
	p.setStatus(sessionID, PaymentStatusUnpaid, SessionStatusExpired)
}

func (p *FakeProvider) setStatus(sessionID, paymentStatus, sessionStatus string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := p.sessions[sessionID]
	status.SessionID = sessionID
	status.PaymentStatus = paymentStatus
	status.SessionStatus = sessionStatus
	p.sessions[sessionID] = status
}

// EventPayload builds a signed webhook body for the session's current state.
func (p *FakeProvider) EventPayload(sessionID string) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := p.sessions[sessionID]
	body, _ := json.Marshal(Event{
		SessionID:     sessionID,
		PaymentStatus: status.PaymentStatus,
		SessionStatus: status.SessionStatus,
	})
	return body
}
