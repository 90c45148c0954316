// Package payment abstracts the hosted-checkout provider used to collect
// donations. The service layer depends on the Provider interface so tests
// and local development can swap the real gateway for a fake.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrInvalidSignature is returned when a webhook payload fails
	// signature verification.
	ErrInvalidSignature = errors.New("payment: invalid webhook signature")

	// ErrIgnoredEvent is returned for webhook events the service does not
	// act on, such as events for unrelated object types.
	ErrIgnoredEvent = errors.New("payment: event ignored")
)

// Provider-side status values a checkout session can report.
const (
	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"

	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
)

// CheckoutRequest describes the hosted checkout session to create.
type CheckoutRequest struct {
	Amount     float64
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// CheckoutSession is the provider's handle for a newly created session.
type CheckoutSession struct {
	SessionID string
	URL       string
}

// SessionStatus is the provider's current view of a checkout session.
type SessionStatus struct {
	SessionID     string
	PaymentStatus string
	SessionStatus string
	AmountTotal   float64
	Currency      string
}

// Event is a verified webhook notification about a checkout session.
type Event struct {
	SessionID     string
	PaymentStatus string
	SessionStatus string
}

// Provider is the payment gateway the donation service talks to.
type Provider interface {
	// CreateCheckoutSession opens a hosted checkout session for the
	// requested amount and returns its id and redirect URL.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)

	// GetSessionStatus fetches the provider's current status for a session.
	GetSessionStatus(ctx context.Context, sessionID string) (SessionStatus, error)

	// VerifyWebhook validates the signature on a raw webhook payload and
	// returns the checkout event it carries. Events for object types the
	// service does not track are reported via ErrIgnoredEvent.
	VerifyWebhook(payload []byte, signature string) (Event, error)
}
