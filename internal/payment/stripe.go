package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeProvider implements Provider on top of Stripe hosted checkout.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	productName   string
}

// NewStripeProvider builds a provider using the given secret API key and
// webhook signing secret.
func NewStripeProvider(apiKey, webhookSecret string) *StripeProvider {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeProvider{
		api:           api,
		webhookSecret: webhookSecret,
		productName:   "Donation",
	}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(toMinorUnits(req.Amount)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(p.productName),
				},
			},
		}},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) GetSessionStatus(ctx context.Context, sessionID string) (SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return SessionStatus{}, fmt.Errorf("get checkout session %s: %w", sessionID, err)
	}
	return SessionStatus{
		SessionID:     sess.ID,
		PaymentStatus: string(sess.PaymentStatus),
		SessionStatus: string(sess.Status),
		AmountTotal:   fromMinorUnits(sess.AmountTotal),
		Currency:      string(sess.Currency),
	}, nil
}

func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	// Only checkout session events carry a session we track.
	if !strings.HasPrefix(string(event.Type), "checkout.session.") {
		return Event{}, ErrIgnoredEvent
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return Event{}, fmt.Errorf("decode checkout session event: %w", err)
	}
	return Event{
		SessionID:     sess.ID,
		PaymentStatus: string(sess.PaymentStatus),
		SessionStatus: string(sess.Status),
	}, nil
}

// Stripe amounts are integers in the currency's minor unit.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
