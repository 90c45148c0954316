package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/goodbridge/givestack/internal/domain"
	"github.com/goodbridge/givestack/internal/payment"
	"github.com/goodbridge/givestack/internal/store"
	"github.com/goodbridge/givestack/pkg/idx"
	"github.com/goodbridge/givestack/pkg/slogx"
)

var (
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidCurrency  = errors.New("unsupported currency")
	ErrInvalidOrigin    = errors.New("invalid origin url")
	ErrDonationNotFound = errors.New("donation not found")
	ErrPaymentProvider  = errors.New("payment provider unavailable")
	ErrInvalidWebhook   = errors.New("invalid webhook payload")
)

// DefaultProviderTimeout bounds every outbound call to the payment gateway.
const DefaultProviderTimeout = 10 * time.Second

type DonationService struct {
	Store    store.Store
	Provider payment.Provider

	ProviderTimeout time.Duration
}

// VerifyResult is the outcome of reconciling a donation against the
// provider. Degraded means the provider could not be reached; the donation
// then carries the last known status and PaymentStatus is "unknown".
type VerifyResult struct {
	Donation      domain.Donation
	PaymentStatus string
	Degraded      bool
	Message       string
}

// PaymentStatusUnknown is reported when the provider cannot be reached.
const PaymentStatusUnknown = "unknown"

// returnURLs derives the provider redirect targets from the client's origin,
// so donors land back on the site they started from.
func returnURLs(originURL string) (successURL, cancelURL string, err error) {
	origin, err := url.Parse(strings.TrimRight(originURL, "/"))
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return "", "", ErrInvalidOrigin
	}
	base := origin.String()
	return base + "/donation-success?session_id={CHECKOUT_SESSION_ID}", base + "/user-dashboard", nil
}

// Initiate records a pending donation and opens a hosted checkout session
// for it. The donation row is written before the provider is called so a
// crash mid-flight leaves an auditable pending record instead of silence.
func (s *DonationService) Initiate(ctx context.Context, userID string, amount float64, currency, originURL string) (domain.Donation, string, error) {
	l := slogx.FromContext(ctx)

	if amount <= 0 {
		return domain.Donation{}, "", ErrInvalidAmount
	}
	if !domain.ValidCurrency(currency) {
		return domain.Donation{}, "", ErrInvalidCurrency
	}
	successURL, cancelURL, err := returnURLs(originURL)
	if err != nil {
		return domain.Donation{}, "", err
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.Donation{}, "", err
	}

	now := time.Now().UTC()
	donation := domain.Donation{
		ID:        idx.New().String(),
		UserID:    user.ID,
		Amount:    amount,
		Currency:  currency,
		Status:    domain.DonationPending,
		CreatedAt: now,
	}
	if err := s.Store.Donations().CreateDonation(ctx, donation); err != nil {
		return domain.Donation{}, "", err
	}

	pctx, cancel := context.WithTimeout(ctx, s.providerTimeout())
	defer cancel()

	session, err := s.Provider.CreateCheckoutSession(pctx, payment.CheckoutRequest{
		Amount:     amount,
		Currency:   currency,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Metadata: map[string]string{
			"donation_id": donation.ID,
			"user_id":     user.ID,
		},
	})
	if err != nil {
		l.Error("checkout session creation failed",
			slog.String("donation_id", donation.ID),
			slog.String("error", err.Error()),
		)
		failedAt := time.Now().UTC()
		if uerr := s.Store.Donations().UpdateDonationStatus(ctx, donation.ID, domain.DonationFailed, failedAt); uerr != nil {
			l.Error("failed to mark donation failed", slog.String("donation_id", donation.ID), slog.String("error", uerr.Error()))
		}
		return domain.Donation{}, "", ErrPaymentProvider
	}

	if err := s.Store.Donations().SetDonationSessionID(ctx, donation.ID, session.SessionID); err != nil {
		return domain.Donation{}, "", err
	}
	donation.SessionID = &session.SessionID

	ps := domain.PaymentSession{
		ID:            idx.New().String(),
		DonationID:    donation.ID,
		SessionID:     session.SessionID,
		UserID:        user.ID,
		Email:         user.Email,
		Amount:        amount,
		Currency:      currency,
		PaymentStatus: payment.PaymentStatusUnpaid,
		Status:        domain.PaymentSessionInitiated,
		CreatedAt:     now,
	}
	if err := s.Store.PaymentSessions().CreatePaymentSession(ctx, ps); err != nil {
		return domain.Donation{}, "", err
	}

	l.Info("donation initiated",
		slog.String("donation_id", donation.ID),
		slog.String("session_id", session.SessionID),
		slog.Float64("amount", amount),
		slog.String("currency", currency),
	)
	return donation, session.URL, nil
}

// Verify polls the provider for a session's current state and reconciles
// the stored donation with it. When the provider cannot be reached the last
// known status is returned with Degraded set rather than failing the call.
func (s *DonationService) Verify(ctx context.Context, sessionID string) (VerifyResult, error) {
	l := slogx.FromContext(ctx)

	donation, err := s.Store.Donations().GetDonationBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return VerifyResult{}, ErrDonationNotFound
		}
		return VerifyResult{}, err
	}

	// Terminal states never change again, so skip the provider round trip.
	if donation.Status.Terminal() {
		return VerifyResult{Donation: donation}, nil
	}

	pctx, cancel := context.WithTimeout(ctx, s.providerTimeout())
	defer cancel()

	status, err := s.Provider.GetSessionStatus(pctx, sessionID)
	if err != nil {
		l.Warn("provider status check failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return VerifyResult{
			Donation:      donation,
			PaymentStatus: PaymentStatusUnknown,
			Degraded:      true,
			Message:       "unable to verify with payment provider",
		}, nil
	}

	donation, err = s.reconcile(ctx, donation, status.PaymentStatus, status.SessionStatus)
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Donation: donation, PaymentStatus: status.PaymentStatus}, nil
}

// HandleProviderEvent applies a webhook notification. Signature failures are
// rejected; events for sessions we never opened are acknowledged without
// effect so the provider stops retrying them.
func (s *DonationService) HandleProviderEvent(ctx context.Context, payload []byte, signature string) error {
	l := slogx.FromContext(ctx)

	event, err := s.Provider.VerifyWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrIgnoredEvent) {
			return nil
		}
		l.Warn("webhook rejected", slog.String("error", err.Error()))
		return ErrInvalidWebhook
	}

	donation, err := s.Store.Donations().GetDonationBySessionID(ctx, event.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("webhook for unknown session", slog.String("session_id", event.SessionID))
			return nil
		}
		return err
	}

	_, err = s.reconcile(ctx, donation, event.PaymentStatus, event.SessionStatus)
	return err
}

// nextStatus maps the provider's view of a session onto a donation status.
// An expired session overrides a paid flag: the provider can report both
// during the expiry window and expiry is the authoritative one.
func nextStatus(paymentStatus, sessionStatus string) domain.DonationStatus {
	status := domain.DonationPending
	if paymentStatus == payment.PaymentStatusPaid {
		status = domain.DonationSuccess
	}
	if sessionStatus == payment.SessionStatusExpired {
		status = domain.DonationFailed
	}
	return status
}

// reconcile applies the provider-reported state to the donation and its
// payment-session mirror. Writes happen only on an actual change, and
// terminal donations are never rewritten, which makes event re-delivery and
// concurrent poll/webhook triggers idempotent.
func (s *DonationService) reconcile(ctx context.Context, donation domain.Donation, paymentStatus, sessionStatus string) (domain.Donation, error) {
	l := slogx.FromContext(ctx)

	next := nextStatus(paymentStatus, sessionStatus)
	if donation.Status.Terminal() || next == donation.Status {
		return donation, nil
	}

	now := time.Now().UTC()
	if err := s.Store.Donations().UpdateDonationStatus(ctx, donation.ID, next, now); err != nil {
		return domain.Donation{}, err
	}

	// The mirror keeps the provider's payment status verbatim but tracks the
	// donation's new status as its own, matching how it was created.
	if donation.SessionID != nil {
		err := s.Store.PaymentSessions().UpdatePaymentSessionStatus(ctx, *donation.SessionID, paymentStatus, string(next), now)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			l.Error("payment session mirror update failed",
				slog.String("session_id", *donation.SessionID),
				slog.String("error", err.Error()),
			)
		}
	}

	l.Info("donation status changed",
		slog.String("donation_id", donation.ID),
		slog.String("from", string(donation.Status)),
		slog.String("to", string(next)),
	)

	donation.Status = next
	donation.UpdatedAt = &now
	return donation, nil
}

func (s *DonationService) providerTimeout() time.Duration {
	if s.ProviderTimeout > 0 {
		return s.ProviderTimeout
	}
	return DefaultProviderTimeout
}
