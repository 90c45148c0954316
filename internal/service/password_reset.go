package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goodbridge/givestack/internal/domain"
	"github.com/goodbridge/givestack/internal/mailer"
	"github.com/goodbridge/givestack/internal/store"
	"github.com/goodbridge/givestack/pkg/cryptox"
	"github.com/goodbridge/givestack/pkg/idx"
	"github.com/goodbridge/givestack/pkg/slogx"
)

var ErrInvalidOTP = errors.New("invalid or expired code")

// DefaultOTPTTL is how long a password-reset code stays valid.
const DefaultOTPTTL = 15 * time.Minute

type PasswordResetService struct {
	Store  store.Store
	Mailer mailer.Mailer
	OTPTTL time.Duration
}

// RequestReset issues a one-time code for the email and mails it out. The
// call succeeds whether or not the email belongs to an account, so it leaks
// nothing about who is registered. Any previous codes for the email are
// invalidated first; only the newest one can ever be redeemed.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	code, err := cryptox.GenerateOTP()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	otp := domain.PasswordResetOTP{
		ID:        idx.New().String(),
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(s.otpTTL()),
		CreatedAt: now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.PasswordResets().DeleteOTPsByEmail(ctx, email); err != nil {
			return err
		}
		return tx.PasswordResets().CreateOTP(ctx, otp)
	})
	if err != nil {
		return err
	}

	// Email delivery is best effort. The code is in the store either way,
	// and failing the request here would leak whether the account exists.
	subject := "Your password reset code"
	body := fmt.Sprintf(
		"<p>Your password reset code is <strong>%s</strong>.</p>"+
			"<p>It expires in %d minutes. If you did not request this, ignore this email.</p>",
		code, int(s.otpTTL().Minutes()),
	)
	if err := s.Mailer.Send(ctx, email, subject, body); err != nil {
		l.Error("password reset email failed", slog.String("error", err.Error()))
	}

	l.Info("password reset requested")
	return nil
}

// VerifyOTP checks that a code is live for the email without consuming it.
func (s *PasswordResetService) VerifyOTP(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	otp, err := s.Store.PasswordResets().GetActiveOTP(ctx, email, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	if !otp.Usable(time.Now().UTC()) {
		return ErrInvalidOTP
	}
	return nil
}

// ResetPassword redeems a code and sets the new password. The code is marked
// used in the same transaction as the password write, so it cannot be
// redeemed twice.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	l := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	otp, err := s.Store.PasswordResets().GetActiveOTP(ctx, email, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	if !otp.Usable(time.Now().UTC()) {
		return ErrInvalidOTP
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, email, hash); err != nil {
			return err
		}
		return tx.PasswordResets().MarkOTPUsed(ctx, otp.ID)
	})
	if err != nil {
		return err
	}

	l.Info("password reset completed")
	return nil
}

func (s *PasswordResetService) otpTTL() time.Duration {
	if s.OTPTTL > 0 {
		return s.OTPTTL
	}
	return DefaultOTPTTL
}
