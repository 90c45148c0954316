package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goodbridge/givestack/internal/domain"
	"github.com/goodbridge/givestack/internal/mailer"
	"github.com/goodbridge/givestack/internal/store/drivers/sqlite"
	"github.com/goodbridge/givestack/pkg/cryptox"
	"github.com/goodbridge/givestack/pkg/idx"
)

var otpPattern = regexp.MustCompile(`\d{6}`)

func newResetService(t *testing.T) (*PasswordResetService, *sqlite.Store, *mailer.FakeMailer) {
	t.Helper()

	st := newTestStore(t)
	mail := mailer.NewFakeMailer()

	svc := &PasswordResetService{
		Store:  st,
		Mailer: mail,
		OTPTTL: 15 * time.Minute,
	}
	return svc, st, mail
}

func codeFromMail(t *testing.T, mail *mailer.FakeMailer) string {
	t.Helper()

	messages := mail.Messages()
	require.NotEmpty(t, messages)

	code := otpPattern.FindString(messages[len(messages)-1].HTML)
	require.Len(t, code, 6)
	return code
}

func TestRequestReset(t *testing.T) {
	ctx := context.Background()

	t.Run("emails a six digit code to known accounts", func(t *testing.T) {
		svc, st, mail := newResetService(t)
		seedUser(t, st, "alice@example.com", domain.RoleUser)

		require.NoError(t, svc.RequestReset(ctx, "alice@example.com"))

		messages := mail.Messages()
		require.Len(t, messages, 1)
		require.Equal(t, "alice@example.com", messages[0].To)
		require.Regexp(t, otpPattern, messages[0].HTML)
	})

	t.Run("unknown emails succeed silently", func(t *testing.T) {
		svc, _, mail := newResetService(t)

		require.NoError(t, svc.RequestReset(ctx, "ghost@example.com"))
		require.Empty(t, mail.Messages())
	})

	t.Run("a new request invalidates the previous code", func(t *testing.T) {
		svc, st, mail := newResetService(t)
		seedUser(t, st, "alice@example.com", domain.RoleUser)

		require.NoError(t, svc.RequestReset(ctx, "alice@example.com"))
		oldCode := codeFromMail(t, mail)

		require.NoError(t, svc.RequestReset(ctx, "alice@example.com"))
		newCode := codeFromMail(t, mail)

		require.NoError(t, svc.VerifyOTP(ctx, "alice@example.com", newCode))
		if oldCode != newCode {
			require.ErrorIs(t, svc.VerifyOTP(ctx, "alice@example.com", oldCode), ErrInvalidOTP)
		}
	})

	t.Run("mail failure does not fail the request", func(t *testing.T) {
		svc, st, mail := newResetService(t)
		seedUser(t, st, "alice@example.com", domain.RoleUser)
		mail.SendErr = context.DeadlineExceeded

		require.NoError(t, svc.RequestReset(ctx, "alice@example.com"))
	})
}

func TestVerifyOTP(t *testing.T) {
	ctx := context.Background()
	svc, st, mail := newResetService(t)
	seedUser(t, st, "alice@example.com", domain.RoleUser)

	require.NoError(t, svc.RequestReset(ctx, "alice@example.com"))
	code := codeFromMail(t, mail)

	t.Run("valid code", func(t *testing.T) {
		require.NoError(t, svc.VerifyOTP(ctx, "alice@example.com", code))
	})

	t.Run("verification does not consume the code", func(t *testing.T) {
		require.NoError(t, svc.VerifyOTP(ctx, "alice@example.com", code))
	})

	t.Run("wrong code", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		require.ErrorIs(t, svc.VerifyOTP(ctx, "alice@example.com", wrong), ErrInvalidOTP)
	})

	t.Run("expired code", func(t *testing.T) {
		expired := domain.PasswordResetOTP{
			ID:        idx.New().String(),
			Email:     "bob@example.com",
			Code:      "123456",
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
			CreatedAt: time.Now().UTC().Add(-16 * time.Minute),
		}
		require.NoError(t, st.PasswordResets().CreateOTP(ctx, expired))
		require.ErrorIs(t, svc.VerifyOTP(ctx, "bob@example.com", "123456"), ErrInvalidOTP)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	svc, st, mail := newResetService(t)
	user := seedUser(t, st, "alice@example.com", domain.RoleUser)

	require.NoError(t, svc.RequestReset(ctx, "alice@example.com"))
	code := codeFromMail(t, mail)

	require.NoError(t, svc.ResetPassword(ctx, "alice@example.com", code, "brand-new-password"))

	t.Run("new password is live", func(t *testing.T) {
		updated, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.NoError(t, cryptox.VerifyPassword("brand-new-password", updated.PasswordHash))
		require.ErrorIs(t,
			cryptox.VerifyPassword(testPassword, updated.PasswordHash),
			cryptox.ErrPasswordMismatch,
		)
	})

	t.Run("the code is single use", func(t *testing.T) {
		err := svc.ResetPassword(ctx, "alice@example.com", code, "yet-another-password")
		require.ErrorIs(t, err, ErrInvalidOTP)
	})
}

func TestHousekeepingDeletesExpiredCodes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	live := domain.PasswordResetOTP{
		ID:        idx.New().String(),
		Email:     "alice@example.com",
		Code:      "111111",
		ExpiresAt: time.Now().UTC().Add(10 * time.Minute),
		CreatedAt: time.Now().UTC(),
	}
	stale := domain.PasswordResetOTP{
		ID:        idx.New().String(),
		Email:     "bob@example.com",
		Code:      "222222",
		ExpiresAt: time.Now().UTC().Add(-10 * time.Minute),
		CreatedAt: time.Now().UTC().Add(-30 * time.Minute),
	}
	require.NoError(t, st.PasswordResets().CreateOTP(ctx, live))
	require.NoError(t, st.PasswordResets().CreateOTP(ctx, stale))

	require.NoError(t, st.PasswordResets().DeleteExpiredOTPs(ctx, time.Now().UTC()))

	_, err := st.PasswordResets().GetActiveOTP(ctx, "alice@example.com", "111111")
	require.NoError(t, err)

	_, err = st.PasswordResets().GetActiveOTP(ctx, "bob@example.com", "222222")
	require.Error(t, err)
}
