package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goodbridge/givestack/internal/domain"
	"github.com/goodbridge/givestack/internal/store"
	"github.com/goodbridge/givestack/pkg/idx"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func makeUser(email string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Name:         "Someone",
		Email:        email,
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
}

func makeDonation(userID string, amount float64) domain.Donation {
	return domain.Donation{
		ID:        idx.New().String(),
		UserID:    userID,
		Amount:    amount,
		Currency:  "usd",
		Status:    domain.DonationPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	user := makeUser("alice@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, user))

	t.Run("duplicate email maps to ErrAlreadyExists", func(t *testing.T) {
		dup := makeUser("alice@example.com")
		require.ErrorIs(t, st.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("lookup by id and email", func(t *testing.T) {
		byID, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, user.Email, byID.Email)
		require.Equal(t, user.Role, byID.Role)

		byEmail, err := st.Users().GetUserByEmail(ctx, user.Email)
		require.NoError(t, err)
		require.Equal(t, user.ID, byEmail.ID)
	})

	t.Run("missing rows map to ErrNotFound", func(t *testing.T) {
		_, err := st.Users().GetUserByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)

		err = st.Users().UpdatePasswordHash(ctx, "nobody@example.com", "x")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("password update sticks", func(t *testing.T) {
		require.NoError(t, st.Users().UpdatePasswordHash(ctx, user.Email, "new-hash"))
		got, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.PasswordHash)
	})

	t.Run("recent users are newest first", func(t *testing.T) {
		require.NoError(t, st.Users().CreateUser(ctx, makeUser("bob@example.com")))
		require.NoError(t, st.Users().CreateUser(ctx, makeUser("carol@example.com")))

		recent, err := st.Users().ListRecentUsers(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		require.Equal(t, "carol@example.com", recent[0].Email)
		require.Equal(t, "bob@example.com", recent[1].Email)

		count, err := st.Users().CountUsers(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 3, count)
	})
}

func TestDonationsRepo(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	user := makeUser("alice@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, user))

	donation := makeDonation(user.ID, 50)
	require.NoError(t, st.Donations().CreateDonation(ctx, donation))

	t.Run("session id starts empty", func(t *testing.T) {
		got, err := st.Donations().GetDonationByID(ctx, donation.ID)
		require.NoError(t, err)
		require.Nil(t, got.SessionID)
		require.Nil(t, got.UpdatedAt)
	})

	t.Run("session id is set once known", func(t *testing.T) {
		require.NoError(t, st.Donations().SetDonationSessionID(ctx, donation.ID, "cs_test_1"))

		got, err := st.Donations().GetDonationBySessionID(ctx, "cs_test_1")
		require.NoError(t, err)
		require.Equal(t, donation.ID, got.ID)
	})

	t.Run("status update stamps updated_at", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, st.Donations().UpdateDonationStatus(ctx, donation.ID, domain.DonationSuccess, now))

		got, err := st.Donations().GetDonationByID(ctx, donation.ID)
		require.NoError(t, err)
		require.Equal(t, domain.DonationSuccess, got.Status)
		require.NotNil(t, got.UpdatedAt)
		require.WithinDuration(t, now, *got.UpdatedAt, time.Second)
	})

	t.Run("aggregates count only succeeded amounts", func(t *testing.T) {
		second := makeDonation(user.ID, 30)
		require.NoError(t, st.Donations().CreateDonation(ctx, second))

		total, err := st.Donations().SumSucceededAmount(ctx)
		require.NoError(t, err)
		require.InDelta(t, 50, total, 0.001)

		count, err := st.Donations().CountDonations(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 2, count)
	})

	t.Run("recent donations join donor details", func(t *testing.T) {
		recent, err := st.Donations().ListRecentDonations(ctx, 10)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		for _, d := range recent {
			require.Equal(t, "alice@example.com", d.UserEmail)
			require.Equal(t, "Someone", d.UserName)
		}
	})

	t.Run("per-user totals count only that user's successes", func(t *testing.T) {
		bob := makeUser("bob@example.com")
		require.NoError(t, st.Users().CreateUser(ctx, bob))
		paid := makeDonation(bob.ID, 20)
		require.NoError(t, st.Donations().CreateDonation(ctx, paid))
		require.NoError(t, st.Donations().UpdateDonationStatus(ctx, paid.ID, domain.DonationSuccess, time.Now().UTC()))

		aliceTotal, err := st.Donations().SumSucceededAmountByUser(ctx, user.ID)
		require.NoError(t, err)
		require.InDelta(t, 50, aliceTotal, 0.001, "the pending 30 must not count")

		bobTotal, err := st.Donations().SumSucceededAmountByUser(ctx, bob.ID)
		require.NoError(t, err)
		require.InDelta(t, 20, bobTotal, 0.001)
	})

	t.Run("foreign key enforced", func(t *testing.T) {
		orphan := makeDonation(idx.New().String(), 10)
		require.Error(t, st.Donations().CreateDonation(ctx, orphan))
	})
}

func TestPaymentSessionsRepo(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	user := makeUser("alice@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, user))
	donation := makeDonation(user.ID, 50)
	require.NoError(t, st.Donations().CreateDonation(ctx, donation))

	ps := domain.PaymentSession{
		ID:            idx.New().String(),
		DonationID:    donation.ID,
		SessionID:     "cs_test_42",
		UserID:        user.ID,
		Email:         user.Email,
		Amount:        50,
		Currency:      "usd",
		PaymentStatus: "unpaid",
		Status:        domain.PaymentSessionInitiated,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, st.PaymentSessions().CreatePaymentSession(ctx, ps))

	t.Run("duplicate session id rejected", func(t *testing.T) {
		dup := ps
		dup.ID = idx.New().String()
		require.ErrorIs(t, st.PaymentSessions().CreatePaymentSession(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("status update", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, st.PaymentSessions().UpdatePaymentSessionStatus(ctx, "cs_test_42", "paid", "complete", now))

		got, err := st.PaymentSessions().GetPaymentSessionBySessionID(ctx, "cs_test_42")
		require.NoError(t, err)
		require.Equal(t, "paid", got.PaymentStatus)
		require.Equal(t, "complete", got.Status)
		require.NotNil(t, got.UpdatedAt)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	sentinel := errors.New("boom")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, makeUser("alice@example.com")); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	count, err := st.Users().CountUsers(ctx)
	require.NoError(t, err)
	require.Zero(t, count, "failed transactions must leave nothing behind")
}

func TestGetActiveOTPIgnoresUsedCodes(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	otp := domain.PasswordResetOTP{
		ID:        idx.New().String(),
		Email:     "alice@example.com",
		Code:      "654321",
		ExpiresAt: time.Now().UTC().Add(15 * time.Minute),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.PasswordResets().CreateOTP(ctx, otp))

	got, err := st.PasswordResets().GetActiveOTP(ctx, "alice@example.com", "654321")
	require.NoError(t, err)
	require.Equal(t, otp.ID, got.ID)

	require.NoError(t, st.PasswordResets().MarkOTPUsed(ctx, otp.ID))

	_, err = st.PasswordResets().GetActiveOTP(ctx, "alice@example.com", "654321")
	require.ErrorIs(t, err, store.ErrNotFound)
}
