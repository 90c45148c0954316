package store

import (
	"context"
	"errors"
	"time"

	"github.com/goodbridge/givestack/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Users() Users
	Donations() Donations
	PaymentSessions() PaymentSessions
	PasswordResets() PasswordResets

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped view of the repositories.
type Tx interface {
	Users() Users
	Donations() Donations
	PaymentSessions() PaymentSessions
	PasswordResets() PasswordResets
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and duplicate checks.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id minted by the app via ULID).
	// Returns ErrAlreadyExists if the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, email string, newHash string) error

	// CountUsers returns the total number of registered users.
	CountUsers(ctx context.Context) (int64, error)

	// ListRecentUsers returns the newest registrations first.
	ListRecentUsers(ctx context.Context, limit int) ([]domain.User, error)
}

type Donations interface {
	// CreateDonation inserts a new donation row. This happens before any
	// provider interaction.
	CreateDonation(ctx context.Context, d domain.Donation) error

	// GetDonationByID returns a donation by its internal id.
	GetDonationByID(ctx context.Context, id string) (domain.Donation, error)

	// GetDonationBySessionID looks a donation up by the provider session id,
	// the correlation key used by both reconciliation paths.
	GetDonationBySessionID(ctx context.Context, sessionID string) (domain.Donation, error)

	// SetDonationSessionID records the provider session id after session
	// creation succeeds.
	SetDonationSessionID(ctx context.Context, donationID, sessionID string) error

	// UpdateDonationStatus sets status and updated_at. Callers are expected
	// to apply the write-on-change guard first.
	UpdateDonationStatus(ctx context.Context, donationID string, status domain.DonationStatus, updatedAt time.Time) error

	// ListDonationsByUser returns a user's donations newest-first.
	ListDonationsByUser(ctx context.Context, userID string) ([]domain.Donation, error)

	// ListRecentDonations returns the newest donations joined with the
	// owning user's display name and email.
	ListRecentDonations(ctx context.Context, limit int) ([]DonationWithDonor, error)

	// CountDonations returns the total number of donations.
	CountDonations(ctx context.Context) (int64, error)

	// SumSucceededAmount returns the sum of amounts over donations with
	// status success, as a single aggregate query.
	SumSucceededAmount(ctx context.Context) (float64, error)

	// SumSucceededAmountByUser is the per-user variant; pending and failed
	// donations never count.
	SumSucceededAmountByUser(ctx context.Context, userID string) (float64, error)
}

// DonationWithDonor is the admin-dashboard read-side projection.
type DonationWithDonor struct {
	Donation  domain.Donation
	UserName  string
	UserEmail string
}

type PaymentSessions interface {
	// CreatePaymentSession inserts the audit mirror for a checkout session.
	CreatePaymentSession(ctx context.Context, ps domain.PaymentSession) error

	// GetPaymentSessionBySessionID returns the mirror by provider session id.
	GetPaymentSessionBySessionID(ctx context.Context, sessionID string) (domain.PaymentSession, error)

	// UpdatePaymentSessionStatus records the provider-reported payment
	// status and the local processing state.
	UpdatePaymentSessionStatus(ctx context.Context, sessionID, paymentStatus, status string, updatedAt time.Time) error
}

type PasswordResets interface {
	// CreateOTP inserts a new reset code.
	CreateOTP(ctx context.Context, otp domain.PasswordResetOTP) error

	// GetActiveOTP returns the unused code matching email+code, regardless
	// of expiry; the service checks expiry so it can distinguish the cases.
	GetActiveOTP(ctx context.Context, email, code string) (domain.PasswordResetOTP, error)

	// DeleteOTPsByEmail removes all codes for an email (re-issue semantics).
	DeleteOTPsByEmail(ctx context.Context, email string) error

	// MarkOTPUsed consumes a code after a successful reset.
	MarkOTPUsed(ctx context.Context, id string) error

	// DeleteExpiredOTPs is housekeeping.
	DeleteExpiredOTPs(ctx context.Context, now time.Time) error
}
