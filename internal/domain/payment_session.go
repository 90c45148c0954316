package domain

import "time"

// PaymentSession mirrors the provider's view of a checkout attempt,
// independently of the donation's local status. It exists for audit and
// debugging; nothing is derived from it.
type PaymentSession struct {
	ID            string
	DonationID    string
	SessionID     string
	UserID        string
	Email         string
	Amount        float64
	Currency      string
	PaymentStatus string // provider-reported payment status, verbatim
	Status        string // local processing state: initiated, then the donation status
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// PaymentSessionInitiated is the mirror state before any provider status has
// been observed.
const PaymentSessionInitiated = "initiated"
