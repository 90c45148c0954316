package domain

import "time"

// DonationStatus is the local lifecycle state of a donation. Pending is the
// only non-terminal state; success and failed are never left once entered.
type DonationStatus string

const (
	DonationPending DonationStatus = "pending"
	DonationSuccess DonationStatus = "success"
	DonationFailed  DonationStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s DonationStatus) Terminal() bool {
	return s == DonationSuccess || s == DonationFailed
}

// Currencies accepted for donations.
const (
	CurrencyINR = "inr"
	CurrencyUSD = "usd"
	CurrencyEUR = "eur"
	CurrencyGBP = "gbp"
	CurrencyCAD = "cad"
	CurrencyAUD = "aud"
	CurrencyJPY = "jpy"
)

// ValidCurrency reports whether code is one of the accepted currencies.
func ValidCurrency(code string) bool {
	switch code {
	case CurrencyINR, CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyCAD, CurrencyAUD, CurrencyJPY:
		return true
	}
	return false
}

// Donation records one payment attempt. The row is written before any
// provider interaction and is never deleted; failures only flip the status.
type Donation struct {
	ID        string
	UserID    string
	Amount    float64
	Currency  string
	SessionID *string // provider checkout session id, nil until session creation succeeds
	Status    DonationStatus
	CreatedAt time.Time
	UpdatedAt *time.Time // nil until the first status transition
}
