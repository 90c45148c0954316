package domain

import "time"

// PasswordResetOTP is a single-use emailed code. Issuing a new code for an
// email removes any earlier ones, so at most one row per email is active.
type PasswordResetOTP struct {
	ID        string
	Email     string
	Code      string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Usable reports whether the code can still be redeemed at the given time.
func (o PasswordResetOTP) Usable(now time.Time) bool {
	return !o.Used && now.Before(o.ExpiresAt)
}
