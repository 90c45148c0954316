// Package mailer sends transactional email. Delivery failures are the
// caller's to handle; the password-reset flow treats them as best effort.
package mailer

import "context"

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}
