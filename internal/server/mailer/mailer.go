// Package mailer delivers transactional email: one-time login codes and
// courtesy notifications. Login-code delivery failures must surface to the
// caller (a code the user never receives is useless); notification failures
// are the caller's choice to swallow.
package mailer

import "context"

// Mailer sends a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
