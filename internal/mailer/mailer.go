package mailer

import "context"

// Mailer delivers one rendered email. Implementations report failure via
// the returned error; the broadcast pipeline owns retries.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}
