// Package notify sends best-effort messages to marketplace users. Failures
// are logged and never returned to the caller.
package notify

import (
	"context"
	"fmt"

	"serviceconnect/internal/logger"
)

type Contact struct {
	Name  string `db:"name"`
	Email string `db:"email"`
}

type ContactLookup interface {
	GetContact(ctx context.Context, userID int) (*Contact, error)
}

type Mailer interface {
	Send(ctx context.Context, to, name, subject, body string) error
}

type Notifier interface {
	Notify(ctx context.Context, userID int, subject, body string)
}

type Dispatcher struct {
	contacts ContactLookup
	mailer   Mailer
}

func NewDispatcher(contacts ContactLookup, mailer Mailer) *Dispatcher {
	return &Dispatcher{contacts: contacts, mailer: mailer}
}

func (d *Dispatcher) Notify(ctx context.Context, userID int, subject, body string) {
	contact, err := d.contacts.GetContact(ctx, userID)
	if err != nil {
		logger.WithError(err).Warn("notification skipped", "user_id", userID, "subject", subject)
		return
	}

	text := fmt.Sprintf("Hi %s,\n\n%s\n\n- ServiceConnect", contact.Name, body)
	if err := d.mailer.Send(ctx, contact.Email, contact.Name, subject, text); err != nil {
		logger.WithError(err).Warn("notification not queued", "user_id", userID, "subject", subject)
	}
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(context.Context, int, string, string) {}
