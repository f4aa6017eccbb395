package booking

import (
	"serviceconnect/internal/api"
)

type Status string

const (
	StatusPendingProvider      Status = "pending_provider"
	StatusAwaitingConfirmation Status = "awaiting_customer_confirmation"
	StatusAccepted             Status = "accepted"
	StatusCompleted            Status = "completed"
	StatusClosed               Status = "closed"
	StatusRejected             Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPendingProvider, StatusAwaitingConfirmation, StatusAccepted,
		StatusCompleted, StatusClosed, StatusRejected:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusRejected
}

// ChatEnabled reports whether the parties may message each other.
func ChatEnabled(s Status) bool {
	return s == StatusAccepted || s == StatusCompleted || s == StatusClosed
}

type Action string

const (
	ActionQuote    Action = "quote"
	ActionReject   Action = "reject"
	ActionConfirm  Action = "confirm"
	ActionDecline  Action = "decline"
	ActionComplete Action = "complete"
	ActionSettle   Action = "settle"
)

type Actor string

const (
	ActorProvider Actor = "provider"
	ActorCustomer Actor = "customer"
)

type rule struct {
	from  Status
	actor Actor
	to    Status
}

var rules = map[Action]rule{
	ActionQuote:    {from: StatusPendingProvider, actor: ActorProvider, to: StatusAwaitingConfirmation},
	ActionReject:   {from: StatusPendingProvider, actor: ActorProvider, to: StatusRejected},
	ActionConfirm:  {from: StatusAwaitingConfirmation, actor: ActorCustomer, to: StatusAccepted},
	ActionDecline:  {from: StatusAwaitingConfirmation, actor: ActorCustomer, to: StatusRejected},
	ActionComplete: {from: StatusAccepted, actor: ActorProvider, to: StatusCompleted},
	ActionSettle:   {from: StatusCompleted, actor: ActorCustomer, to: StatusClosed},
}

// Next returns the status action leads to from the current status.
func Next(action Action, from Status) (Status, error) {
	r, ok := rules[action]
	if !ok {
		return "", api.Errorf(api.ErrValidation, "unknown action %q", action)
	}
	if from.Terminal() {
		return "", api.Errorf(api.ErrInvalidTransition, "booking is already %s", from)
	}
	if r.from != from {
		return "", api.Errorf(api.ErrInvalidTransition, "cannot %s a booking in status %s", action, from)
	}
	return r.to, nil
}

// Expected returns the status an action must start from.
func Expected(action Action) Status {
	return rules[action].from
}

// ActorFor returns which party of the booking may perform action.
func ActorFor(action Action) Actor {
	return rules[action].actor
}

// CheckParty verifies that userID is the booking party allowed to perform action.
func CheckParty(b *Booking, action Action, userID int) error {
	switch ActorFor(action) {
	case ActorProvider:
		if b.ProviderID != userID {
			return api.Errorf(api.ErrForbidden, "booking %d is not assigned to you", b.ID)
		}
	case ActorCustomer:
		if b.CustomerID != userID {
			return api.Errorf(api.ErrForbidden, "booking %d does not belong to you", b.ID)
		}
	}
	return nil
}

// IsParty reports whether userID is the customer or provider of b.
func (b *Booking) IsParty(userID int) bool {
	return b.CustomerID == userID || b.ProviderID == userID
}

// Counterparty returns the other party of b.
func (b *Booking) Counterparty(userID int) int {
	if b.CustomerID == userID {
		return b.ProviderID
	}
	return b.CustomerID
}
