package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"serviceconnect/internal/api"
	"serviceconnect/internal/auth"
	"serviceconnect/internal/catalog"
	"serviceconnect/internal/db"
	"serviceconnect/internal/logger"
	"serviceconnect/internal/metrics"
	"serviceconnect/internal/notify"
)

type Service interface {
	Create(ctx context.Context, customerID int, req CreateRequest) (*Booking, error)
	Quote(ctx context.Context, providerID, bookingID int, amount decimal.Decimal) (*Booking, error)
	Reject(ctx context.Context, providerID, bookingID int) (*Booking, error)
	Confirm(ctx context.Context, customerID, bookingID int, accepted bool) (*Booking, error)
	Complete(ctx context.Context, providerID, bookingID int) (*Booking, error)
	UpdateStatus(ctx context.Context, providerID, bookingID int, req UpdateStatusRequest) (*Booking, error)
	Get(ctx context.Context, p auth.Principal, bookingID int) (*Details, error)
	List(ctx context.Context, p auth.Principal, status string, limit, offset int) ([]Details, error)
	Stats(ctx context.Context, from, to time.Time) ([]DayStats, error)
}

type service struct {
	db       *sqlx.DB
	repo     Repository
	catalog  catalog.Repository
	notifier notify.Notifier
}

func NewService(database *sqlx.DB, repo Repository, catalogRepo catalog.Repository, notifier notify.Notifier) Service {
	return &service{
		db:       database,
		repo:     repo,
		catalog:  catalogRepo,
		notifier: notifier,
	}
}

func (s *service) Create(ctx context.Context, customerID int, req CreateRequest) (*Booking, error) {
	req.Address = strings.TrimSpace(req.Address)
	if err := api.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.ProviderID == customerID {
		return nil, api.Errorf(api.ErrValidation, "cannot book yourself")
	}
	if req.ScheduledAt.Before(time.Now()) {
		return nil, api.Errorf(api.ErrValidation, "scheduled_at must be in the future")
	}

	isProvider, err := s.repo.IsProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if !isProvider {
		return nil, api.Errorf(api.ErrNotFound, "provider %d not found", req.ProviderID)
	}
	if _, err := s.catalog.GetService(ctx, req.ServiceID); err != nil {
		return nil, err
	}

	b := &Booking{
		CustomerID:         customerID,
		ProviderID:         req.ProviderID,
		ServiceID:          req.ServiceID,
		ScheduledAt:        req.ScheduledAt,
		Address:            req.Address,
		ServiceDescription: req.ServiceDescription,
		CustomerNotes:      req.CustomerNotes,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	metrics.RecordBookingTransition("create", string(b.Status))
	s.notifier.Notify(ctx, b.ProviderID, "New booking request",
		fmt.Sprintf("You have a new booking request #%d scheduled for %s.", b.ID, b.ScheduledAt.Format(time.RFC1123)))
	return b, nil
}

// transition runs one state machine step under a row lock. apply performs the
// conditional update and reports whether a row changed.
func (s *service) transition(ctx context.Context, actorID, bookingID int, action Action,
	apply func(tx *sqlx.Tx, b *Booking) (bool, error)) (*Booking, error) {

	var updated *Booking
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		b, err := s.repo.LockByID(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if err := CheckParty(b, action, actorID); err != nil {
			return err
		}

		to, err := Next(action, b.Status)
		if err != nil {
			return err
		}

		ok, err := apply(tx, b)
		if err != nil {
			return err
		}
		if !ok {
			return api.Errorf(api.ErrInvalidTransition, "booking %d is no longer %s", b.ID, b.Status)
		}

		b.Status = to
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBookingTransition(string(action), string(updated.Status))
	logger.Info("booking transition",
		"booking_id", updated.ID,
		"action", string(action),
		"status", string(updated.Status),
		"actor_id", actorID,
	)
	s.notifyCounterparty(ctx, updated, action)
	return updated, nil
}

func (s *service) moveTo(ctx context.Context, actorID, bookingID int, action Action) (*Booking, error) {
	return s.transition(ctx, actorID, bookingID, action, func(tx *sqlx.Tx, b *Booking) (bool, error) {
		to, _ := Next(action, b.Status)
		return s.repo.UpdateStatus(ctx, tx, b.ID, b.Status, to)
	})
}

func (s *service) Quote(ctx context.Context, providerID, bookingID int, amount decimal.Decimal) (*Booking, error) {
	if err := api.ValidateAmount(amount); err != nil {
		return nil, err
	}

	return s.transition(ctx, providerID, bookingID, ActionQuote, func(tx *sqlx.Tx, b *Booking) (bool, error) {
		if b.Amount.Valid {
			return false, nil
		}
		ok, err := s.repo.SetQuote(ctx, tx, b.ID, amount)
		if ok {
			b.Amount = decimal.NewNullDecimal(amount)
		}
		return ok, err
	})
}

func (s *service) Reject(ctx context.Context, providerID, bookingID int) (*Booking, error) {
	return s.moveTo(ctx, providerID, bookingID, ActionReject)
}

func (s *service) Confirm(ctx context.Context, customerID, bookingID int, accepted bool) (*Booking, error) {
	if accepted {
		return s.moveTo(ctx, customerID, bookingID, ActionConfirm)
	}
	return s.moveTo(ctx, customerID, bookingID, ActionDecline)
}

func (s *service) Complete(ctx context.Context, providerID, bookingID int) (*Booking, error) {
	return s.moveTo(ctx, providerID, bookingID, ActionComplete)
}

func (s *service) UpdateStatus(ctx context.Context, providerID, bookingID int, req UpdateStatusRequest) (*Booking, error) {
	if err := api.ValidateStruct(req); err != nil {
		return nil, err
	}

	switch Status(req.Status) {
	case StatusAccepted:
		if req.Amount == nil {
			return nil, api.Errorf(api.ErrValidation, "amount is required to accept a booking")
		}
		return s.Quote(ctx, providerID, bookingID, *req.Amount)
	case StatusRejected:
		return s.Reject(ctx, providerID, bookingID)
	default:
		return s.Complete(ctx, providerID, bookingID)
	}
}

func (s *service) notifyCounterparty(ctx context.Context, b *Booking, action Action) {
	switch action {
	case ActionQuote:
		s.notifier.Notify(ctx, b.CustomerID, "Price quoted",
			fmt.Sprintf("Your booking #%d was quoted at %s. Please confirm or decline the price.", b.ID, b.Amount.Decimal.StringFixed(2)))
	case ActionReject:
		s.notifier.Notify(ctx, b.CustomerID, "Booking declined",
			fmt.Sprintf("The provider declined booking #%d.", b.ID))
	case ActionConfirm:
		s.notifier.Notify(ctx, b.ProviderID, "Quote accepted",
			fmt.Sprintf("The customer accepted your quote for booking #%d.", b.ID))
	case ActionDecline:
		s.notifier.Notify(ctx, b.ProviderID, "Quote declined",
			fmt.Sprintf("The customer declined your quote for booking #%d.", b.ID))
	case ActionComplete:
		s.notifier.Notify(ctx, b.CustomerID, "Service completed",
			fmt.Sprintf("Booking #%d was marked completed. You can now pay %s from your wallet.", b.ID, b.Amount.Decimal.StringFixed(2)))
	}
}

func (s *service) Get(ctx context.Context, p auth.Principal, bookingID int) (*Details, error) {
	d, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if p.Role != auth.RoleAdmin && !d.IsParty(p.UserID) {
		return nil, api.Errorf(api.ErrNotFound, "booking %d not found", bookingID)
	}
	return d, nil
}

func (s *service) List(ctx context.Context, p auth.Principal, status string, limit, offset int) ([]Details, error) {
	f := ListFilter{Status: Status(status), Limit: limit, Offset: offset}
	if status != "" && !f.Status.Valid() {
		return nil, api.Errorf(api.ErrValidation, "unknown status %q", status)
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	switch p.Role {
	case auth.RoleCustomer:
		f.CustomerID = p.UserID
	case auth.RoleProvider:
		f.ProviderID = p.UserID
	}
	return s.repo.List(ctx, f)
}

func (s *service) Stats(ctx context.Context, from, to time.Time) ([]DayStats, error) {
	if !from.Before(to) {
		return nil, api.Errorf(api.ErrValidation, "from must be before to")
	}
	return s.repo.StatsByDay(ctx, from, to)
}
