package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"serviceconnect/internal/api"
	"serviceconnect/internal/auth"
	"serviceconnect/internal/booking"
	"serviceconnect/internal/db"
	"serviceconnect/internal/logger"
	"serviceconnect/internal/metrics"
	"serviceconnect/internal/notify"
	"serviceconnect/internal/wallet"
)

type Service interface {
	Settle(ctx context.Context, customerID, bookingID int) (*Receipt, error)
	List(ctx context.Context, p auth.Principal, limit, offset int) ([]Payment, error)
}

type service struct {
	db       *sqlx.DB
	repo     Repository
	bookings booking.Repository
	ledger   *wallet.Ledger
	notifier notify.Notifier
}

func NewService(database *sqlx.DB, repo Repository, bookings booking.Repository, ledger *wallet.Ledger, notifier notify.Notifier) Service {
	return &service{
		db:       database,
		repo:     repo,
		bookings: bookings,
		ledger:   ledger,
		notifier: notifier,
	}
}

func newReference() string {
	return "PAY-" + uuid.NewString()
}

// Settle moves the booking amount from the customer to the provider and
// closes the booking. Debit, credit, payment row and status change commit
// together or not at all.
func (s *service) Settle(ctx context.Context, customerID, bookingID int) (*Receipt, error) {
	var (
		b       *booking.Booking
		receipt *Receipt
	)

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		b, err = s.bookings.LockByID(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if err := booking.CheckParty(b, booking.ActionSettle, customerID); err != nil {
			return err
		}
		to, err := booking.Next(booking.ActionSettle, b.Status)
		if err != nil {
			return err
		}
		if !b.Amount.Valid || !b.Amount.Decimal.IsPositive() {
			return api.Errorf(api.ErrValidation, "booking %d has no payable amount", b.ID)
		}
		amount := b.Amount.Decimal

		if _, err := s.ledger.LockWallets(ctx, tx, b.CustomerID, b.ProviderID); err != nil {
			return err
		}

		related := b.ID
		debit, err := s.ledger.Debit(ctx, tx, b.CustomerID, amount, wallet.TxPaymentSent, &related)
		if err != nil {
			return err
		}
		if _, err := s.ledger.Credit(ctx, tx, b.ProviderID, amount, wallet.TxPaymentReceived, &related); err != nil {
			return fmt.Errorf("credit provider %d: %w", b.ProviderID, err)
		}

		p := &Payment{
			BookingID:  b.ID,
			CustomerID: b.CustomerID,
			ProviderID: b.ProviderID,
			Amount:     amount,
			Status:     StatusSucceeded,
			Reference:  newReference(),
		}
		if err := s.repo.Insert(ctx, tx, p); err != nil {
			return err
		}

		ok, err := s.bookings.UpdateStatus(ctx, tx, b.ID, b.Status, to)
		if err != nil {
			return err
		}
		if !ok {
			return api.Errorf(api.ErrInvalidTransition, "booking %d is no longer %s", b.ID, b.Status)
		}
		b.Status = to

		receipt = &Receipt{Payment: p, Balance: debit.BalanceAfter}
		return nil
	})
	if err != nil {
		metrics.RecordSettlement(settleResult(err), 0)
		return nil, err
	}

	amount := receipt.Payment.Amount
	metrics.RecordSettlement(StatusSucceeded, amount.InexactFloat64())
	metrics.RecordWalletMovement(string(wallet.TxPaymentSent))
	metrics.RecordWalletMovement(string(wallet.TxPaymentReceived))
	metrics.RecordBookingTransition(string(booking.ActionSettle), string(b.Status))

	logger.Info("booking settled",
		"booking_id", b.ID,
		"payment_id", receipt.Payment.ID,
		"reference", receipt.Payment.Reference,
		"amount", amount.StringFixed(2),
	)

	s.notifier.Notify(ctx, b.ProviderID, "Payment received",
		fmt.Sprintf("You received %s for booking #%d (ref %s).", amount.StringFixed(2), b.ID, receipt.Payment.Reference))
	return receipt, nil
}

func settleResult(err error) string {
	switch {
	case errors.Is(err, api.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, api.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, api.ErrForbidden), errors.Is(err, api.ErrNotFound), errors.Is(err, api.ErrValidation):
		return "rejected"
	}
	return "failed"
}

func (s *service) List(ctx context.Context, p auth.Principal, limit, offset int) ([]Payment, error) {
	return s.repo.ListForUser(ctx, p.UserID, p.Role == auth.RoleProvider, limit, offset)
}
