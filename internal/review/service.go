package review

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"serviceconnect/internal/api"
	"serviceconnect/internal/booking"
	"serviceconnect/internal/db"
	"serviceconnect/internal/logger"
	"serviceconnect/internal/metrics"
	"serviceconnect/internal/notify"
	"serviceconnect/internal/payment"
)

type Service interface {
	Submit(ctx context.Context, customerID int, req SubmitRequest) (*SubmitResponse, error)
	ListByProvider(ctx context.Context, providerID, limit, offset int) ([]WithAuthor, error)
}

type service struct {
	db       *sqlx.DB
	repo     Repository
	bookings booking.Repository
	payments payment.Repository
	notifier notify.Notifier
}

func NewService(database *sqlx.DB, repo Repository, bookings booking.Repository, payments payment.Repository, notifier notify.Notifier) Service {
	return &service{
		db:       database,
		repo:     repo,
		bookings: bookings,
		payments: payments,
		notifier: notifier,
	}
}

// Submit records the single review a closed and paid booking may receive and
// refreshes the provider rating in the same transaction.
func (s *service) Submit(ctx context.Context, customerID int, req SubmitRequest) (*SubmitResponse, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	if err := api.ValidateStruct(req); err != nil {
		return nil, err
	}
	rating := *req.Rating
	if rating == 0 && req.Comment == "" {
		return nil, api.Errorf(api.ErrValidation, "a comment is required when rating is 0")
	}

	var resp *SubmitResponse
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		b, err := s.bookings.LockByID(ctx, tx, req.BookingID)
		if err != nil {
			return err
		}
		if b.CustomerID != customerID {
			return api.Errorf(api.ErrForbidden, "booking %d does not belong to you", b.ID)
		}
		if b.Status != booking.StatusClosed {
			return api.Errorf(api.ErrNotEligible, "booking %d is %s, reviews open once it is closed", b.ID, b.Status)
		}

		paid, err := s.payments.SucceededForBooking(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		if !paid {
			return api.Errorf(api.ErrNotEligible, "booking %d has no successful payment", b.ID)
		}

		exists, err := s.repo.ExistsForBooking(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		if exists {
			return api.Errorf(api.ErrConflict, "booking %d already has a review", b.ID)
		}

		rv := &Review{
			BookingID:  b.ID,
			CustomerID: customerID,
			ProviderID: b.ProviderID,
			Rating:     rating,
			Comment:    req.Comment,
		}
		if err := s.repo.Insert(ctx, tx, rv); err != nil {
			return err
		}

		agg, err := s.repo.RecomputeProviderRating(ctx, tx, b.ProviderID)
		if err != nil {
			return err
		}

		resp = &SubmitResponse{Review: rv, Provider: agg}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rv := resp.Review
	metrics.RecordReview(strconv.Itoa(rv.Rating))
	logger.Info("review submitted",
		"review_id", rv.ID,
		"booking_id", rv.BookingID,
		"provider_id", rv.ProviderID,
		"rating", rv.Rating,
	)

	body := fmt.Sprintf("You received a new review for booking #%d.", rv.BookingID)
	if rv.Rating > 0 {
		body = fmt.Sprintf("You received a %d star review for booking #%d.", rv.Rating, rv.BookingID)
	}
	s.notifier.Notify(ctx, rv.ProviderID, "New review", body)
	return resp, nil
}

func (s *service) ListByProvider(ctx context.Context, providerID, limit, offset int) ([]WithAuthor, error) {
	return s.repo.ListByProvider(ctx, providerID, limit, offset)
}
