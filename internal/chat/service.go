package chat

import (
	"context"
	"strings"

	"serviceconnect/internal/api"
	"serviceconnect/internal/booking"
	"serviceconnect/internal/logger"
	"serviceconnect/internal/metrics"
)

const (
	defaultPage = 50
	maxPage     = 200
)

// BookingLookup resolves the booking a conversation belongs to.
type BookingLookup interface {
	GetByID(ctx context.Context, id int) (*booking.Details, error)
}

type Service interface {
	Send(ctx context.Context, userID, bookingID int, body string) (*Message, error)
	List(ctx context.Context, userID, bookingID, afterID, limit int) ([]Message, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
}

type service struct {
	repo     Repository
	bookings BookingLookup
}

func NewService(repo Repository, bookings BookingLookup) Service {
	return &service{repo: repo, bookings: bookings}
}

func (s *service) authorize(ctx context.Context, userID, bookingID int) (*booking.Details, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(userID) {
		return nil, api.Errorf(api.ErrForbidden, "you are not part of booking %d", bookingID)
	}
	if !booking.ChatEnabled(b.Status) {
		return nil, api.Errorf(api.ErrNotEligible, "chat is not available while booking is %s", b.Status)
	}
	return b, nil
}

func (s *service) Send(ctx context.Context, userID, bookingID int, body string) (*Message, error) {
	req := SendRequest{Body: strings.TrimSpace(body)}
	if err := api.ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, userID, bookingID); err != nil {
		return nil, err
	}

	m := &Message{BookingID: bookingID, SenderID: userID, Body: req.Body}
	if err := s.repo.Insert(ctx, m); err != nil {
		return nil, err
	}

	metrics.RecordChatMessage()
	return m, nil
}

// List returns messages after afterID and marks the counterpart's messages read.
func (s *service) List(ctx context.Context, userID, bookingID, afterID, limit int) ([]Message, error) {
	if _, err := s.authorize(ctx, userID, bookingID); err != nil {
		return nil, err
	}
	if afterID < 0 {
		afterID = 0
	}
	if limit <= 0 {
		limit = defaultPage
	}
	if limit > maxPage {
		limit = maxPage
	}

	messages, err := s.repo.ListAfter(ctx, bookingID, afterID, limit)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.MarkRead(ctx, bookingID, userID); err != nil {
		logger.WithError(err).Warn("mark chat read failed", "booking_id", bookingID, "user_id", userID)
	}
	return messages, nil
}

func (s *service) UnreadCount(ctx context.Context, userID int) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}
