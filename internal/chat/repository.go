package chat

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, m *Message) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO chat_messages (booking_id, sender_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, m.BookingID, m.SenderID, m.Body).Scan(&m.ID, &m.CreatedAt)
}

// ListAfter returns messages with an id greater than afterID, oldest first.
func (r *repository) ListAfter(ctx context.Context, bookingID, afterID, limit int) ([]Message, error) {
	messages := []Message{}
	err := r.db.SelectContext(ctx, &messages, `
		SELECT id, booking_id, sender_id, body, read_at, created_at
		FROM chat_messages
		WHERE booking_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`, bookingID, afterID, limit)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead stamps every unread message the other party sent in the booking.
func (r *repository) MarkRead(ctx context.Context, bookingID, readerID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE chat_messages
		SET read_at = NOW()
		WHERE booking_id = $1 AND sender_id <> $2 AND read_at IS NULL
	`, bookingID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) UnreadCount(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*)
		FROM chat_messages m
		JOIN bookings b ON b.id = m.booking_id
		WHERE (b.customer_id = $1 OR b.provider_id = $1)
		  AND m.sender_id <> $1
		  AND m.read_at IS NULL
	`, userID)
	return n, err
}
