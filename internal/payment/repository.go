package payment

import (
	"context"

	"github.com/jmoiron/sqlx"

	"serviceconnect/internal/api"
	"serviceconnect/internal/db"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, tx *sqlx.Tx, p *Payment) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO payments (booking_id, customer_id, provider_id, amount, status, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, p.BookingID, p.CustomerID, p.ProviderID, p.Amount, p.Status, p.Reference).Scan(&p.ID, &p.CreatedAt)
	if db.IsUniqueViolation(err) {
		return api.Errorf(api.ErrConflict, "booking %d is already paid", p.BookingID)
	}
	return err
}

// SucceededForBooking reports whether a succeeded payment exists for the booking.
func (r *repository) SucceededForBooking(ctx context.Context, q sqlx.QueryerContext, bookingID int) (bool, error) {
	return db.Exists(ctx, q,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE booking_id = $1 AND status = $2)`,
		bookingID, StatusSucceeded,
	)
}

func (r *repository) ListForUser(ctx context.Context, userID int, asProvider bool, limit, offset int) ([]Payment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	column := "customer_id"
	if asProvider {
		column = "provider_id"
	}

	payments := []Payment{}
	err := r.db.SelectContext(ctx, &payments, `
		SELECT id, booking_id, customer_id, provider_id, amount, status, reference, created_at
		FROM payments
		WHERE `+column+` = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return payments, nil
}
