package payment

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, p *Payment) error
	SucceededForBooking(ctx context.Context, q sqlx.QueryerContext, bookingID int) (bool, error)
	ListForUser(ctx context.Context, userID int, asProvider bool, limit, offset int) ([]Payment, error)
}
