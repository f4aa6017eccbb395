package review

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	ExistsForBooking(ctx context.Context, q sqlx.QueryerContext, bookingID int) (bool, error)
	Insert(ctx context.Context, tx *sqlx.Tx, r *Review) error
	RecomputeProviderRating(ctx context.Context, tx *sqlx.Tx, providerID int) (*Aggregate, error)
	ListByProvider(ctx context.Context, providerID, limit, offset int) ([]WithAuthor, error)
}
