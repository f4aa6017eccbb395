package review

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

func (r *repository) ExistsForBooking(ctx context.Context, q sqlx.QueryerContext, bookingID int) (bool, error) {
	return db.Exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM reviews WHERE booking_id = $1)`, bookingID)
}

func (r *repository) Insert(ctx context.Context, tx *sqlx.Tx, rv *Review) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO reviews (booking_id, customer_id, provider_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, rv.BookingID, rv.CustomerID, rv.ProviderID, rv.Rating, rv.Comment).Scan(&rv.ID, &rv.CreatedAt)
	if db.IsUniqueViolation(err) {
		return api.Errorf(api.ErrConflict, "booking %d already has a review", rv.BookingID)
	}
	return err
}

// RecomputeProviderRating locks the provider profile and rebuilds its
// average and count from reviews with a positive rating.
func (r *repository) RecomputeProviderRating(ctx context.Context, tx *sqlx.Tx, providerID int) (*Aggregate, error) {
	var locked int
	err := tx.GetContext(ctx, &locked,
		`SELECT user_id FROM provider_profiles WHERE user_id = $1 FOR UPDATE`, providerID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, api.Errorf(api.ErrNotFound, "provider %d has no profile", providerID)
		}
		return nil, err
	}

	agg := &Aggregate{}
	err = tx.QueryRowxContext(ctx, `
		UPDATE provider_profiles p
		SET average_rating = COALESCE(s.avg_rating, 0),
			review_count = s.cnt,
			updated_at = NOW()
		FROM (
			SELECT ROUND(AVG(rating)::numeric, 2) AS avg_rating, COUNT(*) AS cnt
			FROM reviews
			WHERE provider_id = $1 AND rating > 0
		) s
		WHERE p.user_id = $1
		RETURNING p.average_rating, p.review_count
	`, providerID).StructScan(agg)
	if err != nil {
		return nil, err
	}
	return agg, nil
}

func (r *repository) ListByProvider(ctx context.Context, providerID, limit, offset int) ([]WithAuthor, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	list := []WithAuthor{}
	err := r.db.SelectContext(ctx, &list, `
		SELECT r.id, r.booking_id, r.customer_id, r.provider_id, r.rating, r.comment, r.created_at,
			u.name AS customer_name
		FROM reviews r
		JOIN users u ON u.id = r.customer_id
		WHERE r.provider_id = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3
	`, providerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return list, nil
}
