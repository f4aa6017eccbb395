package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"serviceconnect/internal/api"
	"serviceconnect/internal/db"
)

const bookingColumns = `id, customer_id, provider_id, service_id, scheduled_at, address,
	service_description, customer_notes, amount, status, created_at, updated_at`

const detailsSelect = `
	SELECT b.id, b.customer_id, b.provider_id, b.service_id, b.scheduled_at, b.address,
		b.service_description, b.customer_notes, b.amount, b.status, b.created_at, b.updated_at,
		c.name AS customer_name, p.name AS provider_name, s.name AS service_name
	FROM bookings b
	JOIN users c ON c.id = b.customer_id
	JOIN users p ON p.id = b.provider_id
	JOIN services s ON s.id = b.service_id`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO bookings (customer_id, provider_id, service_id, scheduled_at, address, service_description, customer_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + bookingColumns

	return r.db.QueryRowxContext(ctx, query,
		b.CustomerID, b.ProviderID, b.ServiceID, b.ScheduledAt,
		b.Address, b.ServiceDescription, b.CustomerNotes,
	).StructScan(b)
}

func (r *repository) GetByID(ctx context.Context, id int) (*Details, error) {
	var d Details
	if err := r.db.GetContext(ctx, &d, detailsSelect+` WHERE b.id = $1`, id); err != nil {
		if db.IsNoRows(err) {
			return nil, api.Errorf(api.ErrNotFound, "booking %d not found", id)
		}
		return nil, err
	}
	return &d, nil
}

func (r *repository) LockByID(ctx context.Context, tx *sqlx.Tx, id int) (*Booking, error) {
	var b Booking
	err := tx.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, api.Errorf(api.ErrNotFound, "booking %d not found", id)
		}
		return nil, err
	}
	return &b, nil
}

// UpdateStatus moves the booking from one status to another. It reports false
// when the booking was not in the expected status.
func (r *repository) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id int, from, to Status) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// SetQuote records the price and moves the booking to awaiting confirmation.
// The amount can only be set once.
func (r *repository) SetQuote(ctx context.Context, tx *sqlx.Tx, id int, amount decimal.Decimal) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, amount = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4 AND amount IS NULL
	`, StatusAwaitingConfirmation, amount, id, StatusPendingProvider)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Details, error) {
	query := detailsSelect + ` WHERE 1 = 1`
	args := []interface{}{}

	if f.CustomerID > 0 {
		args = append(args, f.CustomerID)
		query += fmt.Sprintf(" AND b.customer_id = $%d", len(args))
	}
	if f.ProviderID > 0 {
		args = append(args, f.ProviderID)
		query += fmt.Sprintf(" AND b.provider_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND b.status = $%d", len(args))
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY b.created_at DESC, b.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	bookings := []Details{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) IsProvider(ctx context.Context, userID int) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND role = 'provider')`, userID)
}

func (r *repository) StatsByDay(ctx context.Context, from, to time.Time) ([]DayStats, error) {
	query := `
SELECT
  TO_CHAR(DATE(created_at), 'YYYY-MM-DD')        AS bucket,
  COUNT(*)                                        AS bookings_created,
  COUNT(*) FILTER (WHERE status = 'rejected')     AS bookings_rejected,
  COUNT(*) FILTER (WHERE status = 'closed')       AS bookings_closed,
  COALESCE(SUM(amount) FILTER (WHERE status = 'closed'), 0) AS turnover
FROM bookings
WHERE created_at BETWEEN $1 AND $2
GROUP BY DATE(created_at)
ORDER BY bucket
`
	stats := []DayStats{}
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}
