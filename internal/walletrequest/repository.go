package walletrequest

import (
	"context"

	"github.com/jmoiron/sqlx"

	"serviceconnect/internal/api"
	"serviceconnect/internal/db"
)

const requestColumns = `id, user_id, type, amount, transaction_reference, screenshot_url, status,
	rejection_reason, processed_by, requested_at, processed_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (r *repository) Create(ctx context.Context, req *Request) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO wallet_requests (user_id, type, amount, transaction_reference, screenshot_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+requestColumns,
		req.UserID, req.Type, req.Amount, req.TransactionReference, req.ScreenshotURL,
	).StructScan(req)
}

func (r *repository) LockByID(ctx context.Context, tx *sqlx.Tx, id int) (*Request, error) {
	var req Request
	err := tx.GetContext(ctx, &req, `SELECT `+requestColumns+` FROM wallet_requests WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, api.Errorf(api.ErrNotFound, "wallet request %d not found", id)
		}
		return nil, err
	}
	return &req, nil
}

// MarkProcessed resolves a pending request. It reports false when the
// request was no longer pending.
func (r *repository) MarkProcessed(ctx context.Context, tx *sqlx.Tx, id int, status Status, adminID int, reason *string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE wallet_requests
		SET status = $1, processed_by = $2, processed_at = NOW(), rejection_reason = $3
		WHERE id = $4 AND status = 'pending'
	`, status, adminID, reason, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *repository) ListByUser(ctx context.Context, userID, limit, offset int) ([]Request, error) {
	limit, offset = page(limit, offset)

	list := []Request{}
	err := r.db.SelectContext(ctx, &list, `
		SELECT `+requestColumns+`
		FROM wallet_requests
		WHERE user_id = $1
		ORDER BY requested_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListByStatus returns the admin queue, oldest first.
func (r *repository) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]AdminView, error) {
	limit, offset = page(limit, offset)

	list := []AdminView{}
	err := r.db.SelectContext(ctx, &list, `
		SELECT w.id, w.user_id, w.type, w.amount, w.transaction_reference, w.screenshot_url, w.status,
			w.rejection_reason, w.processed_by, w.requested_at, w.processed_at,
			u.name AS user_name, u.email AS user_email
		FROM wallet_requests w
		JOIN users u ON u.id = w.user_id
		WHERE w.status = $1
		ORDER BY w.requested_at ASC, w.id ASC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return list, nil
}
