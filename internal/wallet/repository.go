package wallet

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"serviceconnect/internal/api"
	"serviceconnect/internal/db"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, ext sqlx.ExecerContext, userID int) error {
	_, err := ext.ExecContext(ctx, `INSERT INTO wallets (user_id) VALUES ($1)`, userID)
	if err != nil {
		return fmt.Errorf("create wallet: %w", err)
	}
	return nil
}

func (r *repository) GetByUserID(ctx context.Context, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := r.db.GetContext(ctx, w,
		`SELECT user_id, balance, created_at, updated_at FROM wallets WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, api.Errorf(api.ErrNotFound, "wallet for user %d not found", userID)
		}
		return nil, err
	}
	return w, nil
}

func (r *repository) LockByUserID(ctx context.Context, tx *sqlx.Tx, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := tx.GetContext(ctx, w,
		`SELECT user_id, balance, created_at, updated_at
		 FROM wallets
		 WHERE user_id = $1
		 FOR UPDATE`,
		userID,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, api.Errorf(api.ErrNotFound, "wallet for user %d not found", userID)
		}
		return nil, err
	}
	return w, nil
}

func (r *repository) UpdateBalance(ctx context.Context, tx *sqlx.Tx, userID int, balance decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE wallets
		 SET balance = $1, updated_at = NOW()
		 WHERE user_id = $2`,
		balance, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return api.Errorf(api.ErrNotFound, "wallet for user %d not found", userID)
	}
	return nil
}

func (r *repository) InsertTransaction(ctx context.Context, tx *sqlx.Tx, t *Transaction) error {
	return tx.QueryRowxContext(ctx,
		`INSERT INTO wallet_transactions (user_id, type, amount, related_id, balance_after)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		t.UserID, t.Type, t.Amount, t.RelatedID, t.BalanceAfter,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *repository) ListTransactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, user_id, type, amount, related_id, balance_after, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *repository) TransactionTotals(ctx context.Context, userID int) (*Totals, error) {
	t := &Totals{}
	err := r.db.GetContext(ctx, t, `
		SELECT
			w.balance,
			COALESCE(SUM(t.amount) FILTER (WHERE t.type IN ('payment_received', 'deposit_admin_approved')), 0) AS credits,
			COALESCE(SUM(t.amount) FILTER (WHERE t.type IN ('payment_sent', 'withdrawal_sent')), 0) AS debits
		FROM wallets w
		LEFT JOIN wallet_transactions t ON t.user_id = w.user_id
		WHERE w.user_id = $1
		GROUP BY w.balance
	`, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, api.Errorf(api.ErrNotFound, "wallet for user %d not found", userID)
		}
		return nil, err
	}
	return t, nil
}
