package wallet

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, ext sqlx.ExecerContext, userID int) error
	GetByUserID(ctx context.Context, userID int) (*Wallet, error)
	LockByUserID(ctx context.Context, tx *sqlx.Tx, userID int) (*Wallet, error)
	UpdateBalance(ctx context.Context, tx *sqlx.Tx, userID int, balance decimal.Decimal) error
	InsertTransaction(ctx context.Context, tx *sqlx.Tx, t *Transaction) error
	ListTransactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error)
	TransactionTotals(ctx context.Context, userID int) (*Totals, error)
}
