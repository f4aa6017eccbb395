package walletrequest

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, r *Request) error
	LockByID(ctx context.Context, tx *sqlx.Tx, id int) (*Request, error)
	MarkProcessed(ctx context.Context, tx *sqlx.Tx, id int, status Status, adminID int, reason *string) (bool, error)
	ListByUser(ctx context.Context, userID, limit, offset int) ([]Request, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]AdminView, error)
}
