package booking

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id int) (*Details, error)
	LockByID(ctx context.Context, tx *sqlx.Tx, id int) (*Booking, error)
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, id int, from, to Status) (bool, error)
	SetQuote(ctx context.Context, tx *sqlx.Tx, id int, amount decimal.Decimal) (bool, error)
	List(ctx context.Context, f ListFilter) ([]Details, error)
	IsProvider(ctx context.Context, userID int) (bool, error)
	StatsByDay(ctx context.Context, from, to time.Time) ([]DayStats, error)
}
