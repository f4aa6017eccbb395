package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

const StatusSucceeded = "succeeded"

type Payment struct {
	ID         int             `db:"id" json:"id"`
	BookingID  int             `db:"booking_id" json:"booking_id"`
	CustomerID int             `db:"customer_id" json:"customer_id"`
	ProviderID int             `db:"provider_id" json:"provider_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount" swaggertype:"string"`
	Status     string          `db:"status" json:"status"`
	Reference  string          `db:"reference" json:"reference"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

type SettleRequest struct {
	BookingID int `json:"booking_id" validate:"required,gt=0"`
}

// Receipt is returned to the paying customer.
type Receipt struct {
	Payment *Payment        `json:"payment"`
	Balance decimal.Decimal `json:"balance" swaggertype:"string"`
}
