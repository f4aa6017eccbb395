package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

type Booking struct {
	ID                 int                 `db:"id" json:"id"`
	CustomerID         int                 `db:"customer_id" json:"customer_id"`
	ProviderID         int                 `db:"provider_id" json:"provider_id"`
	ServiceID          int                 `db:"service_id" json:"service_id"`
	ScheduledAt        time.Time           `db:"scheduled_at" json:"scheduled_at"`
	Address            string              `db:"address" json:"address"`
	ServiceDescription string              `db:"service_description" json:"service_description"`
	CustomerNotes      string              `db:"customer_notes" json:"customer_notes"`
	Amount             decimal.NullDecimal `db:"amount" json:"amount" swaggertype:"string"`
	Status             Status              `db:"status" json:"status"`
	CreatedAt          time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at" json:"updated_at"`
}

// Details is a booking joined with the names of its parties and service.
type Details struct {
	Booking
	CustomerName string `db:"customer_name" json:"customer_name"`
	ProviderName string `db:"provider_name" json:"provider_name"`
	ServiceName  string `db:"service_name" json:"service_name"`
}

type CreateRequest struct {
	ProviderID         int       `json:"provider_id" validate:"required,gt=0"`
	ServiceID          int       `json:"service_id" validate:"required,gt=0"`
	ScheduledAt        time.Time `json:"scheduled_at" validate:"required"`
	Address            string    `json:"address" validate:"required,max=500"`
	ServiceDescription string    `json:"service_description" validate:"max=2000"`
	CustomerNotes      string    `json:"customer_notes" validate:"max=2000"`
}

// UpdateStatusRequest is the provider facing status change. "accepted" with an
// amount is a quote; "rejected" and "completed" map to their actions.
type UpdateStatusRequest struct {
	Status string           `json:"status" validate:"required,oneof=accepted rejected completed"`
	Amount *decimal.Decimal `json:"amount,omitempty" swaggertype:"string"`
}

type ConfirmPriceRequest struct {
	Accepted *bool `json:"accepted" validate:"required"`
}

type ListFilter struct {
	CustomerID int
	ProviderID int
	Status     Status
	Limit      int
	Offset     int
}

type DayStats struct {
	Bucket   string          `db:"bucket" json:"bucket"`
	Created  int             `db:"bookings_created" json:"bookings_created"`
	Rejected int             `db:"bookings_rejected" json:"bookings_rejected"`
	Closed   int             `db:"bookings_closed" json:"bookings_closed"`
	Turnover decimal.Decimal `db:"turnover" json:"turnover"`
}
