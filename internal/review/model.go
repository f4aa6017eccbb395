package review

import (
	"time"

	"github.com/shopspring/decimal"
)

type Review struct {
	ID         int       `db:"id" json:"id"`
	BookingID  int       `db:"booking_id" json:"booking_id"`
	CustomerID int       `db:"customer_id" json:"customer_id"`
	ProviderID int       `db:"provider_id" json:"provider_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type WithAuthor struct {
	Review
	CustomerName string `db:"customer_name" json:"customer_name"`
}

// SubmitRequest rates a closed booking. Rating 0 leaves a comment without
// affecting the provider average.
type SubmitRequest struct {
	BookingID int    `json:"booking_id" validate:"required,gt=0"`
	Rating    *int   `json:"rating" validate:"required,gte=0,lte=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// Aggregate is the provider rating after a review was recorded.
type Aggregate struct {
	AverageRating decimal.Decimal `db:"average_rating" json:"average_rating" swaggertype:"string"`
	ReviewCount   int             `db:"review_count" json:"review_count"`
}

type SubmitResponse struct {
	Review   *Review    `json:"review"`
	Provider *Aggregate `json:"provider"`
}
