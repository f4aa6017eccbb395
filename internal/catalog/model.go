package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Service struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Provider is a provider profile joined with its user and service rows.
type Provider struct {
	UserID        int             `db:"user_id" json:"user_id"`
	Name          string          `db:"name" json:"name"`
	Phone         string          `db:"phone" json:"phone"`
	ServiceID     *int            `db:"service_id" json:"service_id"`
	ServiceName   *string         `db:"service_name" json:"service_name"`
	Bio           string          `db:"bio" json:"bio"`
	Latitude      *float64        `db:"latitude" json:"latitude"`
	Longitude     *float64        `db:"longitude" json:"longitude"`
	AverageRating decimal.Decimal `db:"average_rating" json:"average_rating"`
	ReviewCount   int             `db:"review_count" json:"review_count"`
	DistanceKm    *float64        `db:"distance_km" json:"distance_km,omitempty"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

type CreateServiceRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

type UpdateProfileRequest struct {
	ServiceID *int     `json:"service_id" validate:"omitempty,gt=0"`
	Bio       string   `json:"bio" validate:"max=4000"`
	Phone     string   `json:"phone" validate:"max=32"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

type ProviderSearch struct {
	ServiceID int
	Lat       *float64
	Lng       *float64
	RadiusKm  float64
	Limit     int
	Offset    int
}

func (q ProviderSearch) HasOrigin() bool {
	return q.Lat != nil && q.Lng != nil
}
