package catalog

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateService(ctx context.Context, name, description string) (*Service, error)
	ListServices(ctx context.Context) ([]Service, error)
	GetService(ctx context.Context, id int) (*Service, error)
	CreateProfile(ctx context.Context, ext sqlx.ExecerContext, userID int) error
	GetProvider(ctx context.Context, userID int) (*Provider, error)
	UpdateProfile(ctx context.Context, userID int, req UpdateProfileRequest) error
	SearchProviders(ctx context.Context, q ProviderSearch) ([]Provider, error)
}
