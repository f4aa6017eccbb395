package catalog

import (
	"context"
	"strings"

	"serviceconnect/internal/api"
)

type CatalogService interface {
	ListServices(ctx context.Context) ([]Service, error)
	CreateService(ctx context.Context, req CreateServiceRequest) (*Service, error)
	SearchProviders(ctx context.Context, q ProviderSearch) ([]Provider, error)
	GetProvider(ctx context.Context, userID int) (*Provider, error)
	UpdateProfile(ctx context.Context, userID int, req UpdateProfileRequest) (*Provider, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) CatalogService {
	return &service{repo: repo}
}

func (s *service) ListServices(ctx context.Context) ([]Service, error) {
	return s.repo.ListServices(ctx)
}

func (s *service) CreateService(ctx context.Context, req CreateServiceRequest) (*Service, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := api.ValidateStruct(req); err != nil {
		return nil, err
	}
	return s.repo.CreateService(ctx, req.Name, strings.TrimSpace(req.Description))
}

func (s *service) SearchProviders(ctx context.Context, q ProviderSearch) ([]Provider, error) {
	if (q.Lat == nil) != (q.Lng == nil) {
		return nil, api.Errorf(api.ErrValidation, "lat and lng must be given together")
	}
	if q.RadiusKm < 0 {
		return nil, api.Errorf(api.ErrValidation, "radius_km must not be negative")
	}
	if q.RadiusKm > 0 && !q.HasOrigin() {
		return nil, api.Errorf(api.ErrValidation, "radius_km requires lat and lng")
	}
	if q.HasOrigin() && (*q.Lat < -90 || *q.Lat > 90 || *q.Lng < -180 || *q.Lng > 180) {
		return nil, api.Errorf(api.ErrValidation, "coordinates out of range")
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.repo.SearchProviders(ctx, q)
}

func (s *service) GetProvider(ctx context.Context, userID int) (*Provider, error) {
	return s.repo.GetProvider(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID int, req UpdateProfileRequest) (*Provider, error) {
	if err := api.ValidateStruct(req); err != nil {
		return nil, err
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, api.Errorf(api.ErrValidation, "latitude and longitude must be given together")
	}
	if req.ServiceID != nil {
		if _, err := s.repo.GetService(ctx, *req.ServiceID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateProfile(ctx, userID, req); err != nil {
		return nil, err
	}
	return s.repo.GetProvider(ctx, userID)
}
