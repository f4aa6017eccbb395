package catalog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"serviceconnect/internal/api"
	"serviceconnect/internal/db"
)

const earthRadiusKm = 6371.0

const providerColumns = `p.user_id, u.name, u.phone, p.service_id, s.name AS service_name,
	p.bio, p.latitude, p.longitude, p.average_rating, p.review_count, p.updated_at`

const providerFrom = `
	FROM provider_profiles p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN services s ON s.id = p.service_id`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateService(ctx context.Context, name, description string) (*Service, error) {
	query := `
		INSERT INTO services (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at
	`

	var svc Service
	if err := r.db.GetContext(ctx, &svc, query, name, description); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, api.Errorf(api.ErrConflict, "service %q already exists", name)
		}
		return nil, err
	}
	return &svc, nil
}

func (r *repository) ListServices(ctx context.Context) ([]Service, error) {
	services := []Service{}
	err := r.db.SelectContext(ctx, &services,
		`SELECT id, name, description, created_at FROM services ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repository) GetService(ctx context.Context, id int) (*Service, error) {
	var svc Service
	err := r.db.GetContext(ctx, &svc,
		`SELECT id, name, description, created_at FROM services WHERE id = $1`, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, api.Errorf(api.ErrNotFound, "service %d not found", id)
		}
		return nil, err
	}
	return &svc, nil
}

func (r *repository) CreateProfile(ctx context.Context, ext sqlx.ExecerContext, userID int) error {
	_, err := ext.ExecContext(ctx, `INSERT INTO provider_profiles (user_id) VALUES ($1)`, userID)
	if err != nil {
		return fmt.Errorf("create provider profile: %w", err)
	}
	return nil
}

func (r *repository) GetProvider(ctx context.Context, userID int) (*Provider, error) {
	var p Provider
	query := `SELECT ` + providerColumns + providerFrom + ` WHERE p.user_id = $1 AND u.role = 'provider'`
	if err := r.db.GetContext(ctx, &p, query, userID); err != nil {
		if db.IsNoRows(err) {
			return nil, api.Errorf(api.ErrNotFound, "provider %d not found", userID)
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpdateProfile(ctx context.Context, userID int, req UpdateProfileRequest) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE provider_profiles
			SET service_id = $1, bio = $2, latitude = $3, longitude = $4, updated_at = NOW()
			WHERE user_id = $5
		`, req.ServiceID, req.Bio, req.Latitude, req.Longitude, userID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return api.Errorf(api.ErrNotFound, "provider profile %d not found", userID)
		}

		if req.Phone != "" {
			if _, err := tx.ExecContext(ctx, `UPDATE users SET phone = $1 WHERE id = $2`, req.Phone, userID); err != nil {
				return err
			}
		}
		return nil
	})
}

// haversine returns the great-circle distance expression in km between the
// placeholders lat/lng and the profile coordinates.
func haversine(lat, lng string) string {
	return fmt.Sprintf(`%g * acos(LEAST(1.0,
		cos(radians(%s)) * cos(radians(p.latitude)) * cos(radians(p.longitude) - radians(%s))
		+ sin(radians(%s)) * sin(radians(p.latitude))))`, earthRadiusKm, lat, lng, lat)
}

func (r *repository) SearchProviders(ctx context.Context, q ProviderSearch) ([]Provider, error) {
	args := []interface{}{}
	distance := "NULL::double precision"
	if q.HasOrigin() {
		args = append(args, *q.Lat, *q.Lng)
		distance = haversine("$1", "$2")
	}

	query := `SELECT * FROM (SELECT ` + providerColumns + `, ` + distance + ` AS distance_km` +
		providerFrom + ` WHERE u.role = 'provider'`

	if q.ServiceID > 0 {
		args = append(args, q.ServiceID)
		query += fmt.Sprintf(" AND p.service_id = $%d", len(args))
	}
	if q.HasOrigin() {
		query += " AND p.latitude IS NOT NULL AND p.longitude IS NOT NULL"
	}
	query += ") AS providers"

	if q.HasOrigin() && q.RadiusKm > 0 {
		args = append(args, q.RadiusKm)
		query += fmt.Sprintf(" WHERE distance_km <= $%d", len(args))
	}

	if q.HasOrigin() {
		query += " ORDER BY distance_km ASC, average_rating DESC"
	} else {
		query += " ORDER BY average_rating DESC, review_count DESC, user_id ASC"
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, q.Offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	providers := []Provider{}
	if err := r.db.SelectContext(ctx, &providers, query, args...); err != nil {
		return nil, err
	}
	return providers, nil
}
