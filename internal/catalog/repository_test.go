package catalog

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serviceconnect/internal/api"
)

func setupCatalogMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewRepository(sqlx.NewDb(sqlDB, "sqlmock")), mock
}

var providerCols = []string{
	"user_id", "name", "phone", "service_id", "service_name", "bio",
	"latitude", "longitude", "average_rating", "review_count", "updated_at", "distance_km",
}

func TestCreateService_Duplicate(t *testing.T) {
	repo, mock := setupCatalogMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO services (name, description)")).
		WithArgs("Plumbing", "").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.CreateService(context.Background(), "Plumbing", "")
	assert.ErrorIs(t, err, api.ErrConflict)
}

func TestGetService_NotFound(t *testing.T) {
	repo, mock := setupCatalogMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM services WHERE id = $1")).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at"}))

	_, err := repo.GetService(context.Background(), 5)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestSearchProviders_ByRating(t *testing.T) {
	repo, mock := setupCatalogMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("NULL::double precision AS distance_km")+
		".*"+regexp.QuoteMeta("AND p.service_id = $1) AS providers ORDER BY average_rating DESC, review_count DESC, user_id ASC LIMIT $2 OFFSET $3")).
		WithArgs(2, 20, 0).
		WillReturnRows(sqlmock.NewRows(providerCols).
			AddRow(4, "Ravi", "", 2, "Plumbing", "", nil, nil, "4.50", 2, time.Now(), nil))

	got, err := repo.SearchProviders(context.Background(), ProviderSearch{ServiceID: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "4.5", got[0].AverageRating.String())
	assert.Nil(t, got[0].DistanceKm)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchProviders_ByDistance(t *testing.T) {
	repo, mock := setupCatalogMock(t)
	lat, lng := 12.97, 77.59

	mock.ExpectQuery("6371 \\* acos.*"+regexp.QuoteMeta("WHERE distance_km <= $3 ORDER BY distance_km ASC")).
		WithArgs(lat, lng, 5.0, 10, 0).
		WillReturnRows(sqlmock.NewRows(providerCols).
			AddRow(4, "Ravi", "", 2, "Plumbing", "", 12.98, 77.60, "4.00", 1, time.Now(), 1.53))

	got, err := repo.SearchProviders(context.Background(), ProviderSearch{Lat: &lat, Lng: &lng, RadiusKm: 5, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].DistanceKm)
	assert.InDelta(t, 1.53, *got[0].DistanceKm, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile_Missing(t *testing.T) {
	repo, mock := setupCatalogMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE provider_profiles")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateProfile(context.Background(), 3, UpdateProfileRequest{Bio: "x"})
	assert.ErrorIs(t, err, api.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
