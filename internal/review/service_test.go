package review

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serviceconnect/internal/api"
	"serviceconnect/internal/booking"
	"serviceconnect/internal/notify"
	"serviceconnect/internal/payment"
)

const (
	lockBookingSQL  = "FROM bookings WHERE id = $1 FOR UPDATE"
	paidSQL         = "SELECT EXISTS(SELECT 1 FROM payments WHERE booking_id = $1 AND status = $2)"
	reviewedSQL     = "SELECT EXISTS(SELECT 1 FROM reviews WHERE booking_id = $1)"
	insertReviewSQL = "INSERT INTO reviews"
	lockProfileSQL  = "SELECT user_id FROM provider_profiles WHERE user_id = $1 FOR UPDATE"
	recomputeSQL    = "UPDATE provider_profiles p"
)

var bookingCols = []string{
	"id", "customer_id", "provider_id", "service_id", "scheduled_at", "address",
	"service_description", "customer_notes", "amount", "status", "created_at", "updated_at",
}

func setupService(t *testing.T) (Service, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	database := sqlx.NewDb(sqlDB, "sqlmock")
	svc := NewService(database,
		NewRepository(database),
		booking.NewRepository(database),
		payment.NewRepository(database),
		notify.Nop{},
	)
	return svc, mock
}

func rating(n int) *int { return &n }

func expectClosedBooking(mock sqlmock.Sqlmock, status booking.Status) {
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(lockBookingSQL)).WithArgs(5).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(
			5, 10, 20, 1, now.Add(-48*time.Hour), "12 MG Road", "leaky tap", "", "500.00", string(status), now, now,
		))
}

func expectExists(mock sqlmock.Sqlmock, query string, value bool, args ...driver.Value) {
	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(value))
}

func TestSubmit_Success(t *testing.T) {
	svc, mock := setupService(t)

	mock.ExpectBegin()
	expectClosedBooking(mock, booking.StatusClosed)
	expectExists(mock, paidSQL, true, 5, "succeeded")
	expectExists(mock, reviewedSQL, false, 5)
	mock.ExpectQuery(regexp.QuoteMeta(insertReviewSQL)).WithArgs(5, 10, 20, 5, "Fixed it in ten minutes").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(lockProfileSQL)).WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(20))
	mock.ExpectQuery(regexp.QuoteMeta(recomputeSQL)).WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"average_rating", "review_count"}).AddRow("4.50", 2))
	mock.ExpectCommit()

	resp, err := svc.Submit(context.Background(), 10, SubmitRequest{
		BookingID: 5, Rating: rating(5), Comment: "  Fixed it in ten minutes ",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Review.ID)
	assert.Equal(t, 20, resp.Review.ProviderID)
	assert.True(t, resp.Provider.AverageRating.Equal(decimal.RequireFromString("4.5")))
	assert.Equal(t, 2, resp.Provider.ReviewCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmit_SecondReviewConflicts(t *testing.T) {
	svc, mock := setupService(t)

	mock.ExpectBegin()
	expectClosedBooking(mock, booking.StatusClosed)
	expectExists(mock, paidSQL, true, 5, "succeeded")
	expectExists(mock, reviewedSQL, true, 5)
	mock.ExpectRollback()

	_, err := svc.Submit(context.Background(), 10, SubmitRequest{BookingID: 5, Rating: rating(4)})
	assert.ErrorIs(t, err, api.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmit_ConcurrentInsertConflicts(t *testing.T) {
	svc, mock := setupService(t)

	mock.ExpectBegin()
	expectClosedBooking(mock, booking.StatusClosed)
	expectExists(mock, paidSQL, true, 5, "succeeded")
	expectExists(mock, reviewedSQL, false, 5)
	mock.ExpectQuery(regexp.QuoteMeta(insertReviewSQL)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "reviews_booking_id_key"})
	mock.ExpectRollback()

	_, err := svc.Submit(context.Background(), 10, SubmitRequest{BookingID: 5, Rating: rating(3)})
	assert.ErrorIs(t, err, api.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmit_NotEligible(t *testing.T) {
	t.Run("booking not closed", func(t *testing.T) {
		svc, mock := setupService(t)

		mock.ExpectBegin()
		expectClosedBooking(mock, booking.StatusCompleted)
		mock.ExpectRollback()

		_, err := svc.Submit(context.Background(), 10, SubmitRequest{BookingID: 5, Rating: rating(5)})
		assert.ErrorIs(t, err, api.ErrNotEligible)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no successful payment", func(t *testing.T) {
		svc, mock := setupService(t)

		mock.ExpectBegin()
		expectClosedBooking(mock, booking.StatusClosed)
		expectExists(mock, paidSQL, false, 5, "succeeded")
		mock.ExpectRollback()

		_, err := svc.Submit(context.Background(), 10, SubmitRequest{BookingID: 5, Rating: rating(5)})
		assert.ErrorIs(t, err, api.ErrNotEligible)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSubmit_OtherCustomer(t *testing.T) {
	svc, mock := setupService(t)

	mock.ExpectBegin()
	expectClosedBooking(mock, booking.StatusClosed)
	mock.ExpectRollback()

	_, err := svc.Submit(context.Background(), 11, SubmitRequest{BookingID: 5, Rating: rating(5)})
	assert.ErrorIs(t, err, api.ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  SubmitRequest
	}{
		{"missing rating", SubmitRequest{BookingID: 5}},
		{"rating above five", SubmitRequest{BookingID: 5, Rating: rating(6)}},
		{"negative rating", SubmitRequest{BookingID: 5, Rating: rating(-1)}},
		{"zero rating without comment", SubmitRequest{BookingID: 5, Rating: rating(0), Comment: "  "}},
		{"missing booking", SubmitRequest{Rating: rating(4)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := setupService(t)
			_, err := svc.Submit(context.Background(), 10, tt.req)
			assert.ErrorIs(t, err, api.ErrValidation)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSubmit_ZeroRatingWithComment(t *testing.T) {
	svc, mock := setupService(t)

	mock.ExpectBegin()
	expectClosedBooking(mock, booking.StatusClosed)
	expectExists(mock, paidSQL, true, 5, "succeeded")
	expectExists(mock, reviewedSQL, false, 5)
	mock.ExpectQuery(regexp.QuoteMeta(insertReviewSQL)).WithArgs(5, 10, 20, 0, "Arrived late").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(2, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(lockProfileSQL)).WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(20))
	mock.ExpectQuery(regexp.QuoteMeta(recomputeSQL)).WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"average_rating", "review_count"}).AddRow("0.00", 0))
	mock.ExpectCommit()

	resp, err := svc.Submit(context.Background(), 10, SubmitRequest{BookingID: 5, Rating: rating(0), Comment: "Arrived late"})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Provider.ReviewCount)
	require.NoError(t, mock.ExpectationsWereMet())
}
