package booking

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serviceconnect/internal/api"
	"serviceconnect/internal/auth"
	"serviceconnect/internal/catalog"
)

type sentNotification struct {
	UserID  int
	Subject string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, userID int, subject, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{UserID: userID, Subject: subject})
}

const lockBookingSQL = "FROM bookings WHERE id = $1 FOR UPDATE"

var bookingCols = []string{
	"id", "customer_id", "provider_id", "service_id", "scheduled_at", "address",
	"service_description", "customer_notes", "amount", "status", "created_at", "updated_at",
}

func bookingRow(id, customerID, providerID int, amount interface{}, status Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(bookingCols).
		AddRow(id, customerID, providerID, 1, now.Add(24*time.Hour), "12 MG Road", "leaky tap", "", amount, string(status), now, now)
}

func setupService(t *testing.T) (Service, sqlmock.Sqlmock, *recordingNotifier) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	database := sqlx.NewDb(sqlDB, "sqlmock")
	n := &recordingNotifier{}
	svc := NewService(database, NewRepository(database), catalog.NewRepository(database), n)
	return svc, mock, n
}

func TestQuote_Success(t *testing.T) {
	svc, mock, n := setupService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockBookingSQL)).WithArgs(5).
		WillReturnRows(bookingRow(5, 10, 20, nil, StatusPendingProvider))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $3 AND status = $4 AND amount IS NULL")).
		WithArgs("awaiting_customer_confirmation", decimal.RequireFromString("500"), 5, "pending_provider").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b, err := svc.Quote(context.Background(), 20, 5, decimal.RequireFromString("500.00"))
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingConfirmation, b.Status)
	assert.True(t, b.Amount.Valid)
	assert.Equal(t, "500.00", b.Amount.Decimal.StringFixed(2))
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, n.sent, 1)
	assert.Equal(t, 10, n.sent[0].UserID)
}

func TestQuote_AmountAlreadySet(t *testing.T) {
	svc, mock, n := setupService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockBookingSQL)).WithArgs(5).
		WillReturnRows(bookingRow(5, 10, 20, "300.00", StatusPendingProvider))
	mock.ExpectRollback()

	_, err := svc.Quote(context.Background(), 20, 5, decimal.RequireFromString("500"))
	assert.ErrorIs(t, err, api.ErrInvalidTransition)
	assert.Empty(t, n.sent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuote_InvalidAmount(t *testing.T) {
	svc, mock, _ := setupService(t)

	_, err := svc.Quote(context.Background(), 20, 5, decimal.Zero)
	assert.ErrorIs(t, err, api.ErrValidation)

	_, err = svc.Quote(context.Background(), 20, 5, decimal.RequireFromString("10.005"))
	assert.ErrorIs(t, err, api.ErrValidation)

	_, err = svc.Quote(context.Background(), 20, 5, decimal.NewFromInt(100000000000))
	assert.ErrorIs(t, err, api.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuote_WrongProvider(t *testing.T) {
	svc, mock, _ := setupService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockBookingSQL)).WithArgs(5).
		WillReturnRows(bookingRow(5, 10, 20, nil, StatusPendingProvider))
	mock.ExpectRollback()

	_, err := svc.Quote(context.Background(), 21, 5, decimal.NewFromInt(500))
	assert.ErrorIs(t, err, api.ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestComplete_FromPendingProviderFails(t *testing.T) {
	svc, mock, n := setupService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockBookingSQL)).WithArgs(5).
		WillReturnRows(bookingRow(5, 10, 20, nil, StatusPendingProvider))
	mock.ExpectRollback()

	_, err := svc.Complete(context.Background(), 20, 5)
	assert.ErrorIs(t, err, api.ErrInvalidTransition)
	assert.Empty(t, n.sent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirm_LostRace(t *testing.T) {
	svc, mock, n := setupService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockBookingSQL)).WithArgs(5).
		WillReturnRows(bookingRow(5, 10, 20, "500.00", StatusAwaitingConfirmation))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3")).
		WithArgs("accepted", 5, "awaiting_customer_confirmation").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Confirm(context.Background(), 10, 5, true)
	assert.ErrorIs(t, err, api.ErrInvalidTransition)
	assert.Empty(t, n.sent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirm_Decline(t *testing.T) {
	svc, mock, n := setupService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockBookingSQL)).WithArgs(5).
		WillReturnRows(bookingRow(5, 10, 20, "500.00", StatusAwaitingConfirmation))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $1")).
		WithArgs("rejected", 5, "awaiting_customer_confirmation").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b, err := svc.Confirm(context.Background(), 10, 5, false)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, b.Status)
	assert.True(t, b.Amount.Valid, "amount stays set after a declined quote")
	require.Len(t, n.sent, 1)
	assert.Equal(t, 20, n.sent[0].UserID)
}

func TestConfirm_ProviderCannotConfirm(t *testing.T) {
	svc, mock, _ := setupService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockBookingSQL)).WithArgs(5).
		WillReturnRows(bookingRow(5, 10, 20, "500.00", StatusAwaitingConfirmation))
	mock.ExpectRollback()

	_, err := svc.Confirm(context.Background(), 20, 5, true)
	assert.ErrorIs(t, err, api.ErrForbidden)
}

func TestUpdateStatus_AcceptedRequiresAmount(t *testing.T) {
	svc, mock, _ := setupService(t)

	_, err := svc.UpdateStatus(context.Background(), 20, 5, UpdateStatusRequest{Status: "accepted"})
	assert.ErrorIs(t, err, api.ErrValidation)

	_, err = svc.UpdateStatus(context.Background(), 20, 5, UpdateStatusRequest{Status: "closed"})
	assert.ErrorIs(t, err, api.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_Completed(t *testing.T) {
	svc, mock, n := setupService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockBookingSQL)).WithArgs(5).
		WillReturnRows(bookingRow(5, 10, 20, "500.00", StatusAccepted))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $1")).
		WithArgs("completed", 5, "accepted").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	b, err := svc.UpdateStatus(context.Background(), 20, 5, UpdateStatusRequest{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, b.Status)
	require.Len(t, n.sent, 1)
	assert.Equal(t, "Service completed", n.sent[0].Subject)
}

func TestCreate(t *testing.T) {
	svc, mock, n := setupService(t)
	when := time.Now().Add(48 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND role = 'provider')")).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("FROM services WHERE id = $1")).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at"}).AddRow(1, "Plumbing", "", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(10, 20, 1, when, "12 MG Road", "leaky tap", "").
		WillReturnRows(bookingRow(5, 10, 20, nil, StatusPendingProvider))

	b, err := svc.Create(context.Background(), 10, CreateRequest{
		ProviderID:         20,
		ServiceID:          1,
		ScheduledAt:        when,
		Address:            " 12 MG Road ",
		ServiceDescription: "leaky tap",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPendingProvider, b.Status)
	assert.False(t, b.Amount.Valid)
	require.Len(t, n.sent, 1)
	assert.Equal(t, 20, n.sent[0].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_NotAProvider(t *testing.T) {
	svc, mock, _ := setupService(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := svc.Create(context.Background(), 10, CreateRequest{
		ProviderID:  11,
		ServiceID:   1,
		ScheduledAt: time.Now().Add(time.Hour),
		Address:     "somewhere",
	})
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestCreate_InPast(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Create(context.Background(), 10, CreateRequest{
		ProviderID:  20,
		ServiceID:   1,
		ScheduledAt: time.Now().Add(-time.Hour),
		Address:     "somewhere",
	})
	assert.ErrorIs(t, err, api.ErrValidation)
}

func TestGet_HidesOtherUsersBookings(t *testing.T) {
	svc, mock, _ := setupService(t)

	detailCols := append(append([]string{}, bookingCols...), "customer_name", "provider_name", "service_name")
	now := time.Now()
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE b.id = $1")).WithArgs(5).
			WillReturnRows(sqlmock.NewRows(detailCols).
				AddRow(5, 10, 20, 1, now, "addr", "", "", nil, "pending_provider", now, now, "Asha", "Ravi", "Plumbing"))
	}

	_, err := svc.Get(context.Background(), auth.Principal{UserID: 99, Role: auth.RoleCustomer}, 5)
	assert.ErrorIs(t, err, api.ErrNotFound)

	d, err := svc.Get(context.Background(), auth.Principal{UserID: 1, Role: auth.RoleAdmin}, 5)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", d.ProviderName)
}

func TestList_ScopesByRole(t *testing.T) {
	svc, mock, _ := setupService(t)

	detailCols := append(append([]string{}, bookingCols...), "customer_name", "provider_name", "service_name")
	mock.ExpectQuery(regexp.QuoteMeta("AND b.provider_id = $1 AND b.status = $2 ORDER BY")).
		WithArgs(20, "accepted", 50, 0).
		WillReturnRows(sqlmock.NewRows(detailCols))

	list, err := svc.List(context.Background(), auth.Principal{UserID: 20, Role: auth.RoleProvider}, "accepted", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.List(context.Background(), auth.Principal{UserID: 20, Role: auth.RoleProvider}, "bogus", 0, 0)
	assert.ErrorIs(t, err, api.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStats(t *testing.T) {
	svc, mock, _ := setupService(t)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -7)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE created_at BETWEEN $1 AND $2 GROUP BY DATE(created_at)")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"bucket", "bookings_created", "bookings_rejected", "bookings_closed", "turnover"}).
			AddRow("2026-03-28", 4, 1, 2, "1250.00"))

	stats, err := svc.Stats(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Closed)
	assert.True(t, decimal.RequireFromString("1250").Equal(stats[0].Turnover))

	_, err = svc.Stats(context.Background(), to, from)
	assert.ErrorIs(t, err, api.ErrValidation)
}
