package payment

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serviceconnect/internal/api"
	"serviceconnect/internal/auth"
	"serviceconnect/internal/booking"
	"serviceconnect/internal/wallet"
)

const (
	lockBookingSQL   = "FROM bookings WHERE id = $1 FOR UPDATE"
	lockWalletSQL    = "FROM wallets WHERE user_id = $1 FOR UPDATE"
	updateWalletSQL  = "UPDATE wallets SET balance = $1, updated_at = NOW() WHERE user_id = $2"
	insertTxSQL      = "INSERT INTO wallet_transactions"
	insertPaymentSQL = "INSERT INTO payments"
	closeBookingSQL  = "UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3"

	customerID = 10
	providerID = 20
	bookingID  = 5
)

var (
	bookingCols = []string{
		"id", "customer_id", "provider_id", "service_id", "scheduled_at", "address",
		"service_description", "customer_notes", "amount", "status", "created_at", "updated_at",
	}
	walletCols = []string{"user_id", "balance", "created_at", "updated_at"}
)

type recordingNotifier struct {
	users []int
}

func (r *recordingNotifier) Notify(_ context.Context, userID int, _, _ string) {
	r.users = append(r.users, userID)
}

func setupService(t *testing.T) (Service, sqlmock.Sqlmock, *recordingNotifier) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	database := sqlx.NewDb(sqlDB, "sqlmock")
	n := &recordingNotifier{}
	svc := NewService(database,
		NewRepository(database),
		booking.NewRepository(database),
		wallet.NewLedger(wallet.NewRepository(database)),
		n,
	)
	return svc, mock, n
}

func expectBooking(mock sqlmock.Sqlmock, amount interface{}, status booking.Status) {
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(lockBookingSQL)).WithArgs(bookingID).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(
			bookingID, customerID, providerID, 1, now.Add(-time.Hour), "12 MG Road",
			"leaky tap", "", amount, string(status), now, now,
		))
}

func expectWallet(mock sqlmock.Sqlmock, userID int, balance string) {
	mock.ExpectQuery(regexp.QuoteMeta(lockWalletSQL)).WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(walletCols).AddRow(userID, balance, time.Now(), time.Now()))
}

func expectMovement(mock sqlmock.Sqlmock, userID int, txType, amount, after string, id int) {
	mock.ExpectExec(regexp.QuoteMeta(updateWalletSQL)).WithArgs(after, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(insertTxSQL)).
		WithArgs(userID, txType, amount, bookingID, after).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id, time.Now()))
}

func TestSettle_Success(t *testing.T) {
	svc, mock, n := setupService(t)

	mock.ExpectBegin()
	expectBooking(mock, "500.00", booking.StatusCompleted)
	expectWallet(mock, customerID, "1000.00")
	expectWallet(mock, providerID, "0.00")

	expectWallet(mock, customerID, "1000.00")
	expectMovement(mock, customerID, "payment_sent", "500", "500", 1)
	expectWallet(mock, providerID, "0.00")
	expectMovement(mock, providerID, "payment_received", "500", "500", 2)

	mock.ExpectQuery(regexp.QuoteMeta(insertPaymentSQL)).
		WithArgs(bookingID, customerID, providerID, "500", "succeeded", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(77, time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(closeBookingSQL)).
		WithArgs("closed", bookingID, "completed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	receipt, err := svc.Settle(context.Background(), customerID, bookingID)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 77, receipt.Payment.ID)
	assert.Equal(t, StatusSucceeded, receipt.Payment.Status)
	assert.True(t, strings.HasPrefix(receipt.Payment.Reference, "PAY-"))
	assert.True(t, receipt.Payment.Amount.Equal(decimal.NewFromInt(500)))
	assert.True(t, receipt.Balance.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, []int{providerID}, n.users)
}

func TestSettle_InsufficientFundsRollsBack(t *testing.T) {
	svc, mock, n := setupService(t)

	mock.ExpectBegin()
	expectBooking(mock, "500.00", booking.StatusCompleted)
	expectWallet(mock, customerID, "499.99")
	expectWallet(mock, providerID, "0.00")
	expectWallet(mock, customerID, "499.99")
	mock.ExpectRollback()

	_, err := svc.Settle(context.Background(), customerID, bookingID)
	assert.ErrorIs(t, err, api.ErrInsufficientFunds)
	assert.Empty(t, n.users)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettle_ProviderCreditFailureRollsBackDebit(t *testing.T) {
	svc, mock, n := setupService(t)

	mock.ExpectBegin()
	expectBooking(mock, "500.00", booking.StatusCompleted)
	expectWallet(mock, customerID, "1000.00")
	expectWallet(mock, providerID, "0.00")

	expectWallet(mock, customerID, "1000.00")
	expectMovement(mock, customerID, "payment_sent", "500", "500", 1)
	expectWallet(mock, providerID, "0.00")
	mock.ExpectExec(regexp.QuoteMeta(updateWalletSQL)).WithArgs("500", providerID).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.Settle(context.Background(), customerID, bookingID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credit provider 20")
	assert.Empty(t, n.users)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettle_MissingProviderWallet(t *testing.T) {
	svc, mock, _ := setupService(t)

	mock.ExpectBegin()
	expectBooking(mock, "500.00", booking.StatusCompleted)
	expectWallet(mock, customerID, "1000.00")
	mock.ExpectQuery(regexp.QuoteMeta(lockWalletSQL)).WithArgs(providerID).
		WillReturnRows(sqlmock.NewRows(walletCols))
	mock.ExpectRollback()

	_, err := svc.Settle(context.Background(), customerID, bookingID)
	assert.ErrorIs(t, err, api.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettle_Preconditions(t *testing.T) {
	tests := []struct {
		name     string
		caller   int
		amount   interface{}
		status   booking.Status
		expected error
	}{
		{"not the customer", providerID, "500.00", booking.StatusCompleted, api.ErrForbidden},
		{"not completed yet", customerID, "500.00", booking.StatusAccepted, api.ErrInvalidTransition},
		{"already closed", customerID, "500.00", booking.StatusClosed, api.ErrInvalidTransition},
		{"no amount", customerID, nil, booking.StatusCompleted, api.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, _ := setupService(t)

			mock.ExpectBegin()
			expectBooking(mock, tt.amount, tt.status)
			mock.ExpectRollback()

			_, err := svc.Settle(context.Background(), tt.caller, bookingID)
			assert.ErrorIs(t, err, tt.expected)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSettle_ConcurrentCloseLosesRace(t *testing.T) {
	svc, mock, _ := setupService(t)

	mock.ExpectBegin()
	expectBooking(mock, "500.00", booking.StatusCompleted)
	expectWallet(mock, customerID, "1000.00")
	expectWallet(mock, providerID, "0.00")
	expectWallet(mock, customerID, "1000.00")
	expectMovement(mock, customerID, "payment_sent", "500", "500", 1)
	expectWallet(mock, providerID, "0.00")
	expectMovement(mock, providerID, "payment_received", "500", "500", 2)
	mock.ExpectQuery(regexp.QuoteMeta(insertPaymentSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(78, time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(closeBookingSQL)).
		WithArgs("closed", bookingID, "completed").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Settle(context.Background(), customerID, bookingID)
	assert.ErrorIs(t, err, api.ErrInvalidTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_ScopesByRole(t *testing.T) {
	svc, mock, _ := setupService(t)
	cols := []string{"id", "booking_id", "customer_id", "provider_id", "amount", "status", "reference", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE provider_id = $1")).WithArgs(providerID, 50, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, bookingID, customerID, providerID, "500.00", "succeeded", "PAY-1", time.Now()))

	list, err := svc.List(context.Background(), auth.Principal{UserID: providerID, Role: auth.RoleProvider}, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "PAY-1", list[0].Reference)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE customer_id = $1")).WithArgs(customerID, 10, 20).
		WillReturnRows(sqlmock.NewRows(cols))

	list, err = svc.List(context.Background(), auth.Principal{UserID: customerID, Role: auth.RoleCustomer}, 10, 20)
	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}
