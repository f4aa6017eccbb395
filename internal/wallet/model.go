package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

type TxType string

const (
	TxPaymentSent     TxType = "payment_sent"
	TxPaymentReceived TxType = "payment_received"
	TxDepositApproved TxType = "deposit_admin_approved"
	TxWithdrawalSent  TxType = "withdrawal_sent"
)

// IsCredit reports whether the movement increases the balance.
func (t TxType) IsCredit() bool {
	return t == TxPaymentReceived || t == TxDepositApproved
}

func (t TxType) Valid() bool {
	switch t {
	case TxPaymentSent, TxPaymentReceived, TxDepositApproved, TxWithdrawalSent:
		return true
	}
	return false
}

type Wallet struct {
	UserID    int             `db:"user_id" json:"user_id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Transaction is an append-only ledger row.
type Transaction struct {
	ID           int             `db:"id" json:"id"`
	UserID       int             `db:"user_id" json:"user_id"`
	Type         TxType          `db:"type" json:"type"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	RelatedID    *int            `db:"related_id" json:"related_id,omitempty"`
	BalanceAfter decimal.Decimal `db:"balance_after" json:"balance_after"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Totals is a wallet balance and its ledger sums read from one snapshot.
type Totals struct {
	Balance decimal.Decimal `db:"balance" json:"balance"`
	Credits decimal.Decimal `db:"credits" json:"credits"`
	Debits  decimal.Decimal `db:"debits" json:"debits"`
}

type Reconciliation struct {
	UserID     int             `json:"user_id"`
	Balance    decimal.Decimal `json:"balance"`
	Credits    decimal.Decimal `json:"credits"`
	Debits     decimal.Decimal `json:"debits"`
	Difference decimal.Decimal `json:"difference"`
	Consistent bool            `json:"consistent"`
}
