package walletrequest

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeDeposit    Type = "deposit"
	TypeWithdrawal Type = "withdrawal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

type Request struct {
	ID                   int             `db:"id" json:"id"`
	UserID               int             `db:"user_id" json:"user_id"`
	Type                 Type            `db:"type" json:"type"`
	Amount               decimal.Decimal `db:"amount" json:"amount" swaggertype:"string"`
	TransactionReference string          `db:"transaction_reference" json:"transaction_reference"`
	ScreenshotURL        *string         `db:"screenshot_url" json:"screenshot_url,omitempty"`
	Status               Status          `db:"status" json:"status"`
	RejectionReason      *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ProcessedBy          *int            `db:"processed_by" json:"processed_by,omitempty"`
	RequestedAt          time.Time       `db:"requested_at" json:"requested_at"`
	ProcessedAt          *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// AdminView is a request joined with its owner for the admin queue.
type AdminView struct {
	Request
	UserName  string `db:"user_name" json:"user_name"`
	UserEmail string `db:"user_email" json:"user_email"`
}

type DepositInput struct {
	Amount    decimal.Decimal
	Reference string `validate:"required,max=255"`
}

type WithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	PayoutDetails string          `json:"payout_details" validate:"required,max=255"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
