package walletrequest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"

	"serviceconnect/internal/api"
	"serviceconnect/internal/db"
	"serviceconnect/internal/logger"
	"serviceconnect/internal/metrics"
	"serviceconnect/internal/notify"
	"serviceconnect/internal/upload"
	"serviceconnect/internal/wallet"
)

// ProofStore keeps deposit proof images.
type ProofStore interface {
	SaveImage(r io.Reader, filename string) (*upload.File, error)
	Remove(name string) error
}

type Service interface {
	SubmitDeposit(ctx context.Context, userID int, in DepositInput, proof io.Reader, filename string) (*Request, error)
	SubmitWithdrawal(ctx context.Context, userID int, req WithdrawalRequest) (*Request, error)
	Approve(ctx context.Context, adminID, requestID int) (*Request, error)
	Reject(ctx context.Context, adminID, requestID int, reason string) (*Request, error)
	ListMine(ctx context.Context, userID, limit, offset int) ([]Request, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]AdminView, error)
}

type service struct {
	db       *sqlx.DB
	repo     Repository
	wallets  wallet.Repository
	ledger   *wallet.Ledger
	store    ProofStore
	notifier notify.Notifier
}

func NewService(database *sqlx.DB, repo Repository, wallets wallet.Repository, ledger *wallet.Ledger, store ProofStore, notifier notify.Notifier) Service {
	return &service{
		db:       database,
		repo:     repo,
		wallets:  wallets,
		ledger:   ledger,
		store:    store,
		notifier: notifier,
	}
}

func (s *service) SubmitDeposit(ctx context.Context, userID int, in DepositInput, proof io.Reader, filename string) (*Request, error) {
	in.Reference = strings.TrimSpace(in.Reference)
	if err := api.ValidateAmount(in.Amount); err != nil {
		return nil, err
	}
	if err := api.ValidateStruct(in); err != nil {
		return nil, err
	}
	if proof == nil {
		return nil, api.Errorf(api.ErrValidation, "payment proof image is required")
	}

	file, err := s.store.SaveImage(proof, filename)
	if err != nil {
		return nil, err
	}

	req := &Request{
		UserID:               userID,
		Type:                 TypeDeposit,
		Amount:               in.Amount,
		TransactionReference: in.Reference,
		ScreenshotURL:        &file.URL,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		if rmErr := s.store.Remove(file.Name); rmErr != nil {
			logger.Warn("orphaned deposit proof", "file", file.Name, "error", rmErr)
		}
		return nil, err
	}

	metrics.RecordWalletRequest(string(TypeDeposit), "submitted")
	logger.Info("deposit requested", "request_id", req.ID, "user_id", userID, "amount", in.Amount.StringFixed(2))
	return req, nil
}

// SubmitWithdrawal checks the balance up front so obviously unfundable
// requests never reach the admin queue. Approval checks again under lock.
func (s *service) SubmitWithdrawal(ctx context.Context, userID int, in WithdrawalRequest) (*Request, error) {
	in.PayoutDetails = strings.TrimSpace(in.PayoutDetails)
	if err := api.ValidateAmount(in.Amount); err != nil {
		return nil, err
	}
	if err := api.ValidateStruct(in); err != nil {
		return nil, err
	}

	w, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if w.Balance.LessThan(in.Amount) {
		return nil, api.Errorf(api.ErrInsufficientFunds,
			"balance %s is less than %s", w.Balance.StringFixed(2), in.Amount.StringFixed(2))
	}

	req := &Request{
		UserID:               userID,
		Type:                 TypeWithdrawal,
		Amount:               in.Amount,
		TransactionReference: in.PayoutDetails,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	metrics.RecordWalletRequest(string(TypeWithdrawal), "submitted")
	logger.Info("withdrawal requested", "request_id", req.ID, "user_id", userID, "amount", in.Amount.StringFixed(2))
	return req, nil
}

// resolve locks the request, runs apply while it is still pending and marks
// it processed in the same transaction.
func (s *service) resolve(ctx context.Context, adminID, requestID int, status Status, reason *string,
	apply func(tx *sqlx.Tx, r *Request) error) (*Request, error) {

	var resolved *Request
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		r, err := s.repo.LockByID(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if r.Status != StatusPending {
			return api.Errorf(api.ErrRequestAlreadyProcessed, "wallet request %d is already %s", r.ID, r.Status)
		}

		if apply != nil {
			if err := apply(tx, r); err != nil {
				return err
			}
		}

		ok, err := s.repo.MarkProcessed(ctx, tx, r.ID, status, adminID, reason)
		if err != nil {
			return err
		}
		if !ok {
			return api.Errorf(api.ErrRequestAlreadyProcessed, "wallet request %d is no longer pending", r.ID)
		}

		r.Status = status
		r.ProcessedBy = &adminID
		r.RejectionReason = reason
		resolved = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordWalletRequest(string(resolved.Type), string(status))
	logger.Info("wallet request resolved",
		"request_id", resolved.ID,
		"type", string(resolved.Type),
		"status", string(status),
		"admin_id", adminID,
	)
	return resolved, nil
}

func (s *service) Approve(ctx context.Context, adminID, requestID int) (*Request, error) {
	var movement wallet.TxType
	r, err := s.resolve(ctx, adminID, requestID, StatusApproved, nil, func(tx *sqlx.Tx, r *Request) error {
		related := r.ID
		var err error
		switch r.Type {
		case TypeDeposit:
			movement = wallet.TxDepositApproved
			_, err = s.ledger.Credit(ctx, tx, r.UserID, r.Amount, movement, &related)
		case TypeWithdrawal:
			movement = wallet.TxWithdrawalSent
			_, err = s.ledger.Debit(ctx, tx, r.UserID, r.Amount, movement, &related)
		default:
			err = fmt.Errorf("wallet request %d has unknown type %q", r.ID, r.Type)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordWalletMovement(string(movement))
	s.notifier.Notify(ctx, r.UserID, fmt.Sprintf("Your %s was approved", r.Type),
		fmt.Sprintf("Your %s request #%d for %s was approved.", r.Type, r.ID, r.Amount.StringFixed(2)))
	return r, nil
}

func (s *service) Reject(ctx context.Context, adminID, requestID int, reason string) (*Request, error) {
	var why *string
	if reason = strings.TrimSpace(reason); reason != "" {
		why = &reason
	}

	r, err := s.resolve(ctx, adminID, requestID, StatusRejected, why, nil)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Your %s request #%d for %s was rejected.", r.Type, r.ID, r.Amount.StringFixed(2))
	if why != nil {
		body += " Reason: " + reason
	}
	s.notifier.Notify(ctx, r.UserID, fmt.Sprintf("Your %s was rejected", r.Type), body)
	return r, nil
}

func (s *service) ListMine(ctx context.Context, userID, limit, offset int) ([]Request, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *service) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]AdminView, error) {
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return nil, api.Errorf(api.ErrValidation, "unknown status %q", status)
	}
	return s.repo.ListByStatus(ctx, status, limit, offset)
}
