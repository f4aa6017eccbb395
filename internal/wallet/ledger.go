package wallet

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"serviceconnect/internal/api"
)

// Ledger applies balance movements inside a transaction owned by the caller.
// Every movement writes exactly one wallet_transactions row.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

func (l *Ledger) Credit(ctx context.Context, tx *sqlx.Tx, userID int, amount decimal.Decimal, txType TxType, relatedID *int) (*Transaction, error) {
	if !txType.IsCredit() {
		return nil, fmt.Errorf("ledger: %s is not a credit type", txType)
	}
	return l.apply(ctx, tx, userID, amount, txType, relatedID)
}

// Debit fails with api.ErrInsufficientFunds when the balance would go negative.
// The caller must roll back its transaction on any error.
func (l *Ledger) Debit(ctx context.Context, tx *sqlx.Tx, userID int, amount decimal.Decimal, txType TxType, relatedID *int) (*Transaction, error) {
	if !txType.Valid() || txType.IsCredit() {
		return nil, fmt.Errorf("ledger: %s is not a debit type", txType)
	}
	return l.apply(ctx, tx, userID, amount, txType, relatedID)
}

func (l *Ledger) apply(ctx context.Context, tx *sqlx.Tx, userID int, amount decimal.Decimal, txType TxType, relatedID *int) (*Transaction, error) {
	if err := api.ValidateAmount(amount); err != nil {
		return nil, err
	}

	w, err := l.repo.LockByUserID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	balance := w.Balance.Add(amount)
	if !txType.IsCredit() {
		balance = w.Balance.Sub(amount)
	}
	if balance.IsNegative() {
		return nil, api.Errorf(api.ErrInsufficientFunds,
			"balance %s is less than %s", w.Balance.StringFixed(2), amount.StringFixed(2))
	}
	if balance.GreaterThan(api.MaxAmount) {
		return nil, api.Errorf(api.ErrValidation,
			"balance for user %d would exceed %s", userID, api.MaxAmount.StringFixed(2))
	}

	if err := l.repo.UpdateBalance(ctx, tx, userID, balance); err != nil {
		return nil, fmt.Errorf("update balance for user %d: %w", userID, err)
	}

	t := &Transaction{
		UserID:       userID,
		Type:         txType,
		Amount:       amount,
		RelatedID:    relatedID,
		BalanceAfter: balance,
	}
	if err := l.repo.InsertTransaction(ctx, tx, t); err != nil {
		return nil, fmt.Errorf("record %s for user %d: %w", txType, userID, err)
	}
	return t, nil
}

// LockWallets locks the given wallets in ascending user id order so that
// concurrent multi-wallet operations cannot deadlock.
func (l *Ledger) LockWallets(ctx context.Context, tx *sqlx.Tx, userIDs ...int) (map[int]*Wallet, error) {
	ids := append([]int(nil), userIDs...)
	sort.Ints(ids)

	locked := make(map[int]*Wallet, len(ids))
	for _, id := range ids {
		if _, ok := locked[id]; ok {
			continue
		}
		w, err := l.repo.LockByUserID(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = w
	}
	return locked, nil
}

// Reconcile compares the stored balance against the transaction log. Both are
// read by one statement so a concurrent movement cannot show up as drift.
func (l *Ledger) Reconcile(ctx context.Context, userID int) (*Reconciliation, error) {
	totals, err := l.repo.TransactionTotals(ctx, userID)
	if err != nil {
		return nil, err
	}

	expected := totals.Credits.Sub(totals.Debits)
	diff := totals.Balance.Sub(expected)
	return &Reconciliation{
		UserID:     userID,
		Balance:    totals.Balance,
		Credits:    totals.Credits,
		Debits:     totals.Debits,
		Difference: diff,
		Consistent: diff.IsZero() && !totals.Balance.IsNegative(),
	}, nil
}
