package services

import (
	"context"
	"fmt"

	"casino-engine-backend/internal/models"
)

// Ledger is the single source of truth for spendable balances. It layers the
// business contract (positive amounts, reservation semantics) over the
// store's atomic primitives; the atomicity itself lives in the Store.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

func (l *Ledger) GetBalance(ctx context.Context, accountID string) (int64, error) {
	account, err := l.store.GetOrCreateAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Credit increases the balance and appends an entry. Amount must be positive.
func (l *Ledger) Credit(ctx context.Context, accountID string, amount int64, reason, reference string) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	return l.store.Credit(ctx, accountID, amount, reason, reference)
}

// Debit decreases the balance if it covers amount; returns false with no
// state change otherwise.
func (l *Ledger) Debit(ctx context.Context, accountID string, amount int64, reason, reference string) (*models.LedgerEntry, bool, error) {
	if amount <= 0 {
		return nil, false, fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	return l.store.Debit(ctx, accountID, amount, reason, reference)
}

// Reserve holds the wager for a bet. A reservation is a debit tagged with
// the bet id; it must always be resolved by ReleaseReservation or Refund.
func (l *Ledger) Reserve(ctx context.Context, accountID string, amount int64, reservationID string) (bool, error) {
	_, ok, err := l.Debit(ctx, accountID, amount, models.ReasonBetReserve, reservationID)
	return ok, err
}

// ReleaseReservation settles a reservation: a win credits the payout back, a
// total loss releases with zero and appends nothing (the reserve debit is
// already the final ledger fact).
func (l *Ledger) ReleaseReservation(ctx context.Context, accountID, reservationID string, returnAmount int64) error {
	if returnAmount == 0 {
		return nil
	}
	_, err := l.Credit(ctx, accountID, returnAmount, models.ReasonBetPayout, reservationID)
	return err
}

// Refund compensates a reservation whose bet could not settle, returning the
// full wager under a refund tag so it never counts as winnings.
func (l *Ledger) Refund(ctx context.Context, accountID, reservationID string, amount int64) error {
	_, err := l.Credit(ctx, accountID, amount, models.ReasonBetRefund, reservationID)
	return err
}

// GetHistory returns ledger entries newest first, restartable via offset.
func (l *Ledger) GetHistory(ctx context.Context, accountID string, limit, offset int64) ([]*models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	} else if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return l.store.Entries(ctx, accountID, limit, offset)
}
