package models

type EntryType string

const (
	EntryTypeCredit EntryType = "credit"
	EntryTypeDebit  EntryType = "debit"
)

// Reason tags carried on ledger entries. Reserve debits roll into the
// account's lifetime wagered counter, payout credits into lifetime won.
const (
	ReasonDeposit    = "deposit"
	ReasonWithdraw   = "withdraw"
	ReasonBetReserve = "bet_reserve"
	ReasonBetPayout  = "bet_payout"
	ReasonBetRefund  = "bet_refund"
)

// LedgerEntry is an immutable fact: one balance mutation. The signed sum of
// an account's entries always reconstructs its balance.
type LedgerEntry struct {
	ID        string    `json:"id" redis:"id"`
	AccountID string    `json:"account_id" redis:"account_id"`
	Type      EntryType `json:"type" redis:"type"`

	Amount       int64 `json:"amount" redis:"amount"`
	BalanceAfter int64 `json:"balance_after" redis:"balance_after"`

	Reason    string `json:"reason" redis:"reason"`
	Reference string `json:"reference,omitempty" redis:"reference"`
	CreatedAt int64  `json:"created_at" redis:"created_at"`
}

// Signed returns the entry's contribution to the balance.
func (e *LedgerEntry) Signed() int64 {
	if e.Type == EntryTypeDebit {
		return -e.Amount
	}
	return e.Amount
}
