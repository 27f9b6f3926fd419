package services

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the settlement core.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotFound     = errors.New("account not found")
	ErrSeedPairNotFound    = errors.New("seed pair not found")
	ErrSeedPairExhausted   = errors.New("seed pair exhausted")
	ErrSeedNotRevealed     = errors.New("server seed not yet revealed")
	ErrBetNotFound         = errors.New("bet not found")
	ErrBatchTooLarge       = errors.New("too many bets in batch")
	ErrInvalidRiskFactor   = errors.New("risk factor must be between 0.1 and 1.0")
)

// RejectionKind is the stable error-kind tag surfaced to callers.
type RejectionKind string

const (
	RejectionInvalidInput        RejectionKind = "invalid_input"
	RejectionUnknownGame         RejectionKind = "unknown_game"
	RejectionInsufficientBalance RejectionKind = "insufficient_balance"
	RejectionBankrollLimit       RejectionKind = "bankroll_limit"
)

// Rejection is a structured bet refusal: no funds moved, no roll consumed.
// It carries enough numeric context for an automated caller to self-correct.
type Rejection struct {
	Kind    RejectionKind `json:"error_kind"`
	Message string        `json:"message"`
	MaxBet  int64         `json:"max_bet,omitempty"`
	MinBet  int64         `json:"min_bet,omitempty"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// AsRejection extracts a Rejection from an error chain.
func AsRejection(err error) (*Rejection, bool) {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}
