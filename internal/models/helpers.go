package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// MinBetCents is the smallest accepted wager (one cent).
	MinBetCents int64 = 1
	// MaxBetCents caps a single wager at $10,000.
	MaxBetCents int64 = 1000000
	// MaxBatchSize bounds the batch bet endpoint.
	MaxBatchSize = 20
)

func GenerateBetID() string {
	return fmt.Sprintf("bet_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateEntryID() string {
	return fmt.Sprintf("txn_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateSeedPairID() string {
	return uuid.New().String()
}

// Validate checks the game-independent parts of a wager.
func (br *BetRequest) Validate() error {
	if br.Amount < MinBetCents {
		return fmt.Errorf("bet amount must be at least %d cent", MinBetCents)
	}
	if br.Amount > MaxBetCents {
		return fmt.Errorf("maximum bet amount is %d cents", MaxBetCents)
	}
	// Game types are validated against the resolver registry, not here.
	return nil
}

func FormatCurrency(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
