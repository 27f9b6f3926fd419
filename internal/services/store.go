package services

import (
	"context"
	"time"

	"casino-engine-backend/internal/models"
)

// RotateAfterNonces is how many nonces one seed pair serves before it is
// revealed and replaced.
const RotateAfterNonces int64 = 1000

// Store is the persistence contract of the settlement core. Every balance
// and nonce primitive is atomic per account: implementations must never
// split a check from its mutation.
type Store interface {
	// GetOrCreateAccount returns the account, creating it with the
	// configured starting balance and a fresh default client seed.
	GetOrCreateAccount(ctx context.Context, accountID string) (*models.Account, error)
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
	SetRiskFactor(ctx context.Context, accountID string, riskFactor float64) (*models.Account, error)

	// Credit atomically increases the balance and appends a ledger entry.
	// A ReasonBetPayout credit also rolls into the lifetime-won counter.
	Credit(ctx context.Context, accountID string, amount int64, reason, reference string) (*models.LedgerEntry, error)
	// Debit atomically checks and decreases the balance; ok is false and
	// nothing changes when the balance is short. A ReasonBetReserve debit
	// also rolls into the lifetime-wagered counter.
	Debit(ctx context.Context, accountID string, amount int64, reason, reference string) (*models.LedgerEntry, bool, error)
	// Entries returns ledger entries newest first.
	Entries(ctx context.Context, accountID string, limit, offset int64) ([]*models.LedgerEntry, error)

	// ActiveSeedPair returns the account's active pair or ErrSeedPairNotFound.
	ActiveSeedPair(ctx context.Context, accountID string) (*models.SeedPair, error)
	// CreateSeedPair activates the pair only if the account has no active
	// pair; the returned pair is whichever one won the race.
	CreateSeedPair(ctx context.Context, pair *models.SeedPair) (*models.SeedPair, error)
	// ConsumeNonce atomically hands out the pair's next nonce (the
	// pre-increment value). When the consumption hits the rotation
	// threshold the pair is deactivated and revealed in the same atomic
	// step and rotated reports true. An already-inactive pair yields
	// ErrSeedPairExhausted.
	ConsumeNonce(ctx context.Context, seedPairID string) (nonce int64, rotated bool, err error)
	// DeactivateSeedPair reveals a pair on explicit rotation.
	DeactivateSeedPair(ctx context.Context, seedPairID string, revealedAt int64) (*models.SeedPair, error)
	SeedPair(ctx context.Context, seedPairID string) (*models.SeedPair, error)
	SeedPairs(ctx context.Context, accountID string, limit int64) ([]*models.SeedPair, error)

	SaveBetRecord(ctx context.Context, record *models.BetRecord) error
	BetRecord(ctx context.Context, betID string) (*models.BetRecord, error)
	// BetRecords returns settled bets newest first.
	BetRecords(ctx context.Context, accountID string, limit, offset int64) ([]*models.BetRecord, error)

	CheckRateLimit(ctx context.Context, accountID, action string, limit int, window time.Duration) (bool, error)

	Close() error
}
