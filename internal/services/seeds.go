package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"casino-engine-backend/internal/fairness"
	"casino-engine-backend/internal/models"
)

// SeedManager owns the commit-reveal lifecycle: one active seed pair per
// account, nonces handed out atomically, rotation after RotateAfterNonces
// consumptions or on request. Revealed pairs are kept forever.
type SeedManager struct {
	store Store
	now   func() int64
}

func NewSeedManager(store Store) *SeedManager {
	return &SeedManager{store: store, now: func() int64 { return time.Now().Unix() }}
}

// GetOrCreateActive returns the account's active pair, committing a fresh
// one when none exists.
func (m *SeedManager) GetOrCreateActive(ctx context.Context, accountID string) (*models.SeedPair, error) {
	pair, err := m.store.ActiveSeedPair(ctx, accountID)
	if err == nil {
		return pair, nil
	}
	if !errors.Is(err, ErrSeedPairNotFound) {
		return nil, err
	}

	fresh, err := m.newPair(accountID)
	if err != nil {
		return nil, err
	}
	// The store resolves creation races: whichever pair activated first wins.
	return m.store.CreateSeedPair(ctx, fresh)
}

// ConsumeNonce assigns the next nonce for the account's active pair. When a
// consumption exhausts the pair it is revealed atomically by the store and
// the next bet starts a fresh pair at nonce zero.
func (m *SeedManager) ConsumeNonce(ctx context.Context, accountID string) (*models.SeedPair, int64, error) {
	for attempt := 0; attempt < 3; attempt++ {
		pair, err := m.GetOrCreateActive(ctx, accountID)
		if err != nil {
			return nil, 0, err
		}

		nonce, _, err := m.store.ConsumeNonce(ctx, pair.ID)
		if errors.Is(err, ErrSeedPairExhausted) {
			// Pair rotated between lookup and consumption; retry on
			// the replacement.
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		return pair, nonce, nil
	}
	return nil, 0, fmt.Errorf("seed pair for account %s kept rotating under us", accountID)
}

// Rotate reveals the current pair and activates a fresh one. The revealed
// pair (secret included) and the new pair are both returned.
func (m *SeedManager) Rotate(ctx context.Context, accountID string) (revealed, fresh *models.SeedPair, err error) {
	current, err := m.store.ActiveSeedPair(ctx, accountID)
	if err != nil && !errors.Is(err, ErrSeedPairNotFound) {
		return nil, nil, err
	}

	if current != nil {
		revealed, err = m.store.DeactivateSeedPair(ctx, current.ID, m.now())
		if err != nil {
			return nil, nil, err
		}
	}

	fresh, err = m.GetOrCreateActive(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	return revealed, fresh, nil
}

// Pair fetches one seed pair by id.
func (m *SeedManager) Pair(ctx context.Context, seedPairID string) (*models.SeedPair, error) {
	return m.store.SeedPair(ctx, seedPairID)
}

// History lists an account's pairs newest first for audit.
func (m *SeedManager) History(ctx context.Context, accountID string, limit int64) ([]*models.SeedPair, error) {
	if limit <= 0 {
		limit = 50
	} else if limit > 100 {
		limit = 100
	}
	return m.store.SeedPairs(ctx, accountID, limit)
}

func (m *SeedManager) newPair(accountID string) (*models.SeedPair, error) {
	secret, hash, err := fairness.GenerateSeedPair()
	if err != nil {
		return nil, err
	}
	return &models.SeedPair{
		ID:        models.GenerateSeedPairID(),
		AccountID: accountID,
		Secret:    secret,
		Hash:      hash,
		RotateAt:  RotateAfterNonces,
		Active:    true,
		CreatedAt: m.now(),
	}, nil
}
