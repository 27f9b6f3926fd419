package services

import (
	"context"
	"sync"
	"time"

	"casino-engine-backend/internal/fairness"
	"casino-engine-backend/internal/kelly"
	"casino-engine-backend/internal/models"
)

// MemoryStore is the in-process Store used for development and tests. All
// mutation of one account's records happens under that account's mutex, which
// gives the same single-writer-per-account guarantee the Redis scripts do.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*memoryAccount

	// pairs holds immutable snapshots: mutation replaces the stored
	// pointer under the owning account's mutex, so by-id readers never
	// observe a partially-updated pair.
	pairs map[string]*models.SeedPair
	bets  map[string]*models.BetRecord

	limitsMu sync.Mutex
	limits   map[string]*rateWindow

	startingBalance int64
	defaultRisk     float64
}

type memoryAccount struct {
	mu      sync.Mutex
	account models.Account
	entries []*models.LedgerEntry // append order, oldest first
	seedIDs []string              // newest first
	betIDs  []string              // newest first
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// NewMemoryStore builds an empty store. New accounts start with
// startingBalance cents and defaultRisk as their risk factor.
func NewMemoryStore(startingBalance int64, defaultRisk float64) *MemoryStore {
	return &MemoryStore{
		accounts:        make(map[string]*memoryAccount),
		pairs:           make(map[string]*models.SeedPair),
		bets:            make(map[string]*models.BetRecord),
		limits:          make(map[string]*rateWindow),
		startingBalance: startingBalance,
		defaultRisk:     kelly.ClampRiskFactor(defaultRisk),
	}
}

func (s *MemoryStore) getOrCreate(accountID string) (*memoryAccount, error) {
	s.mu.RLock()
	acct, ok := s.accounts[accountID]
	s.mu.RUnlock()
	if ok {
		return acct, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[accountID]; ok {
		return acct, nil
	}

	clientSeed, err := fairness.GenerateClientSeed()
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	acct = &memoryAccount{
		account: models.Account{
			ID:         accountID,
			Balance:    s.startingBalance,
			RiskFactor: s.defaultRisk,
			ClientSeed: clientSeed,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
	s.accounts[accountID] = acct
	return acct, nil
}

func (s *MemoryStore) lookup(accountID string) (*memoryAccount, error) {
	s.mu.RLock()
	acct, ok := s.accounts[accountID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

func (s *MemoryStore) GetOrCreateAccount(_ context.Context, accountID string) (*models.Account, error) {
	acct, err := s.getOrCreate(accountID)
	if err != nil {
		return nil, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	snapshot := acct.account
	return &snapshot, nil
}

func (s *MemoryStore) GetAccount(_ context.Context, accountID string) (*models.Account, error) {
	acct, err := s.lookup(accountID)
	if err != nil {
		return nil, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	snapshot := acct.account
	return &snapshot, nil
}

func (s *MemoryStore) SetRiskFactor(_ context.Context, accountID string, riskFactor float64) (*models.Account, error) {
	acct, err := s.getOrCreate(accountID)
	if err != nil {
		return nil, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	acct.account.RiskFactor = riskFactor
	acct.account.UpdatedAt = time.Now().Unix()
	snapshot := acct.account
	return &snapshot, nil
}

func (s *MemoryStore) Credit(_ context.Context, accountID string, amount int64, reason, reference string) (*models.LedgerEntry, error) {
	acct, err := s.getOrCreate(accountID)
	if err != nil {
		return nil, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	acct.account.Balance += amount
	switch reason {
	case models.ReasonBetPayout:
		acct.account.TotalWon += amount
	case models.ReasonBetRefund:
		// A refunded bet never settled, so it leaves the wagered total.
		acct.account.TotalWagered -= amount
	}
	acct.account.UpdatedAt = time.Now().Unix()

	entry := &models.LedgerEntry{
		ID:           models.GenerateEntryID(),
		AccountID:    accountID,
		Type:         models.EntryTypeCredit,
		Amount:       amount,
		BalanceAfter: acct.account.Balance,
		Reason:       reason,
		Reference:    reference,
		CreatedAt:    time.Now().Unix(),
	}
	acct.entries = append(acct.entries, entry)
	return entry, nil
}

func (s *MemoryStore) Debit(_ context.Context, accountID string, amount int64, reason, reference string) (*models.LedgerEntry, bool, error) {
	acct, err := s.getOrCreate(accountID)
	if err != nil {
		return nil, false, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	if acct.account.Balance < amount {
		return nil, false, nil
	}

	acct.account.Balance -= amount
	if reason == models.ReasonBetReserve {
		acct.account.TotalWagered += amount
	}
	acct.account.UpdatedAt = time.Now().Unix()

	entry := &models.LedgerEntry{
		ID:           models.GenerateEntryID(),
		AccountID:    accountID,
		Type:         models.EntryTypeDebit,
		Amount:       amount,
		BalanceAfter: acct.account.Balance,
		Reason:       reason,
		Reference:    reference,
		CreatedAt:    time.Now().Unix(),
	}
	acct.entries = append(acct.entries, entry)
	return entry, true, nil
}

func (s *MemoryStore) Entries(_ context.Context, accountID string, limit, offset int64) ([]*models.LedgerEntry, error) {
	acct, err := s.lookup(accountID)
	if err != nil {
		return nil, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	total := int64(len(acct.entries))
	entries := make([]*models.LedgerEntry, 0, limit)
	for i := total - 1 - offset; i >= 0 && int64(len(entries)) < limit; i-- {
		copied := *acct.entries[i]
		entries = append(entries, &copied)
	}
	return entries, nil
}

func (s *MemoryStore) ActiveSeedPair(_ context.Context, accountID string) (*models.SeedPair, error) {
	acct, err := s.lookup(accountID)
	if err != nil {
		return nil, ErrSeedPairNotFound
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()
	return s.activePairLocked(acct)
}

func (s *MemoryStore) activePairLocked(acct *memoryAccount) (*models.SeedPair, error) {
	if len(acct.seedIDs) == 0 {
		return nil, ErrSeedPairNotFound
	}
	s.mu.RLock()
	pair := s.pairs[acct.seedIDs[0]]
	s.mu.RUnlock()
	if pair == nil || !pair.Active {
		return nil, ErrSeedPairNotFound
	}
	snapshot := *pair
	return &snapshot, nil
}

func (s *MemoryStore) CreateSeedPair(_ context.Context, pair *models.SeedPair) (*models.SeedPair, error) {
	acct, err := s.getOrCreate(pair.AccountID)
	if err != nil {
		return nil, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	if existing, err := s.activePairLocked(acct); err == nil {
		return existing, nil
	}

	stored := *pair
	s.mu.Lock()
	s.pairs[pair.ID] = &stored
	s.mu.Unlock()
	acct.seedIDs = append([]string{pair.ID}, acct.seedIDs...)

	snapshot := stored
	return &snapshot, nil
}

func (s *MemoryStore) ConsumeNonce(_ context.Context, seedPairID string) (int64, bool, error) {
	s.mu.RLock()
	pair := s.pairs[seedPairID]
	s.mu.RUnlock()
	if pair == nil {
		return 0, false, ErrSeedPairNotFound
	}

	acct, err := s.lookup(pair.AccountID)
	if err != nil {
		return 0, false, ErrSeedPairNotFound
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	// Re-read under the account lock: a concurrent consumption may have
	// replaced the snapshot.
	s.mu.RLock()
	pair = s.pairs[seedPairID]
	s.mu.RUnlock()

	if !pair.Active {
		return 0, false, ErrSeedPairExhausted
	}

	updated := *pair
	nonce := updated.Nonce
	updated.Nonce++

	rotated := false
	if updated.Nonce >= updated.RotateAt {
		updated.Active = false
		updated.RevealedAt = time.Now().Unix()
		rotated = true
	}

	s.mu.Lock()
	s.pairs[seedPairID] = &updated
	s.mu.Unlock()
	return nonce, rotated, nil
}

func (s *MemoryStore) DeactivateSeedPair(_ context.Context, seedPairID string, revealedAt int64) (*models.SeedPair, error) {
	s.mu.RLock()
	pair := s.pairs[seedPairID]
	s.mu.RUnlock()
	if pair == nil {
		return nil, ErrSeedPairNotFound
	}

	acct, err := s.lookup(pair.AccountID)
	if err != nil {
		return nil, ErrSeedPairNotFound
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	s.mu.RLock()
	pair = s.pairs[seedPairID]
	s.mu.RUnlock()

	if pair.Active {
		updated := *pair
		updated.Active = false
		updated.RevealedAt = revealedAt

		s.mu.Lock()
		s.pairs[seedPairID] = &updated
		s.mu.Unlock()
		pair = &updated
	}
	snapshot := *pair
	return &snapshot, nil
}

func (s *MemoryStore) SeedPair(_ context.Context, seedPairID string) (*models.SeedPair, error) {
	s.mu.RLock()
	pair := s.pairs[seedPairID]
	s.mu.RUnlock()
	if pair == nil {
		return nil, ErrSeedPairNotFound
	}
	snapshot := *pair
	return &snapshot, nil
}

func (s *MemoryStore) SeedPairs(_ context.Context, accountID string, limit int64) ([]*models.SeedPair, error) {
	acct, err := s.lookup(accountID)
	if err != nil {
		return nil, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	pairs := make([]*models.SeedPair, 0, limit)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range acct.seedIDs {
		if int64(len(pairs)) >= limit {
			break
		}
		if pair := s.pairs[id]; pair != nil {
			snapshot := *pair
			pairs = append(pairs, &snapshot)
		}
	}
	return pairs, nil
}

func (s *MemoryStore) SaveBetRecord(_ context.Context, record *models.BetRecord) error {
	acct, err := s.getOrCreate(record.AccountID)
	if err != nil {
		return err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	stored := *record
	s.mu.Lock()
	s.bets[record.ID] = &stored
	s.mu.Unlock()
	acct.betIDs = append([]string{record.ID}, acct.betIDs...)
	return nil
}

func (s *MemoryStore) BetRecord(_ context.Context, betID string) (*models.BetRecord, error) {
	s.mu.RLock()
	record := s.bets[betID]
	s.mu.RUnlock()
	if record == nil {
		return nil, ErrBetNotFound
	}
	snapshot := *record
	return &snapshot, nil
}

func (s *MemoryStore) BetRecords(_ context.Context, accountID string, limit, offset int64) ([]*models.BetRecord, error) {
	acct, err := s.lookup(accountID)
	if err != nil {
		return nil, err
	}
	acct.mu.Lock()
	defer acct.mu.Unlock()

	records := make([]*models.BetRecord, 0, limit)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := offset; i < int64(len(acct.betIDs)) && int64(len(records)) < limit; i++ {
		if record := s.bets[acct.betIDs[i]]; record != nil {
			snapshot := *record
			records = append(records, &snapshot)
		}
	}
	return records, nil
}

func (s *MemoryStore) CheckRateLimit(_ context.Context, accountID, action string, limit int, window time.Duration) (bool, error) {
	s.limitsMu.Lock()
	defer s.limitsMu.Unlock()

	key := accountID + ":" + action
	now := time.Now()
	w := s.limits[key]
	if w == nil || now.After(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(window)}
		s.limits[key] = w
	}
	w.count++
	return w.count <= limit, nil
}

func (s *MemoryStore) Close() error { return nil }
