package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"casino-engine-backend/internal/config"
	"casino-engine-backend/internal/fairness"
	"casino-engine-backend/internal/kelly"
	"casino-engine-backend/internal/models"
)

// RedisStore persists accounts, seed pairs, ledger entries and bet records in
// Redis. All check-and-mutate balance operations and nonce consumption run as
// Lua scripts so concurrent requests against one account serialize inside
// Redis instead of racing in application code.
type RedisStore struct {
	client *redis.Client

	startingBalance int64
	defaultRisk     float64
}

func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client:          client,
		startingBalance: cfg.StartingBalance,
		defaultRisk:     kelly.ClampRiskFactor(cfg.DefaultRiskFactor),
	}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// redisSeedPair is the storage shape of a seed pair. The model hides the
// secret from API serialization; storage needs it.
type redisSeedPair struct {
	ID         string `json:"id"`
	AccountID  string `json:"account_id"`
	Secret     string `json:"secret"`
	Hash       string `json:"hash"`
	Nonce      int64  `json:"nonce"`
	RotateAt   int64  `json:"rotate_at"`
	Active     bool   `json:"active"`
	RevealedAt int64  `json:"revealed_at"`
	CreatedAt  int64  `json:"created_at"`
}

func toRedisSeedPair(p *models.SeedPair) *redisSeedPair {
	return &redisSeedPair{
		ID: p.ID, AccountID: p.AccountID, Secret: p.Secret, Hash: p.Hash,
		Nonce: p.Nonce, RotateAt: p.RotateAt, Active: p.Active,
		RevealedAt: p.RevealedAt, CreatedAt: p.CreatedAt,
	}
}

func (p *redisSeedPair) toModel() *models.SeedPair {
	return &models.SeedPair{
		ID: p.ID, AccountID: p.AccountID, Secret: p.Secret, Hash: p.Hash,
		Nonce: p.Nonce, RotateAt: p.RotateAt, Active: p.Active,
		RevealedAt: p.RevealedAt, CreatedAt: p.CreatedAt,
	}
}

func (s *RedisStore) GetOrCreateAccount(ctx context.Context, accountID string) (*models.Account, error) {
	key := fmt.Sprintf(KeyAccount, accountID)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		clientSeed, err := fairness.GenerateClientSeed()
		if err != nil {
			return nil, err
		}
		now := time.Now().Unix()
		account := &models.Account{
			ID:         accountID,
			Balance:    s.startingBalance,
			RiskFactor: s.defaultRisk,
			ClientSeed: clientSeed,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		raw, err := json.Marshal(account)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal account: %w", err)
		}
		created, err := s.client.SetNX(ctx, key, raw, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		if created {
			return account, nil
		}
		// Lost the creation race; fall through to the stored one.
		data, err = s.client.Get(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to get account: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var account models.Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}

func (s *RedisStore) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyAccount, accountID)).Result()
	if err == redis.Nil {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	var account models.Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}

var setRiskFactorScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("account not found")
	end
	local account = cjson.decode(data)
	account.risk_factor = tonumber(ARGV[1])
	account.updated_at = tonumber(ARGV[2])
	redis.call("SET", KEYS[1], cjson.encode(account))
	return redis.status_reply("OK")
`)

func (s *RedisStore) SetRiskFactor(ctx context.Context, accountID string, riskFactor float64) (*models.Account, error) {
	if _, err := s.GetOrCreateAccount(ctx, accountID); err != nil {
		return nil, err
	}
	key := fmt.Sprintf(KeyAccount, accountID)
	if err := setRiskFactorScript.Run(ctx, s.client, []string{key}, riskFactor, time.Now().Unix()).Err(); err != nil {
		return nil, fmt.Errorf("failed to set risk factor: %w", err)
	}
	return s.GetAccount(ctx, accountID)
}

var creditScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("account not found")
	end
	local account = cjson.decode(data)
	local amount = tonumber(ARGV[1])

	account.balance = account.balance + amount
	if ARGV[3] == "bet_payout" then
		account.total_won = account.total_won + amount
	elseif ARGV[3] == "bet_refund" then
		account.total_wagered = account.total_wagered - amount
	end
	account.updated_at = tonumber(ARGV[4])

	local entry = cjson.decode(ARGV[2])
	entry.balance_after = account.balance

	redis.call("SET", KEYS[1], cjson.encode(account))
	redis.call("LPUSH", KEYS[2], cjson.encode(entry))
	return account.balance
`)

var debitScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("account not found")
	end
	local account = cjson.decode(data)
	local amount = tonumber(ARGV[1])

	if account.balance < amount then
		return -1
	end

	account.balance = account.balance - amount
	if ARGV[3] == "bet_reserve" then
		account.total_wagered = account.total_wagered + amount
	end
	account.updated_at = tonumber(ARGV[4])

	local entry = cjson.decode(ARGV[2])
	entry.balance_after = account.balance

	redis.call("SET", KEYS[1], cjson.encode(account))
	redis.call("LPUSH", KEYS[2], cjson.encode(entry))
	return account.balance
`)

func (s *RedisStore) Credit(ctx context.Context, accountID string, amount int64, reason, reference string) (*models.LedgerEntry, error) {
	if _, err := s.GetOrCreateAccount(ctx, accountID); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		ID:        models.GenerateEntryID(),
		AccountID: accountID,
		Type:      models.EntryTypeCredit,
		Amount:    amount,
		Reason:    reason,
		Reference: reference,
		CreatedAt: time.Now().Unix(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}

	keys := []string{fmt.Sprintf(KeyAccount, accountID), fmt.Sprintf(KeyAccountEntries, accountID)}
	balance, err := creditScript.Run(ctx, s.client, keys, amount, string(raw), reason, time.Now().Unix()).Int64()
	if err != nil {
		return nil, fmt.Errorf("failed to credit account: %w", err)
	}
	entry.BalanceAfter = balance
	return entry, nil
}

func (s *RedisStore) Debit(ctx context.Context, accountID string, amount int64, reason, reference string) (*models.LedgerEntry, bool, error) {
	if _, err := s.GetOrCreateAccount(ctx, accountID); err != nil {
		return nil, false, err
	}

	entry := &models.LedgerEntry{
		ID:        models.GenerateEntryID(),
		AccountID: accountID,
		Type:      models.EntryTypeDebit,
		Amount:    amount,
		Reason:    reason,
		Reference: reference,
		CreatedAt: time.Now().Unix(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal entry: %w", err)
	}

	keys := []string{fmt.Sprintf(KeyAccount, accountID), fmt.Sprintf(KeyAccountEntries, accountID)}
	balance, err := debitScript.Run(ctx, s.client, keys, amount, string(raw), reason, time.Now().Unix()).Int64()
	if err != nil {
		return nil, false, fmt.Errorf("failed to debit account: %w", err)
	}
	if balance < 0 {
		return nil, false, nil
	}
	entry.BalanceAfter = balance
	return entry, true, nil
}

func (s *RedisStore) Entries(ctx context.Context, accountID string, limit, offset int64) ([]*models.LedgerEntry, error) {
	key := fmt.Sprintf(KeyAccountEntries, accountID)

	raws, err := s.client.LRange(ctx, key, offset, offset+limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}

	entries := make([]*models.LedgerEntry, 0, len(raws))
	for _, raw := range raws {
		var entry models.LedgerEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (s *RedisStore) ActiveSeedPair(ctx context.Context, accountID string) (*models.SeedPair, error) {
	pairID, err := s.client.Get(ctx, fmt.Sprintf(KeyActiveSeed, accountID)).Result()
	if err == redis.Nil {
		return nil, ErrSeedPairNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active seed pointer: %w", err)
	}
	return s.SeedPair(ctx, pairID)
}

var createSeedPairScript = redis.NewScript(`
	local existing = redis.call("GET", KEYS[1])
	if existing then
		return existing
	end
	redis.call("SET", KEYS[1], ARGV[1])
	redis.call("SET", KEYS[2], ARGV[2])
	redis.call("LPUSH", KEYS[3], ARGV[1])
	return ARGV[1]
`)

func (s *RedisStore) CreateSeedPair(ctx context.Context, pair *models.SeedPair) (*models.SeedPair, error) {
	if _, err := s.GetOrCreateAccount(ctx, pair.AccountID); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(toRedisSeedPair(pair))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal seed pair: %w", err)
	}

	keys := []string{
		fmt.Sprintf(KeyActiveSeed, pair.AccountID),
		fmt.Sprintf(KeySeedPair, pair.ID),
		fmt.Sprintf(KeyAccountSeeds, pair.AccountID),
	}
	winnerID, err := createSeedPairScript.Run(ctx, s.client, keys, pair.ID, string(raw)).Text()
	if err != nil {
		return nil, fmt.Errorf("failed to create seed pair: %w", err)
	}
	if winnerID == pair.ID {
		snapshot := *pair
		return &snapshot, nil
	}
	return s.SeedPair(ctx, winnerID)
}

var consumeNonceScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("seed pair not found")
	end
	local pair = cjson.decode(data)

	if pair.active == false then
		return {-1, 0}
	end

	local nonce = pair.nonce
	pair.nonce = nonce + 1

	local rotated = 0
	if pair.nonce >= pair.rotate_at then
		pair.active = false
		pair.revealed_at = tonumber(ARGV[1])
		redis.call("DEL", KEYS[2])
		rotated = 1
	end

	redis.call("SET", KEYS[1], cjson.encode(pair))
	return {nonce, rotated}
`)

func (s *RedisStore) ConsumeNonce(ctx context.Context, seedPairID string) (int64, bool, error) {
	pair, err := s.SeedPair(ctx, seedPairID)
	if err != nil {
		return 0, false, err
	}

	keys := []string{
		fmt.Sprintf(KeySeedPair, seedPairID),
		fmt.Sprintf(KeyActiveSeed, pair.AccountID),
	}
	res, err := consumeNonceScript.Run(ctx, s.client, keys, time.Now().Unix()).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("failed to consume nonce: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("unexpected consume-nonce reply: %v", res)
	}
	if res[0] < 0 {
		return 0, false, ErrSeedPairExhausted
	}
	return res[0], res[1] == 1, nil
}

var deactivateSeedPairScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("seed pair not found")
	end
	local pair = cjson.decode(data)

	if pair.active then
		pair.active = false
		pair.revealed_at = tonumber(ARGV[1])
		redis.call("SET", KEYS[1], cjson.encode(pair))
		local ptr = redis.call("GET", KEYS[2])
		if ptr == ARGV[2] then
			redis.call("DEL", KEYS[2])
		end
	end
	return redis.status_reply("OK")
`)

func (s *RedisStore) DeactivateSeedPair(ctx context.Context, seedPairID string, revealedAt int64) (*models.SeedPair, error) {
	pair, err := s.SeedPair(ctx, seedPairID)
	if err != nil {
		return nil, err
	}

	keys := []string{
		fmt.Sprintf(KeySeedPair, seedPairID),
		fmt.Sprintf(KeyActiveSeed, pair.AccountID),
	}
	if err := deactivateSeedPairScript.Run(ctx, s.client, keys, revealedAt, seedPairID).Err(); err != nil {
		return nil, fmt.Errorf("failed to deactivate seed pair: %w", err)
	}
	return s.SeedPair(ctx, seedPairID)
}

func (s *RedisStore) SeedPair(ctx context.Context, seedPairID string) (*models.SeedPair, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeySeedPair, seedPairID)).Result()
	if err == redis.Nil {
		return nil, ErrSeedPairNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get seed pair: %w", err)
	}

	var pair redisSeedPair
	if err := json.Unmarshal([]byte(data), &pair); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed pair: %w", err)
	}
	return pair.toModel(), nil
}

func (s *RedisStore) SeedPairs(ctx context.Context, accountID string, limit int64) ([]*models.SeedPair, error) {
	ids, err := s.client.LRange(ctx, fmt.Sprintf(KeyAccountSeeds, accountID), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list seed pairs: %w", err)
	}

	pairs := make([]*models.SeedPair, 0, len(ids))
	for _, id := range ids {
		pair, err := s.SeedPair(ctx, id)
		if err != nil {
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func (s *RedisStore) SaveBetRecord(ctx context.Context, record *models.BetRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal bet record: %w", err)
	}

	if err := s.client.Set(ctx, fmt.Sprintf(KeyBet, record.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save bet record: %w", err)
	}

	indexKey := fmt.Sprintf(KeyAccountBets, record.AccountID)
	if err := s.client.ZAdd(ctx, indexKey, redis.Z{
		Score:  float64(record.CreatedAt),
		Member: record.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index bet record: %w", err)
	}
	return nil
}

func (s *RedisStore) BetRecord(ctx context.Context, betID string) (*models.BetRecord, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(KeyBet, betID)).Result()
	if err == redis.Nil {
		return nil, ErrBetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet record: %w", err)
	}

	var record models.BetRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bet record: %w", err)
	}
	return &record, nil
}

func (s *RedisStore) BetRecords(ctx context.Context, accountID string, limit, offset int64) ([]*models.BetRecord, error) {
	indexKey := fmt.Sprintf(KeyAccountBets, accountID)

	ids, err := s.client.ZRevRange(ctx, indexKey, offset, offset+limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list bet ids: %w", err)
	}

	records := make([]*models.BetRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.BetRecord(ctx, id)
		if err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *RedisStore) CheckRateLimit(ctx context.Context, accountID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, accountID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if count == 1 {
		s.client.Expire(ctx, key, window)
	}
	return count <= int64(limit), nil
}
