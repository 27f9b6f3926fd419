package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"casino-engine-backend/internal/fairness"
	"casino-engine-backend/internal/games"
	"casino-engine-backend/internal/kelly"
	"casino-engine-backend/internal/models"
)

// Settlement drives every bet through the same pipeline: validate, bankroll
// check, reserve, consume a nonce, derive the roll, resolve, persist, pay
// out. Rejections happen before any funds move or roll is consumed; once the
// wager is reserved, every failure path refunds it in full.
type Settlement struct {
	store       Store
	ledger      *Ledger
	seeds       *SeedManager
	logger      *zap.Logger
	broadcaster Broadcaster
}

func NewSettlement(store Store, logger *zap.Logger) *Settlement {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Settlement{
		store:  store,
		ledger: NewLedger(store),
		seeds:  NewSeedManager(store),
		logger: logger,
	}
}

// SetBroadcaster wires a live event sink for settled bets. The sink itself
// is typically constructed after the settlement engine, so this is a setter
// rather than a constructor argument.
func (s *Settlement) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Ledger exposes the balance ledger for the request layer.
func (s *Settlement) Ledger() *Ledger { return s.ledger }

// Seeds exposes the seed manager for the request layer.
func (s *Settlement) Seeds() *SeedManager { return s.seeds }

// PlaceBet settles one wager. It returns a *Rejection error for anything the
// caller can fix (bad input, insufficient funds, bankroll limit); other
// errors are system faults, with the reservation refunded.
func (s *Settlement) PlaceBet(ctx context.Context, accountID string, req *models.BetRequest) (*models.BetResult, error) {
	// 1. Validate the wager and game parameters before touching funds.
	if err := req.Validate(); err != nil {
		return nil, &Rejection{
			Kind:    RejectionInvalidInput,
			Message: err.Error(),
			MinBet:  models.MinBetCents,
		}
	}

	resolver, err := games.Get(req.Game)
	if err != nil {
		return nil, &Rejection{Kind: RejectionUnknownGame, Message: err.Error()}
	}
	if err := resolver.Validate(req.Params); err != nil {
		return nil, &Rejection{Kind: RejectionInvalidInput, Message: err.Error()}
	}
	odds, err := resolver.Odds(req.Params)
	if err != nil {
		return nil, &Rejection{Kind: RejectionInvalidInput, Message: err.Error()}
	}

	// 2. Bankroll-protection check against the current balance.
	account, err := s.store.GetOrCreateAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	decision, err := kelly.Enforce(req.Amount, account.Balance, odds.WinProbability, odds.PayoutMultiplier, account.RiskFactor)
	if err != nil {
		return nil, &Rejection{Kind: RejectionInvalidInput, Message: err.Error()}
	}
	if !decision.Allowed {
		return nil, &Rejection{
			Kind:    RejectionBankrollLimit,
			Message: decision.Detail,
			MaxBet:  decision.MaxBet,
		}
	}

	// 3. Reserve the wager under a fresh bet id.
	betID := models.GenerateBetID()
	reserved, err := s.ledger.Reserve(ctx, accountID, req.Amount, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve wager: %w", err)
	}
	if !reserved {
		return nil, &Rejection{
			Kind:    RejectionInsufficientBalance,
			Message: fmt.Sprintf("balance %s does not cover wager %s", models.FormatCurrency(account.Balance), models.FormatCurrency(req.Amount)),
		}
	}

	result, err := s.settleReserved(ctx, accountID, betID, req, resolver, account)
	if err != nil {
		// Funds must return whenever a reserved bet cannot settle.
		if refundErr := s.ledger.Refund(ctx, accountID, betID, req.Amount); refundErr != nil {
			s.logger.Error("refund after failed settlement also failed",
				zap.String("account_id", accountID),
				zap.String("bet_id", betID),
				zap.Int64("amount", req.Amount),
				zap.Error(refundErr))
			return nil, fmt.Errorf("settlement failed and refund failed: %v (settlement: %w)", refundErr, err)
		}
		s.logger.Warn("bet refunded after settlement failure",
			zap.String("account_id", accountID),
			zap.String("bet_id", betID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("bet settled",
		zap.String("account_id", accountID),
		zap.String("bet_id", result.BetID),
		zap.String("game", string(req.Game)),
		zap.Int64("amount", req.Amount),
		zap.Bool("won", result.Won),
		zap.Int64("amount_won", result.AmountWon),
		zap.Int64("nonce", result.Proof.Nonce))

	if s.broadcaster != nil {
		s.broadcaster.BroadcastBetSettled(accountID, result)
		s.broadcaster.BroadcastBalance(accountID, result.NewBalance)
	}
	return result, nil
}

// settleReserved runs the post-reservation pipeline. Any error returned here
// triggers a full refund in PlaceBet.
func (s *Settlement) settleReserved(ctx context.Context, accountID, betID string, req *models.BetRequest, resolver games.Resolver, account *models.Account) (*models.BetResult, error) {
	pair, nonce, err := s.seeds.ConsumeNonce(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume nonce: %w", err)
	}

	clientSeed := req.ClientSeed
	if clientSeed == "" {
		clientSeed = account.ClientSeed
	}

	roll := games.Roll{
		Value: fairness.DeriveRoll(pair.Secret, clientSeed, nonce),
		Sub: func(i int) float64 {
			return fairness.DeriveSubRoll(pair.Secret, clientSeed, nonce, i)
		},
	}

	outcome, err := resolver.Resolve(roll, req.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s bet: %w", req.Game, err)
	}

	var amountWon int64
	if outcome.Won {
		amountWon = int64(math.Round(float64(req.Amount) * outcome.Multiplier))
	}

	record := &models.BetRecord{
		ID:         betID,
		AccountID:  accountID,
		Game:       req.Game,
		Amount:     req.Amount,
		Outcome:    outcome.Payload,
		Won:        outcome.Won,
		Multiplier: outcome.Multiplier,
		AmountWon:  amountWon,
		SeedPairID: pair.ID,
		SeedHash:   pair.Hash,
		ClientSeed: clientSeed,
		Nonce:      nonce,
		ProofHash:  fairness.ProofHash(pair.Secret, clientSeed, nonce),
		CreatedAt:  time.Now().Unix(),
	}
	// Persist before paying out so a storage fault refunds cleanly instead
	// of leaving an unrecorded payout.
	if err := s.store.SaveBetRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist bet record: %w", err)
	}

	if err := s.ledger.ReleaseReservation(ctx, accountID, betID, amountWon); err != nil {
		s.logger.Error("payout release failed after bet record persisted",
			zap.String("account_id", accountID),
			zap.String("bet_id", betID),
			zap.Int64("amount_won", amountWon),
			zap.Error(err))
		return nil, fmt.Errorf("failed to release reservation: %w", err)
	}

	balance, err := s.ledger.GetBalance(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh balance: %w", err)
	}

	return &models.BetResult{
		BetID:      betID,
		Game:       req.Game,
		Amount:     req.Amount,
		Outcome:    outcome.Payload,
		Won:        outcome.Won,
		Multiplier: outcome.Multiplier,
		AmountWon:  amountWon,
		NewBalance: balance,
		Proof: models.FairnessProof{
			SeedHash:   pair.Hash,
			ClientSeed: clientSeed,
			Nonce:      nonce,
			ProofHash:  record.ProofHash,
		},
		Kelly: s.nextKelly(balance, account.RiskFactor, resolver, req.Params),
	}, nil
}

// nextKelly refreshes sizing guidance for the caller's next wager on the
// same game.
func (s *Settlement) nextKelly(balance int64, riskFactor float64, resolver games.Resolver, params models.GameParams) models.KellyInfo {
	odds, err := resolver.Odds(params)
	if err != nil {
		return models.KellyInfo{}
	}
	res, err := kelly.ComputeMaxBet(balance, odds.WinProbability, odds.PayoutMultiplier, riskFactor)
	if err != nil {
		return models.KellyInfo{}
	}
	return models.KellyInfo{
		MaxBet:        res.MaxBet,
		SuggestedBet:  res.SuggestedBet,
		BetsUntilRuin: res.BetsUntilRuin,
	}
}

// PlaceBets settles a bounded batch sequentially. Items are independent:
// a rejected item never rolls back or blocks the others.
func (s *Settlement) PlaceBets(ctx context.Context, accountID string, reqs []*models.BetRequest) ([]*models.BatchItemResult, error) {
	if len(reqs) == 0 || len(reqs) > models.MaxBatchSize {
		return nil, fmt.Errorf("%w: batch size must be 1-%d, got %d", ErrBatchTooLarge, models.MaxBatchSize, len(reqs))
	}

	results := make([]*models.BatchItemResult, len(reqs))
	for i, req := range reqs {
		item := &models.BatchItemResult{Index: i}
		result, err := s.PlaceBet(ctx, accountID, req)
		if err != nil {
			if rejection, ok := AsRejection(err); ok {
				item.Rejection = rejection
			} else {
				item.Rejection = &Rejection{Kind: RejectionInvalidInput, Message: err.Error()}
			}
		} else {
			item.Result = result
		}
		results[i] = item
	}
	return results, nil
}

// VerifyBet checks a fairness proof. Raw protocol inputs verify directly; a
// bet id verifies against the stored record, requiring the seed pair to have
// been revealed first.
func (s *Settlement) VerifyBet(ctx context.Context, req *models.VerifyRequest) (*fairness.VerifyResult, error) {
	if req.BetID == "" {
		result := fairness.Verify(req.Secret, req.SeedHash, req.ClientSeed, req.Nonce)
		return &result, nil
	}

	record, err := s.store.BetRecord(ctx, req.BetID)
	if err != nil {
		return nil, err
	}
	pair, err := s.store.SeedPair(ctx, record.SeedPairID)
	if err != nil {
		return nil, err
	}
	if !pair.Revealed() {
		return nil, fmt.Errorf("%w: rotate the seed to reveal it", ErrSeedNotRevealed)
	}

	result := fairness.Verify(pair.Secret, record.SeedHash, record.ClientSeed, record.Nonce)
	return &result, nil
}

// RotateSeed reveals the account's current seed pair and commits a new one.
func (s *Settlement) RotateSeed(ctx context.Context, accountID string) (revealed, fresh *models.SeedPair, err error) {
	revealed, fresh, err = s.seeds.Rotate(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("seed rotated",
		zap.String("account_id", accountID),
		zap.String("new_hash", fresh.Hash))
	return revealed, fresh, nil
}

// SetRiskFactor updates the account's risk setting and reports the resulting
// per-game sizing limits.
func (s *Settlement) SetRiskFactor(ctx context.Context, accountID string, riskFactor float64) (*models.Account, map[models.GameType]kelly.Result, error) {
	if riskFactor < kelly.MinRiskFactor || riskFactor > kelly.MaxRiskFactor {
		return nil, nil, &Rejection{
			Kind:    RejectionInvalidInput,
			Message: ErrInvalidRiskFactor.Error(),
		}
	}

	account, err := s.store.SetRiskFactor(ctx, accountID, riskFactor)
	if err != nil {
		return nil, nil, err
	}

	limits := make(map[models.GameType]kelly.Result)
	for _, kind := range games.Kinds() {
		odds, err := games.ReferenceOdds(kind)
		if err != nil {
			continue
		}
		res, err := kelly.ComputeMaxBet(account.Balance, odds.WinProbability, odds.PayoutMultiplier, account.RiskFactor)
		if err != nil {
			continue
		}
		limits[kind] = res
	}
	return account, limits, nil
}

// BalanceSummary returns the account's balance, aggregates and live
// commitment state.
func (s *Settlement) BalanceSummary(ctx context.Context, accountID string) (*models.BalanceSummary, error) {
	account, err := s.store.GetOrCreateAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	pair, err := s.seeds.GetOrCreateActive(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &models.BalanceSummary{
		AccountID:    account.ID,
		Balance:      account.Balance,
		RiskFactor:   account.RiskFactor,
		TotalWagered: account.TotalWagered,
		TotalWon:     account.TotalWon,
		ClientSeed:   account.ClientSeed,
		SeedHash:     pair.Hash,
		NextNonce:    pair.Nonce,
	}, nil
}

// VerificationData returns what a player should record before betting.
func (s *Settlement) VerificationData(ctx context.Context, accountID string) (*models.VerificationData, error) {
	summary, err := s.BalanceSummary(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &models.VerificationData{
		ClientSeed:   summary.ClientSeed,
		SeedHash:     summary.SeedHash,
		CurrentNonce: summary.NextNonce,
	}, nil
}
