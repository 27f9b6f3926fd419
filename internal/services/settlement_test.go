package services_test

import (
	"context"
	"errors"
	"testing"

	"casino-engine-backend/internal/games"
	"casino-engine-backend/internal/models"
	"casino-engine-backend/internal/services"
)

func newTestSettlement(startingBalance int64) (*services.Settlement, *services.MemoryStore) {
	store := services.NewMemoryStore(startingBalance, 0.5)
	return services.NewSettlement(store, nil), store
}

func coinflipRequest(amount int64) *models.BetRequest {
	return &models.BetRequest{
		Game:   models.GameTypeCoinFlip,
		Amount: amount,
		Params: models.GameParams{Side: games.SideHeads},
	}
}

func TestPlaceBetSettles(t *testing.T) {
	settlement, store := newTestSettlement(10000)
	ctx := context.Background()
	accountID := "acct-settle"

	result, err := settlement.PlaceBet(ctx, accountID, coinflipRequest(100))
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}

	if result.BetID == "" {
		t.Error("Settled bet should carry an id")
	}
	if result.Won {
		if result.AmountWon != 198 {
			t.Errorf("Coinflip win on 100 should pay 198, got %d", result.AmountWon)
		}
		if result.NewBalance != 10000-100+198 {
			t.Errorf("Expected balance %d, got %d", 10000-100+198, result.NewBalance)
		}
	} else {
		if result.AmountWon != 0 {
			t.Errorf("Loss should pay nothing, got %d", result.AmountWon)
		}
		if result.NewBalance != 9900 {
			t.Errorf("Expected balance 9900, got %d", result.NewBalance)
		}
	}

	if result.Proof.SeedHash == "" || result.Proof.ProofHash == "" {
		t.Error("Settlement must include the fairness proof")
	}
	if result.Proof.Nonce != 0 {
		t.Errorf("First bet should consume nonce 0, got %d", result.Proof.Nonce)
	}
	if result.Kelly.MaxBet <= 0 {
		t.Error("Settlement should refresh a positive sizing limit")
	}

	record, err := store.BetRecord(ctx, result.BetID)
	if err != nil {
		t.Fatalf("Bet record not persisted: %v", err)
	}
	if record.Won != result.Won || record.AmountWon != result.AmountWon {
		t.Errorf("Persisted record disagrees with result: %+v vs %+v", record, result)
	}

	// The next bet consumes the next nonce under the same commitment.
	second, err := settlement.PlaceBet(ctx, accountID, coinflipRequest(100))
	if err != nil {
		t.Fatalf("Second PlaceBet failed: %v", err)
	}
	if second.Proof.Nonce != 1 {
		t.Errorf("Second bet should consume nonce 1, got %d", second.Proof.Nonce)
	}
	if second.Proof.SeedHash != result.Proof.SeedHash {
		t.Error("Commitment should be stable between rotations")
	}
}

func TestPlaceBetInsufficientBalance(t *testing.T) {
	settlement, store := newTestSettlement(50)
	ctx := context.Background()
	accountID := "acct-broke"

	_, err := settlement.PlaceBet(ctx, accountID, coinflipRequest(40))
	if err == nil {
		t.Fatal("Bet above the bankroll limit or balance should be refused")
	}
	rejection, ok := services.AsRejection(err)
	if !ok {
		t.Fatalf("Expected a structured rejection, got %v", err)
	}
	if rejection.Kind != services.RejectionBankrollLimit && rejection.Kind != services.RejectionInsufficientBalance {
		t.Errorf("Unexpected rejection kind %s", rejection.Kind)
	}

	account, err := store.GetAccount(ctx, accountID)
	if err != nil {
		t.Fatalf("Failed to load account: %v", err)
	}
	if account.Balance != 50 {
		t.Errorf("Rejected bet must not move funds, balance is %d", account.Balance)
	}
	if account.TotalWagered != 0 {
		t.Errorf("Rejected bet must not count as wagered, got %d", account.TotalWagered)
	}
	entries, _ := store.Entries(ctx, accountID, 10, 0)
	if len(entries) != 0 {
		t.Errorf("Rejected bet must not append ledger entries, got %d", len(entries))
	}

	// The rejection happened before the seed stage: no nonce was consumed.
	data, err := settlement.VerificationData(ctx, accountID)
	if err != nil {
		t.Fatalf("VerificationData failed: %v", err)
	}
	if data.CurrentNonce != 0 {
		t.Errorf("Rejected bet must not consume a nonce, next is %d", data.CurrentNonce)
	}
}

func TestPlaceBetBankrollLimit(t *testing.T) {
	settlement, _ := newTestSettlement(10000)
	ctx := context.Background()

	// Coinflip at risk 0.5 caps well below half the bankroll.
	_, err := settlement.PlaceBet(ctx, "acct-kelly", coinflipRequest(5000))
	if err == nil {
		t.Fatal("Oversized bet should be refused")
	}
	rejection, ok := services.AsRejection(err)
	if !ok {
		t.Fatalf("Expected a structured rejection, got %v", err)
	}
	if rejection.Kind != services.RejectionBankrollLimit {
		t.Fatalf("Expected bankroll_limit, got %s", rejection.Kind)
	}
	if rejection.MaxBet <= 0 || rejection.MaxBet >= 5000 {
		t.Errorf("Rejection should carry the binding limit, got %d", rejection.MaxBet)
	}

	// A bet at the advertised limit goes through.
	if _, err := settlement.PlaceBet(ctx, "acct-kelly", coinflipRequest(rejection.MaxBet)); err != nil {
		t.Errorf("Bet at the advertised limit should settle: %v", err)
	}
}

func TestPlaceBetRejectsInvalidInput(t *testing.T) {
	settlement, _ := newTestSettlement(10000)
	ctx := context.Background()

	cases := []struct {
		name string
		req  *models.BetRequest
		kind services.RejectionKind
	}{
		{"zero amount", &models.BetRequest{Game: models.GameTypeCoinFlip, Amount: 0, Params: models.GameParams{Side: games.SideHeads}}, services.RejectionInvalidInput},
		{"unknown game", &models.BetRequest{Game: "baccarat", Amount: 100}, services.RejectionUnknownGame},
		{"bad params", &models.BetRequest{Game: models.GameTypeDice, Amount: 100, Params: models.GameParams{Target: 100}}, services.RejectionInvalidInput},
	}

	for _, tc := range cases {
		_, err := settlement.PlaceBet(ctx, "acct-invalid", tc.req)
		if err == nil {
			t.Errorf("%s: expected rejection", tc.name)
			continue
		}
		rejection, ok := services.AsRejection(err)
		if !ok {
			t.Errorf("%s: expected structured rejection, got %v", tc.name, err)
			continue
		}
		if rejection.Kind != tc.kind {
			t.Errorf("%s: expected kind %s, got %s", tc.name, tc.kind, rejection.Kind)
		}
	}
}

// failingStore forces persistence failures to exercise refund compensation.
type failingStore struct {
	services.Store
	failSaves bool
}

func (f *failingStore) SaveBetRecord(ctx context.Context, record *models.BetRecord) error {
	if f.failSaves {
		return errors.New("storage unavailable")
	}
	return f.Store.SaveBetRecord(ctx, record)
}

func TestPlaceBetRefundsOnPersistFailure(t *testing.T) {
	memory := services.NewMemoryStore(10000, 0.5)
	store := &failingStore{Store: memory, failSaves: true}
	settlement := services.NewSettlement(store, nil)
	ctx := context.Background()
	accountID := "acct-crash"

	_, err := settlement.PlaceBet(ctx, accountID, coinflipRequest(100))
	if err == nil {
		t.Fatal("PlaceBet should fail when the record cannot be persisted")
	}
	if _, ok := services.AsRejection(err); ok {
		t.Error("A storage fault is not a caller rejection")
	}

	account, err := memory.GetAccount(ctx, accountID)
	if err != nil {
		t.Fatalf("Failed to load account: %v", err)
	}
	if account.Balance != 10000 {
		t.Errorf("Wager should be refunded in full, balance is %d", account.Balance)
	}
	if account.TotalWagered != 0 {
		t.Errorf("Refunded wager should leave the wagered total, got %d", account.TotalWagered)
	}

	entries, _ := memory.Entries(ctx, accountID, 10, 0)
	if len(entries) != 2 {
		t.Fatalf("Expected reserve + refund entries, got %d", len(entries))
	}
	if entries[0].Reason != models.ReasonBetRefund || entries[1].Reason != models.ReasonBetReserve {
		t.Errorf("Unexpected compensation trail: %s then %s", entries[1].Reason, entries[0].Reason)
	}

	// Recovery: once storage is back the same account settles normally.
	store.failSaves = false
	if _, err := settlement.PlaceBet(ctx, accountID, coinflipRequest(100)); err != nil {
		t.Errorf("Bet after recovery should settle: %v", err)
	}
}

func TestPlaceBetsBatch(t *testing.T) {
	settlement, _ := newTestSettlement(100000)
	ctx := context.Background()
	accountID := "acct-batch"

	reqs := []*models.BetRequest{
		coinflipRequest(100),
		{Game: "baccarat", Amount: 100},
		coinflipRequest(200),
	}

	results, err := settlement.PlaceBets(ctx, accountID, reqs)
	if err != nil {
		t.Fatalf("PlaceBets failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 item results, got %d", len(results))
	}

	if results[0].Result == nil || results[2].Result == nil {
		t.Error("Valid items should settle despite the rejected one")
	}
	if results[1].Rejection == nil {
		t.Error("Invalid item should carry its rejection")
	}
	if results[1].Result != nil {
		t.Error("Rejected item must not also carry a settlement")
	}

	// Each settled item consumed its own nonce.
	if results[0].Result.Proof.Nonce == results[2].Result.Proof.Nonce {
		t.Error("Batch items must consume distinct nonces")
	}
}

func TestPlaceBetsBatchSizeLimit(t *testing.T) {
	settlement, _ := newTestSettlement(10000)
	ctx := context.Background()

	oversized := make([]*models.BetRequest, models.MaxBatchSize+1)
	for i := range oversized {
		oversized[i] = coinflipRequest(100)
	}
	if _, err := settlement.PlaceBets(ctx, "acct-big-batch", oversized); !errors.Is(err, services.ErrBatchTooLarge) {
		t.Errorf("Expected ErrBatchTooLarge, got %v", err)
	}
	if _, err := settlement.PlaceBets(ctx, "acct-big-batch", nil); !errors.Is(err, services.ErrBatchTooLarge) {
		t.Errorf("Empty batch should be refused, got %v", err)
	}
}

func TestVerifyBetByID(t *testing.T) {
	settlement, _ := newTestSettlement(10000)
	ctx := context.Background()
	accountID := "acct-verify"

	result, err := settlement.PlaceBet(ctx, accountID, coinflipRequest(100))
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}

	// The commitment is still live: verification must wait for the reveal.
	_, err = settlement.VerifyBet(ctx, &models.VerifyRequest{BetID: result.BetID})
	if !errors.Is(err, services.ErrSeedNotRevealed) {
		t.Fatalf("Expected ErrSeedNotRevealed before rotation, got %v", err)
	}

	if _, _, err := settlement.RotateSeed(ctx, accountID); err != nil {
		t.Fatalf("RotateSeed failed: %v", err)
	}

	verification, err := settlement.VerifyBet(ctx, &models.VerifyRequest{BetID: result.BetID})
	if err != nil {
		t.Fatalf("VerifyBet after reveal failed: %v", err)
	}
	if !verification.Valid {
		t.Error("Honestly settled bet should verify")
	}
	if verification.Roll < 0 || verification.Roll >= 100 {
		t.Errorf("Verified roll out of range: %f", verification.Roll)
	}
}

func TestVerifyBetRawInputs(t *testing.T) {
	settlement, _ := newTestSettlement(10000)
	ctx := context.Background()
	accountID := "acct-verify-raw"

	result, err := settlement.PlaceBet(ctx, accountID, coinflipRequest(100))
	if err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	revealed, _, err := settlement.RotateSeed(ctx, accountID)
	if err != nil {
		t.Fatalf("RotateSeed failed: %v", err)
	}

	verification, err := settlement.VerifyBet(ctx, &models.VerifyRequest{
		Secret:     revealed.RevealedSecret(),
		SeedHash:   result.Proof.SeedHash,
		ClientSeed: result.Proof.ClientSeed,
		Nonce:      result.Proof.Nonce,
	})
	if err != nil {
		t.Fatalf("VerifyBet failed: %v", err)
	}
	if !verification.Valid {
		t.Error("Raw inputs from an honest settlement should verify")
	}
	if verification.ProofHash != result.Proof.ProofHash {
		t.Error("Recomputed proof hash should match the one returned at settlement")
	}

	// A tampered secret fails the commitment check.
	tampered, err := settlement.VerifyBet(ctx, &models.VerifyRequest{
		Secret:     revealed.RevealedSecret() + "00",
		SeedHash:   result.Proof.SeedHash,
		ClientSeed: result.Proof.ClientSeed,
		Nonce:      result.Proof.Nonce,
	})
	if err != nil {
		t.Fatalf("VerifyBet failed: %v", err)
	}
	if tampered.Valid {
		t.Error("Tampered secret must not verify")
	}
}

func TestSetRiskFactor(t *testing.T) {
	settlement, _ := newTestSettlement(10000)
	ctx := context.Background()
	accountID := "acct-risk"

	_, _, err := settlement.SetRiskFactor(ctx, accountID, 1.5)
	if err == nil {
		t.Fatal("Risk factor above 1.0 should be refused")
	}
	if _, ok := services.AsRejection(err); !ok {
		t.Errorf("Expected a structured rejection, got %v", err)
	}

	account, limits, err := settlement.SetRiskFactor(ctx, accountID, 0.2)
	if err != nil {
		t.Fatalf("SetRiskFactor failed: %v", err)
	}
	if account.RiskFactor != 0.2 {
		t.Errorf("Expected risk factor 0.2, got %f", account.RiskFactor)
	}
	if len(limits) == 0 {
		t.Fatal("SetRiskFactor should report per-game limits")
	}
	coinflip, ok := limits[models.GameTypeCoinFlip]
	if !ok || coinflip.MaxBet <= 0 {
		t.Errorf("Expected a positive coinflip limit, got %+v", coinflip)
	}

	// Lower risk means smaller limits.
	_, cautious, err := settlement.SetRiskFactor(ctx, accountID, 0.1)
	if err != nil {
		t.Fatalf("SetRiskFactor failed: %v", err)
	}
	if cautious[models.GameTypeCoinFlip].MaxBet > coinflip.MaxBet {
		t.Error("Lower risk factor should not raise the limit")
	}
}

func TestBalanceSummaryAndVerificationData(t *testing.T) {
	settlement, _ := newTestSettlement(10000)
	ctx := context.Background()
	accountID := "acct-summary"

	summary, err := settlement.BalanceSummary(ctx, accountID)
	if err != nil {
		t.Fatalf("BalanceSummary failed: %v", err)
	}
	if summary.Balance != 10000 {
		t.Errorf("Expected starting balance 10000, got %d", summary.Balance)
	}
	if summary.SeedHash == "" || summary.ClientSeed == "" {
		t.Error("Summary should expose the live commitment and client seed")
	}
	if summary.NextNonce != 0 {
		t.Errorf("Fresh account should be at nonce 0, got %d", summary.NextNonce)
	}

	if _, err := settlement.PlaceBet(ctx, accountID, coinflipRequest(100)); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}

	data, err := settlement.VerificationData(ctx, accountID)
	if err != nil {
		t.Fatalf("VerificationData failed: %v", err)
	}
	if data.CurrentNonce != 1 {
		t.Errorf("Nonce should advance after a bet, got %d", data.CurrentNonce)
	}
	if data.SeedHash != summary.SeedHash {
		t.Error("Commitment should be stable until rotation")
	}
}
