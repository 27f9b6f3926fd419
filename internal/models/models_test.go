package models_test

import (
	"testing"

	"casino-engine-backend/internal/models"
)

func TestBetRequestValidate(t *testing.T) {
	valid := &models.BetRequest{
		Game:   models.GameTypeCoinFlip,
		Amount: 50,
		Params: models.GameParams{Side: "heads"},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid bet failed validation: %v", err)
	}

	zeroAmount := &models.BetRequest{Game: models.GameTypeDice, Amount: 0}
	if err := zeroAmount.Validate(); err == nil {
		t.Error("zero amount should fail validation")
	}

	overMax := &models.BetRequest{Game: models.GameTypeDice, Amount: models.MaxBetCents + 1}
	if err := overMax.Validate(); err == nil {
		t.Error("amount over max should fail validation")
	}
}

func TestLedgerEntrySigned(t *testing.T) {
	credit := &models.LedgerEntry{Type: models.EntryTypeCredit, Amount: 100}
	if credit.Signed() != 100 {
		t.Errorf("credit should be positive, got %d", credit.Signed())
	}

	debit := &models.LedgerEntry{Type: models.EntryTypeDebit, Amount: 100}
	if debit.Signed() != -100 {
		t.Errorf("debit should be negative, got %d", debit.Signed())
	}
}

func TestSeedPairReveal(t *testing.T) {
	pair := &models.SeedPair{Secret: "top-secret"}
	if pair.Revealed() {
		t.Error("unrevealed pair reports revealed")
	}
	if pair.RevealedSecret() != "" {
		t.Error("unrevealed pair leaked its secret")
	}

	pair.RevealedAt = 1700000000
	if !pair.Revealed() {
		t.Error("revealed pair reports unrevealed")
	}
	if pair.RevealedSecret() != "top-secret" {
		t.Error("revealed pair should expose its secret")
	}
}

func TestIDGenerators(t *testing.T) {
	if models.GenerateBetID() == models.GenerateBetID() {
		t.Error("bet ids collided")
	}
	if models.GenerateEntryID() == "" || models.GenerateSeedPairID() == "" {
		t.Error("id generators returned empty values")
	}
}

func TestFormatCurrency(t *testing.T) {
	if got := models.FormatCurrency(12345); got != "$123.45" {
		t.Errorf("expected $123.45, got %s", got)
	}
}
