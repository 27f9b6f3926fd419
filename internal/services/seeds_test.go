package services_test

import (
	"context"
	"sync"
	"testing"

	"casino-engine-backend/internal/fairness"
	"casino-engine-backend/internal/services"
)

func TestConsumeNonceSequential(t *testing.T) {
	store := services.NewMemoryStore(10000, 0.5)
	seeds := services.NewSeedManager(store)
	ctx := context.Background()
	accountID := "acct-nonce"

	first, err := seeds.GetOrCreateActive(ctx, accountID)
	if err != nil {
		t.Fatalf("Failed to create seed pair: %v", err)
	}
	if first.Hash == "" || !first.Active {
		t.Fatalf("Fresh pair should be active with a commitment hash: %+v", first)
	}

	for want := int64(0); want < 10; want++ {
		pair, nonce, err := seeds.ConsumeNonce(ctx, accountID)
		if err != nil {
			t.Fatalf("ConsumeNonce failed at %d: %v", want, err)
		}
		if nonce != want {
			t.Errorf("Expected nonce %d, got %d", want, nonce)
		}
		if pair.ID != first.ID {
			t.Errorf("Pair should be stable across consumptions, got %s then %s", first.ID, pair.ID)
		}
	}
}

func TestConcurrentNonceUniqueness(t *testing.T) {
	store := services.NewMemoryStore(10000, 0.5)
	seeds := services.NewSeedManager(store)
	ctx := context.Background()
	accountID := "acct-nonce-race"

	if _, err := seeds.GetOrCreateActive(ctx, accountID); err != nil {
		t.Fatalf("Failed to create seed pair: %v", err)
	}

	const workers = 100
	var wg sync.WaitGroup
	nonces := make(chan int64, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, nonce, err := seeds.ConsumeNonce(ctx, accountID)
			if err != nil {
				t.Errorf("ConsumeNonce failed: %v", err)
				return
			}
			nonces <- nonce
		}()
	}
	wg.Wait()
	close(nonces)

	seen := make(map[int64]bool, workers)
	for nonce := range nonces {
		if seen[nonce] {
			t.Errorf("Nonce %d handed out twice", nonce)
		}
		seen[nonce] = true
	}
	if len(seen) != workers {
		t.Fatalf("Expected %d distinct nonces, got %d", workers, len(seen))
	}
	// No gaps: concurrent consumption still yields 0..workers-1.
	for n := int64(0); n < workers; n++ {
		if !seen[n] {
			t.Errorf("Nonce %d missing from the contiguous range", n)
		}
	}
}

func TestSeedPairReadsDuringConsumption(t *testing.T) {
	store := services.NewMemoryStore(10000, 0.5)
	seeds := services.NewSeedManager(store)
	ctx := context.Background()
	accountID := "acct-read-race"

	pair, err := seeds.GetOrCreateActive(ctx, accountID)
	if err != nil {
		t.Fatalf("Failed to create seed pair: %v", err)
	}

	// By-id reads (the verify-by-bet-id path) run concurrently with
	// consumption; every read must see a consistent snapshot.
	const consumers = 50
	var wg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, _, err := store.ConsumeNonce(ctx, pair.ID); err != nil {
				t.Errorf("ConsumeNonce failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			snapshot, err := store.SeedPair(ctx, pair.ID)
			if err != nil {
				t.Errorf("SeedPair failed: %v", err)
				return
			}
			if snapshot.Nonce < 0 || snapshot.Nonce > consumers {
				t.Errorf("Snapshot shows impossible nonce %d", snapshot.Nonce)
			}
		}()
	}
	wg.Wait()

	final, err := store.SeedPair(ctx, pair.ID)
	if err != nil {
		t.Fatalf("SeedPair failed: %v", err)
	}
	if final.Nonce != consumers {
		t.Errorf("Expected %d consumed nonces, got %d", consumers, final.Nonce)
	}
}

func TestSeedRotationAtThreshold(t *testing.T) {
	store := services.NewMemoryStore(10000, 0.5)
	seeds := services.NewSeedManager(store)
	ctx := context.Background()
	accountID := "acct-rotation"

	first, err := seeds.GetOrCreateActive(ctx, accountID)
	if err != nil {
		t.Fatalf("Failed to create seed pair: %v", err)
	}

	for i := int64(0); i < services.RotateAfterNonces; i++ {
		pair, nonce, err := seeds.ConsumeNonce(ctx, accountID)
		if err != nil {
			t.Fatalf("ConsumeNonce failed at %d: %v", i, err)
		}
		if pair.ID != first.ID {
			t.Fatalf("Pair rotated early at consumption %d", i)
		}
		if nonce != i {
			t.Fatalf("Expected nonce %d, got %d", i, nonce)
		}
	}

	// The final consumption exhausted the pair: it is now revealed, and the
	// next bet lands on a fresh pair at nonce zero.
	exhausted, err := seeds.Pair(ctx, first.ID)
	if err != nil {
		t.Fatalf("Failed to fetch exhausted pair: %v", err)
	}
	if exhausted.Active {
		t.Error("Exhausted pair should be inactive")
	}
	if !exhausted.Revealed() {
		t.Error("Exhausted pair should be revealed")
	}

	pair, nonce, err := seeds.ConsumeNonce(ctx, accountID)
	if err != nil {
		t.Fatalf("ConsumeNonce after rotation failed: %v", err)
	}
	if pair.ID == first.ID {
		t.Error("Consumption after exhaustion should use a fresh pair")
	}
	if nonce != 0 {
		t.Errorf("Fresh pair should start at nonce 0, got %d", nonce)
	}
	if pair.Hash == first.Hash {
		t.Error("Fresh pair must carry a new commitment")
	}
}

func TestRotateRevealsSecret(t *testing.T) {
	store := services.NewMemoryStore(10000, 0.5)
	seeds := services.NewSeedManager(store)
	ctx := context.Background()
	accountID := "acct-reveal"

	original, err := seeds.GetOrCreateActive(ctx, accountID)
	if err != nil {
		t.Fatalf("Failed to create seed pair: %v", err)
	}
	if _, _, err := seeds.ConsumeNonce(ctx, accountID); err != nil {
		t.Fatalf("ConsumeNonce failed: %v", err)
	}

	revealed, fresh, err := seeds.Rotate(ctx, accountID)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}

	if revealed == nil || revealed.ID != original.ID {
		t.Fatalf("Rotate should reveal the previous pair")
	}
	if !revealed.Revealed() {
		t.Error("Rotated-out pair should be marked revealed")
	}
	if revealed.RevealedSecret() == "" {
		t.Error("Revealed pair must expose its secret")
	}
	// The commitment published before betting must match the revealed secret.
	if fairness.HashSeed(revealed.RevealedSecret()) != revealed.Hash {
		t.Error("Revealed secret does not hash to the published commitment")
	}

	if fresh.ID == original.ID || !fresh.Active {
		t.Errorf("Rotate should activate a distinct fresh pair: %+v", fresh)
	}
	if fresh.Nonce != 0 {
		t.Errorf("Fresh pair should start at nonce 0, got %d", fresh.Nonce)
	}

	history, err := seeds.History(ctx, accountID, 10)
	if err != nil {
		t.Fatalf("Failed to fetch seed history: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("Expected both pairs in history, got %d", len(history))
	}
}
