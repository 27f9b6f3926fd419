// Package fairness implements the commit-reveal protocol behind every bet:
// server seeds are committed by SHA-256 hash before any nonce is consumed,
// and rolls are derived with HMAC-SHA256 so players can verify outcomes once
// the seed is revealed.
package fairness

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

const (
	// RollSteps is the number of distinct roll values; rolls land on a
	// 0.01 grid in [0.00, 99.99].
	RollSteps = 10000

	serverSeedBytes = 32
	clientSeedBytes = 16
)

// VerifyResult is the outcome of an independent fairness check.
type VerifyResult struct {
	Valid     bool    `json:"valid"`
	Roll      float64 `json:"roll"`
	ProofHash string  `json:"proof_hash"`
}

// GenerateSeedPair produces a fresh server secret and its SHA-256 commitment.
func GenerateSeedPair() (secret string, commitment string, err error) {
	raw := make([]byte, serverSeedBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate server seed: %w", err)
	}
	secret = hex.EncodeToString(raw)
	return secret, HashSeed(secret), nil
}

// GenerateClientSeed creates a random default client seed for accounts that
// do not supply their own.
func GenerateClientSeed() (string, error) {
	raw := make([]byte, clientSeedBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate client seed: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// HashSeed returns the hex SHA-256 commitment of a server secret.
func HashSeed(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// DeriveRoll computes the deterministic roll for (secret, clientSeed, nonce):
// HMAC-SHA256(key=secret, message="clientSeed:nonce"), first 4 bytes as a
// big-endian unsigned integer, reduced mod 10000, divided by 100.
func DeriveRoll(secret, clientSeed string, nonce int64) float64 {
	digest := digest(secret, fmt.Sprintf("%s:%d", clientSeed, nonce))
	return rollFromDigest(digest)
}

// DeriveSubRoll derives the i-th auxiliary roll for multi-draw games (cards,
// plinko rows, slot reels). Each sub-draw gets a fresh HMAC keyed by
// "clientSeed:nonce:subIndex" so draws are independent and auditable.
func DeriveSubRoll(secret, clientSeed string, nonce int64, subIndex int) float64 {
	digest := digest(secret, fmt.Sprintf("%s:%d:%d", clientSeed, nonce, subIndex))
	return rollFromDigest(digest)
}

// ProofHash is the full HMAC digest for a bet, published alongside the bet
// record so the roll can be re-derived independently.
func ProofHash(secret, clientSeed string, nonce int64) string {
	return hex.EncodeToString(digest(secret, fmt.Sprintf("%s:%d", clientSeed, nonce)))
}

// Verify recomputes the commitment and the roll for the given inputs. It
// never fails: a commitment mismatch yields Valid=false with the recomputed
// roll still attached.
func Verify(secret, commitment, clientSeed string, nonce int64) VerifyResult {
	return VerifyResult{
		Valid:     HashSeed(secret) == commitment,
		Roll:      DeriveRoll(secret, clientSeed, nonce),
		ProofHash: ProofHash(secret, clientSeed, nonce),
	}
}

func digest(secret, message string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return h.Sum(nil)
}

func rollFromDigest(digest []byte) float64 {
	n := binary.BigEndian.Uint32(digest[:4])
	return float64(n%RollSteps) / 100.0
}
