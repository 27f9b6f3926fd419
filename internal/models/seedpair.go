package models

// SeedPair is one commit-reveal cycle for an account. The commitment hash is
// published before any nonce under the pair is consumed; the secret becomes
// visible once the pair is revealed. Revealed pairs are immutable and kept
// forever for audit.
type SeedPair struct {
	ID        string `json:"id" redis:"id"`
	AccountID string `json:"account_id" redis:"account_id"`

	Secret string `json:"-" redis:"secret"`
	Hash   string `json:"hash" redis:"hash"`

	// Nonce is the next value to hand out; consumed nonces are 0..Nonce-1.
	Nonce    int64 `json:"nonce" redis:"nonce"`
	RotateAt int64 `json:"rotate_at" redis:"rotate_at"`

	Active     bool  `json:"active" redis:"active"`
	RevealedAt int64 `json:"revealed_at" redis:"revealed_at"`
	CreatedAt  int64 `json:"created_at" redis:"created_at"`
}

// Revealed reports whether the secret is public.
func (p *SeedPair) Revealed() bool {
	return p.RevealedAt > 0
}

// RevealedSecret returns the secret only once the pair has been revealed.
func (p *SeedPair) RevealedSecret() string {
	if !p.Revealed() {
		return ""
	}
	return p.Secret
}
