package models

// Account is the owner of a balance and a risk profile. Balances are integer
// cents; every mutation goes through the ledger's atomic primitives.
type Account struct {
	ID string `json:"id" redis:"id"`

	Balance      int64   `json:"balance" redis:"balance"`
	RiskFactor   float64 `json:"risk_factor" redis:"risk_factor"`
	TotalWagered int64   `json:"total_wagered" redis:"total_wagered"`
	TotalWon     int64   `json:"total_won" redis:"total_won"`

	// ClientSeed is the default seed used when a bet omits one.
	ClientSeed string `json:"client_seed" redis:"client_seed"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
	UpdatedAt int64 `json:"updated_at" redis:"updated_at"`
}

// BalanceSummary is the account view returned by the balance endpoint.
type BalanceSummary struct {
	AccountID    string  `json:"account_id"`
	Balance      int64   `json:"balance"`
	RiskFactor   float64 `json:"risk_factor"`
	TotalWagered int64   `json:"total_wagered"`
	TotalWon     int64   `json:"total_won"`
	ClientSeed   string  `json:"client_seed"`
	SeedHash     string  `json:"seed_hash"`
	NextNonce    int64   `json:"next_nonce"`
}
