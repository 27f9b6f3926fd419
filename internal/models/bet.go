package models

type GameType string

const (
	GameTypeCoinFlip   GameType = "coinflip"
	GameTypeDice       GameType = "dice"
	GameTypeMultiplier GameType = "multiplier"
	GameTypeRoulette   GameType = "roulette"
	GameTypeCustom     GameType = "custom"
	GameTypeBlackjack  GameType = "blackjack"
	GameTypeCrash      GameType = "crash"
	GameTypePlinko     GameType = "plinko"
	GameTypeSlots      GameType = "slots"
)

// GameParams is the tagged union of per-game wager parameters. Each resolver
// validates exactly the fields it needs at its boundary.
type GameParams struct {
	// coinflip
	Side string `json:"side,omitempty"`
	// dice
	Target int  `json:"target,omitempty"`
	Over   bool `json:"over,omitempty"`
	// multiplier / crash
	TargetMultiplier float64 `json:"target_multiplier,omitempty"`
	// roulette
	BetType string `json:"bet_type,omitempty"`
	Number  int    `json:"number,omitempty"`
	// custom
	WinChance float64 `json:"win_chance,omitempty"`
	// plinko
	Rows int    `json:"rows,omitempty"`
	Risk string `json:"risk,omitempty"`
}

// BetRequest is one inbound wager. Amount is in cents.
type BetRequest struct {
	Game       GameType   `json:"game" binding:"required"`
	Amount     int64      `json:"amount" binding:"required"`
	ClientSeed string     `json:"client_seed,omitempty"`
	Params     GameParams `json:"params"`
}

// FairnessProof is everything a player needs to verify a settled bet once the
// server seed is revealed.
type FairnessProof struct {
	SeedHash   string `json:"seed_hash"`
	ClientSeed string `json:"client_seed"`
	Nonce      int64  `json:"nonce"`
	ProofHash  string `json:"proof_hash"`
}

// KellyInfo is the refreshed sizing guidance returned with every settlement,
// computed against the post-settlement bankroll.
type KellyInfo struct {
	MaxBet        int64 `json:"max_bet"`
	SuggestedBet  int64 `json:"suggested_bet"`
	BetsUntilRuin int64 `json:"bets_until_ruin"`
}

// BetRecord is the immutable settled-wager fact, persisted exactly once.
type BetRecord struct {
	ID        string   `json:"id" redis:"id"`
	AccountID string   `json:"account_id" redis:"account_id"`
	Game      GameType `json:"game" redis:"game"`
	Amount    int64    `json:"amount" redis:"amount"`

	Outcome    map[string]any `json:"outcome" redis:"outcome"`
	Won        bool           `json:"won" redis:"won"`
	Multiplier float64        `json:"multiplier" redis:"multiplier"`
	AmountWon  int64          `json:"amount_won" redis:"amount_won"`

	SeedPairID string `json:"seed_pair_id" redis:"seed_pair_id"`
	SeedHash   string `json:"seed_hash" redis:"seed_hash"`
	ClientSeed string `json:"client_seed" redis:"client_seed"`
	Nonce      int64  `json:"nonce" redis:"nonce"`
	ProofHash  string `json:"proof_hash" redis:"proof_hash"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
}

// BetResult is the settlement response for one accepted wager.
type BetResult struct {
	BetID      string         `json:"bet_id"`
	Game       GameType       `json:"game"`
	Amount     int64          `json:"amount"`
	Outcome    map[string]any `json:"outcome"`
	Won        bool           `json:"won"`
	Multiplier float64        `json:"multiplier"`
	AmountWon  int64          `json:"amount_won"`
	NewBalance int64          `json:"new_balance"`
	Proof      FairnessProof  `json:"fairness_proof"`
	Kelly      KellyInfo      `json:"kelly_info"`
}

// BatchItemResult carries either a settlement or a per-item rejection; one
// item failing never rolls back earlier items.
type BatchItemResult struct {
	Index     int        `json:"index"`
	Result    *BetResult `json:"result,omitempty"`
	Rejection any        `json:"rejection,omitempty"`
}

// VerifyRequest checks a bet either from raw protocol inputs or by looking up
// a settled bet whose seed has been revealed.
type VerifyRequest struct {
	Secret     string `json:"secret,omitempty"`
	SeedHash   string `json:"seed_hash,omitempty"`
	ClientSeed string `json:"client_seed,omitempty"`
	Nonce      int64  `json:"nonce"`

	BetID string `json:"bet_id,omitempty"`
}

// VerificationData is the live commitment state a player records before
// betting.
type VerificationData struct {
	ClientSeed   string `json:"client_seed"`
	SeedHash     string `json:"seed_hash"`
	CurrentNonce int64  `json:"current_nonce"`
}
