// Package games holds one resolver per game type. Resolvers are pure: they
// map a deterministic fairness roll plus validated parameters into an
// outcome, and publish the theoretical odds the bankroll guard sizes
// against. No resolver touches storage or consumes randomness of its own.
package games

import (
	"errors"
	"fmt"

	"casino-engine-backend/internal/models"
)

// HouseEdge is the standard edge baked into payout multipliers. Blackjack,
// plinko and slots carry higher edges through their payout tables.
const HouseEdge = 0.005

var (
	ErrUnknownGame   = errors.New("unknown game type")
	ErrInvalidParams = errors.New("invalid game parameters")
)

// Roll is the fairness input to a resolver: the primary roll in [0, 100)
// plus a deterministic sub-roll source for multi-draw games.
type Roll struct {
	Value float64
	Sub   func(i int) float64
}

// Outcome is a resolved wager. Multiplier is the total-return multiplier:
// amount won = wager x Multiplier (zero when lost).
type Outcome struct {
	Payload    map[string]any
	Won        bool
	Multiplier float64
}

// Odds are the theoretical figures used for bankroll-guard sizing.
type Odds struct {
	WinProbability   float64
	PayoutMultiplier float64
}

// Resolver is one game's pure settlement logic.
type Resolver interface {
	Kind() models.GameType
	// Validate rejects out-of-range parameters before any funds move or
	// roll is consumed.
	Validate(p models.GameParams) error
	// Odds returns the theoretical win probability and payout for the
	// given parameters.
	Odds(p models.GameParams) (Odds, error)
	// Resolve maps a roll into an outcome. Parameters are assumed valid.
	Resolve(roll Roll, p models.GameParams) (Outcome, error)
}

var registry = map[models.GameType]Resolver{}

func register(r Resolver) {
	registry[r.Kind()] = r
}

func init() {
	register(coinFlip{})
	register(dice{})
	register(multiplier{})
	register(crash{})
	register(roulette{})
	register(custom{})
	register(blackjack{})
	register(newPlinko())
	register(newSlots())
}

// Get looks up the resolver for a game type.
func Get(kind models.GameType) (Resolver, error) {
	r, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, kind)
	}
	return r, nil
}

// Kinds lists every registered game type.
func Kinds() []models.GameType {
	kinds := make([]models.GameType, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	return kinds
}

// ReferenceOdds returns the odds of a game under canonical default
// parameters, used when sizing limits must be reported without a concrete
// wager (risk-factor updates, balance summaries).
func ReferenceOdds(kind models.GameType) (Odds, error) {
	r, err := Get(kind)
	if err != nil {
		return Odds{}, err
	}
	return r.Odds(defaultParams(kind))
}

func defaultParams(kind models.GameType) models.GameParams {
	switch kind {
	case models.GameTypeCoinFlip:
		return models.GameParams{Side: SideHeads}
	case models.GameTypeDice:
		return models.GameParams{Target: 50, Over: true}
	case models.GameTypeMultiplier, models.GameTypeCrash:
		return models.GameParams{TargetMultiplier: 2.0}
	case models.GameTypeRoulette:
		return models.GameParams{BetType: BetTypeRed}
	case models.GameTypeCustom:
		return models.GameParams{WinChance: 50}
	case models.GameTypePlinko:
		return models.GameParams{Rows: 12, Risk: RiskMedium}
	default:
		return models.GameParams{}
	}
}
