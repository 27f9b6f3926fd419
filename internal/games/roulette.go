package games

import (
	"fmt"
	"math"

	"casino-engine-backend/internal/models"
)

// European single-zero roulette. The roll maps onto pockets 0-36; payouts
// are the classic 35:1 / 2:1 / 1:1 scaled by the house edge.
const (
	BetTypeStraight = "straight"
	BetTypeRed      = "red"
	BetTypeBlack    = "black"
	BetTypeEven     = "even"
	BetTypeOdd      = "odd"
	BetTypeLow      = "low"  // 1-18
	BetTypeHigh     = "high" // 19-36
	BetTypeDozen1   = "dozen1"
	BetTypeDozen2   = "dozen2"
	BetTypeDozen3   = "dozen3"
	BetTypeColumn1  = "column1"
	BetTypeColumn2  = "column2"
	BetTypeColumn3  = "column3"
)

var redPockets = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

type rouletteBet struct {
	pockets int     // winning pocket count out of 37
	payout  float64 // total-return multiplier, edge included
}

var rouletteBets = map[string]rouletteBet{
	BetTypeStraight: {pockets: 1, payout: 36 * (1 - HouseEdge)},
	BetTypeRed:      {pockets: 18, payout: 2 * (1 - HouseEdge)},
	BetTypeBlack:    {pockets: 18, payout: 2 * (1 - HouseEdge)},
	BetTypeEven:     {pockets: 18, payout: 2 * (1 - HouseEdge)},
	BetTypeOdd:      {pockets: 18, payout: 2 * (1 - HouseEdge)},
	BetTypeLow:      {pockets: 18, payout: 2 * (1 - HouseEdge)},
	BetTypeHigh:     {pockets: 18, payout: 2 * (1 - HouseEdge)},
	BetTypeDozen1:   {pockets: 12, payout: 3 * (1 - HouseEdge)},
	BetTypeDozen2:   {pockets: 12, payout: 3 * (1 - HouseEdge)},
	BetTypeDozen3:   {pockets: 12, payout: 3 * (1 - HouseEdge)},
	BetTypeColumn1:  {pockets: 12, payout: 3 * (1 - HouseEdge)},
	BetTypeColumn2:  {pockets: 12, payout: 3 * (1 - HouseEdge)},
	BetTypeColumn3:  {pockets: 12, payout: 3 * (1 - HouseEdge)},
}

type roulette struct{}

func (roulette) Kind() models.GameType { return models.GameTypeRoulette }

func (roulette) Validate(p models.GameParams) error {
	bet, ok := rouletteBets[p.BetType]
	if !ok {
		return fmt.Errorf("%w: unknown roulette bet type %q", ErrInvalidParams, p.BetType)
	}
	if bet.pockets == 1 && (p.Number < 0 || p.Number > 36) {
		return fmt.Errorf("%w: straight number must be between 0 and 36", ErrInvalidParams)
	}
	return nil
}

func (roulette) Odds(p models.GameParams) (Odds, error) {
	bet, ok := rouletteBets[p.BetType]
	if !ok {
		return Odds{}, fmt.Errorf("%w: unknown roulette bet type %q", ErrInvalidParams, p.BetType)
	}
	return Odds{
		WinProbability:   float64(bet.pockets) / 37,
		PayoutMultiplier: bet.payout,
	}, nil
}

func (roulette) Resolve(roll Roll, p models.GameParams) (Outcome, error) {
	bet, ok := rouletteBets[p.BetType]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: unknown roulette bet type %q", ErrInvalidParams, p.BetType)
	}

	pocket := PocketFromRoll(roll.Value)
	won := pocketWins(pocket, p)

	out := Outcome{
		Payload: map[string]any{
			"pocket":   pocket,
			"color":    pocketColor(pocket),
			"bet_type": p.BetType,
		},
		Won: won,
	}
	if bet.pockets == 1 {
		out.Payload["number"] = p.Number
	}
	if won {
		out.Multiplier = bet.payout
	}
	return out, nil
}

// PocketFromRoll maps a roll in [0, 100) onto a pocket 0-36.
func PocketFromRoll(r float64) int {
	return int(math.Floor(r * 37 / 100))
}

func pocketWins(pocket int, p models.GameParams) bool {
	switch p.BetType {
	case BetTypeStraight:
		return pocket == p.Number
	case BetTypeRed:
		return redPockets[pocket]
	case BetTypeBlack:
		return pocket != 0 && !redPockets[pocket]
	case BetTypeEven:
		return pocket != 0 && pocket%2 == 0
	case BetTypeOdd:
		return pocket%2 == 1
	case BetTypeLow:
		return pocket >= 1 && pocket <= 18
	case BetTypeHigh:
		return pocket >= 19
	case BetTypeDozen1:
		return pocket >= 1 && pocket <= 12
	case BetTypeDozen2:
		return pocket >= 13 && pocket <= 24
	case BetTypeDozen3:
		return pocket >= 25
	case BetTypeColumn1:
		return pocket != 0 && pocket%3 == 1
	case BetTypeColumn2:
		return pocket != 0 && pocket%3 == 2
	case BetTypeColumn3:
		return pocket != 0 && pocket%3 == 0
	}
	return false
}

func pocketColor(pocket int) string {
	switch {
	case pocket == 0:
		return "green"
	case redPockets[pocket]:
		return "red"
	default:
		return "black"
	}
}
