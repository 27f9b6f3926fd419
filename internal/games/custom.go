package games

import (
	"fmt"
	"math"

	"casino-engine-backend/internal/models"
)

// custom lets the player pick their own win chance; the payout is the fair
// inverse scaled by the house edge.
type custom struct{}

func (custom) Kind() models.GameType { return models.GameTypeCustom }

func (custom) Validate(p models.GameParams) error {
	if math.IsNaN(p.WinChance) || p.WinChance < 1 || p.WinChance > 99 {
		return fmt.Errorf("%w: win chance must be between 1%% and 99%%", ErrInvalidParams)
	}
	return nil
}

func (c custom) Odds(p models.GameParams) (Odds, error) {
	if err := c.Validate(p); err != nil {
		return Odds{}, err
	}
	return Odds{
		WinProbability:   p.WinChance / 100,
		PayoutMultiplier: (100 / p.WinChance) * (1 - HouseEdge),
	}, nil
}

func (c custom) Resolve(roll Roll, p models.GameParams) (Outcome, error) {
	odds, err := c.Odds(p)
	if err != nil {
		return Outcome{}, err
	}

	won := roll.Value < p.WinChance
	out := Outcome{
		Payload: map[string]any{
			"roll":       roll.Value,
			"win_chance": p.WinChance,
		},
		Won: won,
	}
	if won {
		out.Multiplier = odds.PayoutMultiplier
	}
	return out, nil
}
