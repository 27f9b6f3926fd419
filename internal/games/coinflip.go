package games

import (
	"fmt"

	"casino-engine-backend/internal/models"
)

const (
	SideHeads = "heads"
	SideTails = "tails"

	coinFlipPayout = 1.98
)

type coinFlip struct{}

func (coinFlip) Kind() models.GameType { return models.GameTypeCoinFlip }

func (coinFlip) Validate(p models.GameParams) error {
	if p.Side != SideHeads && p.Side != SideTails {
		return fmt.Errorf("%w: side must be %q or %q", ErrInvalidParams, SideHeads, SideTails)
	}
	return nil
}

func (coinFlip) Odds(models.GameParams) (Odds, error) {
	return Odds{WinProbability: 0.5, PayoutMultiplier: coinFlipPayout}, nil
}

func (coinFlip) Resolve(roll Roll, p models.GameParams) (Outcome, error) {
	result := SideTails
	if roll.Value < 50 {
		result = SideHeads
	}

	won := result == p.Side
	out := Outcome{
		Payload: map[string]any{
			"result": result,
			"side":   p.Side,
		},
		Won: won,
	}
	if won {
		out.Multiplier = coinFlipPayout
	}
	return out, nil
}
