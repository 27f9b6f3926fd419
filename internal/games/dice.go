package games

import (
	"fmt"
	"math"

	"casino-engine-backend/internal/models"
)

// dice rolls an integer 1-100 from the fairness roll; the player picks a
// threshold and a direction.
type dice struct{}

func (dice) Kind() models.GameType { return models.GameTypeDice }

func (dice) Validate(p models.GameParams) error {
	if p.Target < 1 || p.Target > 99 {
		return fmt.Errorf("%w: target must be between 1 and 99", ErrInvalidParams)
	}
	if _, err := diceOdds(p); err != nil {
		return err
	}
	return nil
}

func (dice) Odds(p models.GameParams) (Odds, error) {
	return diceOdds(p)
}

func diceOdds(p models.GameParams) (Odds, error) {
	var winProb float64
	if p.Over {
		winProb = float64(100-p.Target) / 100
	} else {
		winProb = float64(p.Target-1) / 100
	}
	if winProb <= 0 || winProb >= 1 {
		return Odds{}, fmt.Errorf("%w: target %d leaves no winning range", ErrInvalidParams, p.Target)
	}
	return Odds{
		WinProbability:   winProb,
		PayoutMultiplier: (1 / winProb) * (1 - HouseEdge),
	}, nil
}

func (dice) Resolve(roll Roll, p models.GameParams) (Outcome, error) {
	odds, err := diceOdds(p)
	if err != nil {
		return Outcome{}, err
	}

	value := int(math.Floor(roll.Value)) + 1

	var won bool
	if p.Over {
		won = value > p.Target
	} else {
		won = value < p.Target
	}

	out := Outcome{
		Payload: map[string]any{
			"roll":   value,
			"target": p.Target,
			"over":   p.Over,
		},
		Won: won,
	}
	if won {
		out.Multiplier = odds.PayoutMultiplier
	}
	return out, nil
}
