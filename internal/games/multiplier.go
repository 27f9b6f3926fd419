package games

import (
	"fmt"
	"math"

	"casino-engine-backend/internal/models"
)

const (
	minTargetMultiplier = 1.01
	maxTargetMultiplier = 1000.0

	// crashPointCap bounds the curve as the roll approaches 100.
	crashPointCap = 10000.0
)

// crashPointFromRoll maps a roll onto the crash curve
// (1 - houseEdge) / (1 - r/100), floored to cents and capped.
func crashPointFromRoll(r float64) float64 {
	frac := 1 - r/100
	if frac <= 0 {
		return crashPointCap
	}
	point := math.Floor((1-HouseEdge)/frac*100) / 100
	if point < 1.0 {
		point = 1.0
	}
	if point > crashPointCap {
		point = crashPointCap
	}
	return point
}

func validateTargetMultiplier(t float64) error {
	if math.IsNaN(t) || t < minTargetMultiplier || t > maxTargetMultiplier {
		return fmt.Errorf("%w: target multiplier must be between %.2f and %.0f",
			ErrInvalidParams, minTargetMultiplier, maxTargetMultiplier)
	}
	return nil
}

func multiplierOdds(t float64) Odds {
	// P(crash >= t) = (1 - houseEdge) / t
	return Odds{
		WinProbability:   (1 - HouseEdge) / t,
		PayoutMultiplier: t,
	}
}

// multiplier pays the target multiplier when the crash point reaches it.
type multiplier struct{}

func (multiplier) Kind() models.GameType { return models.GameTypeMultiplier }

func (multiplier) Validate(p models.GameParams) error {
	return validateTargetMultiplier(p.TargetMultiplier)
}

func (multiplier) Odds(p models.GameParams) (Odds, error) {
	if err := validateTargetMultiplier(p.TargetMultiplier); err != nil {
		return Odds{}, err
	}
	return multiplierOdds(p.TargetMultiplier), nil
}

func (multiplier) Resolve(roll Roll, p models.GameParams) (Outcome, error) {
	point := crashPointFromRoll(roll.Value)
	won := point >= p.TargetMultiplier

	out := Outcome{
		Payload: map[string]any{
			"crash_point": point,
			"target":      p.TargetMultiplier,
		},
		Won: won,
	}
	if won {
		out.Multiplier = p.TargetMultiplier
	}
	return out, nil
}

// crash is the cash-out variant: the player pre-commits a cash-out point on
// the same curve.
type crash struct{}

func (crash) Kind() models.GameType { return models.GameTypeCrash }

func (crash) Validate(p models.GameParams) error {
	return validateTargetMultiplier(p.TargetMultiplier)
}

func (crash) Odds(p models.GameParams) (Odds, error) {
	if err := validateTargetMultiplier(p.TargetMultiplier); err != nil {
		return Odds{}, err
	}
	return multiplierOdds(p.TargetMultiplier), nil
}

func (crash) Resolve(roll Roll, p models.GameParams) (Outcome, error) {
	point := crashPointFromRoll(roll.Value)
	won := point >= p.TargetMultiplier

	out := Outcome{
		Payload: map[string]any{
			"crash_point": point,
			"cashout_at":  p.TargetMultiplier,
		},
		Won: won,
	}
	if won {
		out.Multiplier = p.TargetMultiplier
	}
	return out, nil
}
