// Package kelly sizes wagers against the account bankroll. Because every
// game carries a house edge the classic Kelly fraction is non-positive, so
// the guard falls back to an entertainment-sizing fraction of
// riskFactor * winProbability.
package kelly

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MinRiskFactor and MaxRiskFactor bound the per-account risk setting.
	MinRiskFactor = 0.1
	MaxRiskFactor = 1.0
)

var (
	ErrInvalidProbability = errors.New("win probability must be in (0, 1) exclusive")
	ErrInvalidMultiplier  = errors.New("payout multiplier must exceed 1")
)

// Result describes the sizing computed for one (bankroll, game) combination.
// Amounts are in cents.
type Result struct {
	MaxBet        int64   `json:"max_bet"`
	SuggestedBet  int64   `json:"suggested_bet"`
	BetsUntilRuin int64   `json:"bets_until_ruin"`
	Fraction      float64 `json:"fraction"`
	KellyFraction float64 `json:"kelly_fraction"`
	GrowthRate    float64 `json:"growth_rate"`
}

// Decision is the outcome of enforcing the sizing bound on a concrete wager.
type Decision struct {
	Allowed bool   `json:"allowed"`
	MaxBet  int64  `json:"max_bet"`
	Detail  string `json:"detail"`
}

// ClampRiskFactor forces a risk factor into [MinRiskFactor, MaxRiskFactor].
func ClampRiskFactor(rf float64) float64 {
	if rf < MinRiskFactor || math.IsNaN(rf) {
		return MinRiskFactor
	}
	if rf > MaxRiskFactor {
		return MaxRiskFactor
	}
	return rf
}

// ComputeMaxBet computes the largest wager the guard will accept.
//
// f* = (b*p - q) / b with b = payoutMultiplier - 1, p = winProbability,
// q = 1 - p. A positive f* (no house edge) is scaled by riskFactor; the
// usual negative f* falls back to riskFactor * p.
func ComputeMaxBet(bankrollCents int64, winProbability, payoutMultiplier, riskFactor float64) (Result, error) {
	if winProbability <= 0 || winProbability >= 1 || math.IsNaN(winProbability) {
		return Result{}, fmt.Errorf("%w: got %v", ErrInvalidProbability, winProbability)
	}
	if payoutMultiplier <= 1 || math.IsNaN(payoutMultiplier) {
		return Result{}, fmt.Errorf("%w: got %v", ErrInvalidMultiplier, payoutMultiplier)
	}
	riskFactor = ClampRiskFactor(riskFactor)

	b := payoutMultiplier - 1
	p := winProbability
	q := 1 - p
	kellyFraction := (b*p - q) / b

	var fraction float64
	if kellyFraction > 0 {
		fraction = kellyFraction * riskFactor
	} else {
		fraction = riskFactor * p
	}

	res := Result{
		Fraction:      fraction,
		KellyFraction: kellyFraction,
		GrowthRate:    p*math.Log(1+fraction*b) + q*math.Log(1-fraction),
	}

	if bankrollCents <= 0 {
		return res, nil
	}

	// Nudge past float representation error so exact cent products do not
	// floor a cent low.
	res.MaxBet = int64(math.Floor(float64(bankrollCents)*fraction + 1e-9))
	res.SuggestedBet = res.MaxBet / 2
	if res.MaxBet > 0 {
		res.BetsUntilRuin = int64(math.Floor(float64(bankrollCents) / float64(res.MaxBet)))
	}
	return res, nil
}

// Enforce checks one wager against the computed bound.
func Enforce(betCents, bankrollCents int64, winProbability, payoutMultiplier, riskFactor float64) (Decision, error) {
	res, err := ComputeMaxBet(bankrollCents, winProbability, payoutMultiplier, riskFactor)
	if err != nil {
		return Decision{}, err
	}
	if betCents > res.MaxBet {
		return Decision{
			Allowed: false,
			MaxBet:  res.MaxBet,
			Detail:  fmt.Sprintf("bet %d exceeds bankroll-protection max %d", betCents, res.MaxBet),
		}, nil
	}
	return Decision{Allowed: true, MaxBet: res.MaxBet}, nil
}
