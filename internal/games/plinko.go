package games

import (
	"fmt"
	"math"

	"casino-engine-backend/internal/models"
)

const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Plinko payout tables keyed by (rows, risk). A ball takes one independent
// left/right sub-draw per row; the landing slot indexes the table. Plinko
// always settles through the table, so even sub-1x slots are "wins".
var plinkoTables = map[int]map[string][]float64{
	8: {
		RiskLow:    {5.6, 2.1, 1.1, 1, 0.5, 1, 1.1, 2.1, 5.6},
		RiskMedium: {13, 3, 1.3, 0.7, 0.4, 0.7, 1.3, 3, 13},
		RiskHigh:   {29, 4, 1.5, 0.3, 0.2, 0.3, 1.5, 4, 29},
	},
	12: {
		RiskLow:    {10, 3, 1.6, 1.4, 1.1, 1, 0.5, 1, 1.1, 1.4, 1.6, 3, 10},
		RiskMedium: {33, 11, 4, 2, 1.1, 0.6, 0.3, 0.6, 1.1, 2, 4, 11, 33},
		RiskHigh:   {170, 24, 8.1, 2, 0.7, 0.2, 0.2, 0.2, 0.7, 2, 8.1, 24, 170},
	},
	16: {
		RiskLow:    {16, 9, 2, 1.4, 1.4, 1.2, 1.1, 1, 0.5, 1, 1.1, 1.2, 1.4, 1.4, 2, 9, 16},
		RiskMedium: {110, 41, 10, 5, 3, 1.5, 1, 0.5, 0.3, 0.5, 1, 1.5, 3, 5, 10, 41, 110},
		RiskHigh:   {1000, 130, 26, 9, 4, 2, 0.2, 0.2, 0.2, 0.2, 0.2, 2, 4, 9, 26, 130, 1000},
	},
}

type plinko struct {
	// Guard odds per (rows, risk), derived from the tables and binomial
	// slot probabilities: P(slot pays > 1x) and the conditional mean
	// payout of those slots.
	odds map[int]map[string]Odds
}

func newPlinko() plinko {
	p := plinko{odds: make(map[int]map[string]Odds)}
	for rows, byRisk := range plinkoTables {
		p.odds[rows] = make(map[string]Odds)
		for risk, table := range byRisk {
			p.odds[rows][risk] = plinkoOddsFromTable(rows, table)
		}
	}
	return p
}

func plinkoOddsFromTable(rows int, table []float64) Odds {
	var winProb, winPayout float64
	for slot, mult := range table {
		prob := binomialProbability(rows, slot)
		if mult > 1 {
			winProb += prob
			winPayout += prob * mult
		}
	}
	return Odds{
		WinProbability:   winProb,
		PayoutMultiplier: winPayout / winProb,
	}
}

func binomialProbability(n, k int) float64 {
	coeff := 1.0
	for i := 0; i < k; i++ {
		coeff = coeff * float64(n-i) / float64(i+1)
	}
	return coeff / math.Pow(2, float64(n))
}

func (plinko) Kind() models.GameType { return models.GameTypePlinko }

func (plinko) Validate(p models.GameParams) error {
	byRisk, ok := plinkoTables[p.Rows]
	if !ok {
		return fmt.Errorf("%w: rows must be 8, 12 or 16", ErrInvalidParams)
	}
	if _, ok := byRisk[p.Risk]; !ok {
		return fmt.Errorf("%w: risk must be low, medium or high", ErrInvalidParams)
	}
	return nil
}

func (pl plinko) Odds(p models.GameParams) (Odds, error) {
	byRisk, ok := pl.odds[p.Rows]
	if !ok {
		return Odds{}, fmt.Errorf("%w: rows must be 8, 12 or 16", ErrInvalidParams)
	}
	odds, ok := byRisk[p.Risk]
	if !ok {
		return Odds{}, fmt.Errorf("%w: risk must be low, medium or high", ErrInvalidParams)
	}
	return odds, nil
}

func (pl plinko) Resolve(roll Roll, p models.GameParams) (Outcome, error) {
	table, ok := plinkoTables[p.Rows][p.Risk]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: unknown plinko configuration", ErrInvalidParams)
	}

	path := make([]string, p.Rows)
	slot := 0
	for i := 0; i < p.Rows; i++ {
		if roll.Sub(i) >= 50 {
			path[i] = "R"
			slot++
		} else {
			path[i] = "L"
		}
	}

	mult := table[slot]
	return Outcome{
		Payload: map[string]any{
			"rows": p.Rows,
			"risk": p.Risk,
			"path": path,
			"slot": slot,
		},
		Won:        true,
		Multiplier: mult,
	}, nil
}
