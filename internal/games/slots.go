package games

import (
	"casino-engine-backend/internal/models"
)

// Three-reel slots with weighted symbols. Each reel is an independent
// sub-draw; paylines are three-of-a-kind, a double-BAR, or cherry partials.
const (
	SymbolCherry = "cherry"
	SymbolLemon  = "lemon"
	SymbolOrange = "orange"
	SymbolPlum   = "plum"
	SymbolBell   = "bell"
	SymbolBar    = "bar"
	SymbolSeven  = "seven"
)

type slotSymbol struct {
	name   string
	weight int
}

var slotReel = []slotSymbol{
	{SymbolCherry, 4},
	{SymbolLemon, 5},
	{SymbolOrange, 5},
	{SymbolPlum, 4},
	{SymbolBell, 3},
	{SymbolBar, 2},
	{SymbolSeven, 1},
}

var slotTriplePays = map[string]float64{
	SymbolSeven:  250,
	SymbolBar:    50,
	SymbolCherry: 20,
	SymbolBell:   18,
	SymbolPlum:   14,
	SymbolOrange: 10,
	SymbolLemon:  10,
}

const (
	slotDoubleBarPay   = 5.0
	slotTwoCherriesPay = 5.0
	slotOneCherryPay   = 2.0
)

type slots struct {
	odds Odds
}

func newSlots() slots {
	return slots{odds: slotsOddsFromReel()}
}

// slotsOddsFromReel enumerates all weighted reel combinations to derive the
// guard's win probability and conditional payout.
func slotsOddsFromReel() Odds {
	totalWeight := 0
	for _, s := range slotReel {
		totalWeight += s.weight
	}
	denom := float64(totalWeight * totalWeight * totalWeight)

	var winProb, winPayout float64
	for _, a := range slotReel {
		for _, b := range slotReel {
			for _, c := range slotReel {
				mult := slotsPayout(a.name, b.name, c.name)
				if mult <= 0 {
					continue
				}
				prob := float64(a.weight*b.weight*c.weight) / denom
				winProb += prob
				winPayout += prob * mult
			}
		}
	}
	return Odds{
		WinProbability:   winProb,
		PayoutMultiplier: winPayout / winProb,
	}
}

func slotsPayout(a, b, c string) float64 {
	if a == b && b == c {
		return slotTriplePays[a]
	}

	bars := 0
	cherries := 0
	for _, s := range []string{a, b, c} {
		switch s {
		case SymbolBar:
			bars++
		case SymbolCherry:
			cherries++
		}
	}
	switch {
	case bars == 2:
		return slotDoubleBarPay
	case cherries == 2:
		return slotTwoCherriesPay
	case cherries == 1:
		return slotOneCherryPay
	}
	return 0
}

func (slots) Kind() models.GameType { return models.GameTypeSlots }

func (slots) Validate(models.GameParams) error { return nil }

func (s slots) Odds(models.GameParams) (Odds, error) {
	return s.odds, nil
}

func (s slots) Resolve(roll Roll, _ models.GameParams) (Outcome, error) {
	reels := make([]string, 3)
	for i := range reels {
		reels[i] = symbolFromSubRoll(roll.Sub(i))
	}

	mult := slotsPayout(reels[0], reels[1], reels[2])
	out := Outcome{
		Payload: map[string]any{
			"reels": reels,
		},
		Won:        mult > 0,
		Multiplier: mult,
	}
	if !out.Won {
		out.Multiplier = 0
	}
	return out, nil
}

func symbolFromSubRoll(sub float64) string {
	totalWeight := 0
	for _, s := range slotReel {
		totalWeight += s.weight
	}

	pick := int(sub * float64(totalWeight) / 100)
	for _, s := range slotReel {
		pick -= s.weight
		if pick < 0 {
			return s.name
		}
	}
	return slotReel[len(slotReel)-1].name
}
