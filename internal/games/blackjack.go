package games

import (
	"casino-engine-backend/internal/models"
)

// blackjack deals from an infinite shoe: every card is an independent
// sub-draw keyed by the bet's fairness inputs, so the whole hand replays
// from the proof. The player follows a fixed strategy (double on 10/11,
// otherwise hit to 17); the dealer stands on all 17s. Naturals pay 3:2.
type blackjack struct{}

var blackjackRanks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

const (
	blackjackWinMultiplier     = 2.0
	blackjackPushMultiplier    = 1.0
	blackjackNaturalMultiplier = 2.5
	blackjackDoubleMultiplier  = 3.0

	// Theoretical figures for bankroll sizing; blackjack's edge lives in
	// the payout table rather than a scaled multiplier.
	blackjackWinProbability = 0.425
)

func (blackjack) Kind() models.GameType { return models.GameTypeBlackjack }

func (blackjack) Validate(models.GameParams) error { return nil }

func (blackjack) Odds(models.GameParams) (Odds, error) {
	return Odds{
		WinProbability:   blackjackWinProbability,
		PayoutMultiplier: blackjackWinMultiplier,
	}, nil
}

func (blackjack) Resolve(roll Roll, _ models.GameParams) (Outcome, error) {
	draws := 0
	draw := func() string {
		rank := blackjackRanks[int(roll.Sub(draws)*13/100)%13]
		draws++
		return rank
	}

	player := []string{draw(), draw()}
	dealer := []string{draw(), draw()}

	playerNatural := handTotal(player) == 21
	dealerNatural := handTotal(dealer) == 21

	payload := map[string]any{
		"player_cards": player,
		"dealer_cards": dealer,
	}

	if playerNatural || dealerNatural {
		payload["player_total"] = handTotal(player)
		payload["dealer_total"] = handTotal(dealer)
		switch {
		case playerNatural && dealerNatural:
			payload["result"] = "push"
			return Outcome{Payload: payload, Won: true, Multiplier: blackjackPushMultiplier}, nil
		case playerNatural:
			payload["result"] = "blackjack"
			return Outcome{Payload: payload, Won: true, Multiplier: blackjackNaturalMultiplier}, nil
		default:
			payload["result"] = "dealer_blackjack"
			return Outcome{Payload: payload}, nil
		}
	}

	doubled := false
	if total := handTotal(player); total == 10 || total == 11 {
		doubled = true
		player = append(player, draw())
	} else {
		for handTotal(player) < 17 {
			player = append(player, draw())
		}
	}

	playerTotal := handTotal(player)
	payload["player_cards"] = player
	payload["player_total"] = playerTotal
	payload["doubled"] = doubled

	if playerTotal > 21 {
		payload["dealer_total"] = handTotal(dealer)
		payload["result"] = "bust"
		return Outcome{Payload: payload}, nil
	}

	for handTotal(dealer) < 17 {
		dealer = append(dealer, draw())
	}
	dealerTotal := handTotal(dealer)
	payload["dealer_cards"] = dealer
	payload["dealer_total"] = dealerTotal

	winMultiplier := blackjackWinMultiplier
	if doubled {
		winMultiplier = blackjackDoubleMultiplier
	}

	switch {
	case dealerTotal > 21 || playerTotal > dealerTotal:
		payload["result"] = "win"
		return Outcome{Payload: payload, Won: true, Multiplier: winMultiplier}, nil
	case playerTotal == dealerTotal:
		payload["result"] = "push"
		return Outcome{Payload: payload, Won: true, Multiplier: blackjackPushMultiplier}, nil
	default:
		payload["result"] = "lose"
		return Outcome{Payload: payload}, nil
	}
}

// handTotal returns the best blackjack total, counting one ace as 11 when
// that does not bust.
func handTotal(cards []string) int {
	total := 0
	aces := 0
	for _, rank := range cards {
		switch rank {
		case "A":
			aces++
			total++
		case "10", "J", "Q", "K":
			total += 10
		case "9":
			total += 9
		case "8":
			total += 8
		case "7":
			total += 7
		case "6":
			total += 6
		case "5":
			total += 5
		case "4":
			total += 4
		case "3":
			total += 3
		case "2":
			total += 2
		}
	}
	if aces > 0 && total+10 <= 21 {
		total += 10
	}
	return total
}
