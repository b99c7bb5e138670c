package rules

import (
	"math/rand"

	"holdem-lite/card"
)

const handSize = 5

// Deal shuffles the 40-card deck with rng and deals handSize cards to each
// seat in round-robin order, returning the resulting in-progress State.
// If any seat's dealt hand sums to exactly 50 points, the hand terminates
// immediately with WinImmediate50 — this is the only terminal check made
// outside of Apply, since the source specifies it as checked at deal time
// only.
func Deal(seats []Seat, stake int64, rng *rand.Rand) (State, error) {
	if len(seats) < 2 {
		return State{}, ErrNotEnoughSeats
	}

	deck := make(card.CardList, len(card.FullDeck))
	copy(deck, card.FullDeck)
	deck.Shuffle(rng)

	n := len(seats)
	hands := make([][]card.Card, n)
	for i := range hands {
		hands[i] = make([]card.Card, 0, handSize)
	}
	for round := 0; round < handSize; round++ {
		for i := 0; i < n; i++ {
			c := deck.PopCard()
			hands[i] = append(hands[i], c)
		}
	}

	s := State{
		Seats:    append([]Seat(nil), seats...),
		Hands:    hands,
		Spreads:  make([][]Spread, n),
		Stock:    []card.Card(deck),
		Discard:  nil,
		Turn:     0,
		HasDrawn: false,
		Stake:    stake,
		Phase:    PhaseInProgress,
	}

	if winner, ok := findImmediate50(s.Hands); ok {
		s.Phase = PhaseOver
		s.Outcome = &Outcome{
			WinType:     WinImmediate50,
			Winners:     []int{winner},
			RoundScores: scoreAll(s.Hands),
		}
	}

	return s, nil
}

func findImmediate50(hands [][]card.Card) (int, bool) {
	for i, h := range hands {
		if Score(h) == 50 {
			return i, true
		}
	}
	return 0, false
}

func scoreAll(hands [][]card.Card) []int {
	out := make([]int, len(hands))
	for i, h := range hands {
		out[i] = Score(h)
	}
	return out
}
