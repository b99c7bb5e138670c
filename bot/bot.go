// Package bot implements the deterministic policy a non-human seat uses
// to choose its action. Decide is a pure function of the current state:
// it carries no persona, no weighting, and no randomness, so that two
// servers replaying the same hand always have their bots play identically.
package bot

import (
	"errors"

	"holdem-lite/card"
	"holdem-lite/rules"
)

var ErrNotActingSeat = errors.New("bot: state's acting seat has no legal bot action available")

// Decide returns the single action the acting seat (s.Turn) should play,
// following this fixed priority:
//  1. If it hasn't drawn: DRAW_DISCARD when the discard pile's top card
//     legally extends the seat's first own spread, else DRAW_STOCK.
//  2. Play the first legal spread found in hand (by first enumeration
//     order over combinations actually held).
//  3. Play the first legal hit found (own hand card × any spread on the
//     table, enumerated in own-hand card order, then seat, then spread).
//  4. DROP if current score <= 5 and not blocked by a hit penalty.
//  5. Otherwise DISCARD the highest-value card in hand (ties broken by
//     first index).
func Decide(s rules.State) (rules.Action, error) {
	if s.Phase != rules.PhaseInProgress {
		return rules.Action{}, ErrNotActingSeat
	}
	acting := s.Turn
	hand := s.Hands[acting]

	if !s.HasDrawn {
		return decideDraw(s, acting), nil
	}

	if spread, ok := firstLegalSpread(hand); ok {
		return rules.Action{Type: rules.SpreadAction, SpreadCards: spread}, nil
	}

	if hitAction, ok := firstLegalHit(s, acting); ok {
		return hitAction, nil
	}

	if rules.Score(hand) <= 5 && s.Seats[acting].HitPenaltyRounds == 0 {
		return rules.Action{Type: rules.Drop}, nil
	}

	return rules.Action{Type: rules.Discard, DiscardIndex: highestValueIndex(hand)}, nil
}

func decideDraw(s rules.State, acting int) rules.Action {
	if len(s.Discard) > 0 {
		top := s.Discard[len(s.Discard)-1]
		if ownSpreads := s.Spreads[acting]; len(ownSpreads) > 0 && isValidHitProxy(top, ownSpreads[0]) {
			return rules.Action{Type: rules.DrawDiscard}
		}
	}
	return rules.Action{Type: rules.DrawStock}
}

// isValidHitProxy mirrors the bot's own draw heuristic: whether the
// discard top would extend the bot's first laid spread. It is not a
// general legality check — a human may always DRAW_DISCARD when it
// hasn't drawn yet, regardless of this predicate.
func isValidHitProxy(top card.Card, sp rules.Spread) bool {
	return spreadWouldAccept(sp, top)
}

// highestValueIndex returns the index of the highest-point-value card in
// hand, ties broken by first (lowest) index.
func highestValueIndex(hand []card.Card) int {
	best := 0
	bestVal := hand[0].Value()
	for i, c := range hand[1:] {
		if c.Value() > bestVal {
			best = i + 1
			bestVal = c.Value()
		}
	}
	return best
}
