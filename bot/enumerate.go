package bot

import (
	"holdem-lite/card"
	"holdem-lite/rules"
)

func spreadWouldAccept(sp rules.Spread, c card.Card) bool {
	return rules.ExtendsSpread(sp, c)
}

// firstLegalSpread scans combinations of the bot's hand, smallest size
// first, in increasing index order, and returns the first one that forms
// a valid spread.
func firstLegalSpread(hand []card.Card) ([]card.Card, bool) {
	n := len(hand)
	for size := 3; size <= n; size++ {
		combo, ok := firstValidCombo(hand, size)
		if ok {
			return combo, true
		}
	}
	return nil, false
}

// firstValidCombo walks index combinations of the given size in
// lexicographic order and returns the first one whose cards form a valid
// spread.
func firstValidCombo(hand []card.Card, size int) ([]card.Card, bool) {
	n := len(hand)
	if size > n {
		return nil, false
	}
	indices := make([]int, size)
	for i := range indices {
		indices[i] = i
	}

	for {
		candidate := make([]card.Card, size)
		for i, idx := range indices {
			candidate[i] = hand[idx]
		}
		if rules.ValidSpread(candidate) {
			return candidate, true
		}

		// advance to the next combination, or stop if exhausted.
		i := size - 1
		for i >= 0 && indices[i] == i+n-size {
			i--
		}
		if i < 0 {
			return nil, false
		}
		indices[i]++
		for j := i + 1; j < size; j++ {
			indices[j] = indices[j-1] + 1
		}
	}
}

// firstLegalHit scans the acting seat's hand (index order), then every
// seat's laid spreads (seat order, then spread order), and returns the
// first hit that legally extends a spread.
func firstLegalHit(s rules.State, acting int) (rules.Action, bool) {
	hand := s.Hands[acting]
	for _, c := range hand {
		for seatIdx, seatSpreads := range s.Spreads {
			for spIdx, sp := range seatSpreads {
				if rules.ExtendsSpread(sp, c) {
					return rules.Action{
						Type:           rules.Hit,
						HitCard:        c,
						HitTargetSeat:  seatIdx,
						HitSpreadIndex: spIdx,
					}, true
				}
			}
		}
	}
	return rules.Action{}, false
}
