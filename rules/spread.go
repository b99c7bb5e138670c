package rules

import (
	"sort"

	"holdem-lite/card"
)

// ValidSpread reports whether cards form a legal spread. Exported for
// use by the bot driver, which must enumerate candidate spreads without
// reaching into this package's internals.
func ValidSpread(cards []card.Card) bool {
	return validSpread(cards)
}

// ExtendsSpread reports whether c can legally extend sp. Exported for
// the bot driver's hit-enumeration.
func ExtendsSpread(sp Spread, c card.Card) bool {
	return extendsSpread(sp, c)
}

// validSpread reports whether cards form a legal spread: at least three
// cards that are either all the same rank, or all the same suit and
// consecutive in the closed order A,2,3,4,5,6,7,J,Q,K (no wrap).
func validSpread(cards []card.Card) bool {
	if len(cards) < 3 {
		return false
	}
	if sameRank(cards) {
		return true
	}
	return sameSuitConsecutive(cards)
}

func sameRank(cards []card.Card) bool {
	rank := cards[0].Rank()
	for _, c := range cards[1:] {
		if c.Rank() != rank {
			return false
		}
	}
	return true
}

func sameSuitConsecutive(cards []card.Card) bool {
	suit := cards[0].Suit()
	indices := make([]int, 0, len(cards))
	seen := map[int]bool{}
	for _, c := range cards {
		if c.Suit() != suit {
			return false
		}
		idx := c.RankIndex()
		if idx < 0 || seen[idx] {
			return false
		}
		seen[idx] = true
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for i := 1; i < len(indices); i++ {
		if indices[i] != indices[i-1]+1 {
			return false
		}
	}
	return true
}

// extendsSpread reports whether c can legally be added to an existing
// valid spread: matching rank for a same-rank spread, or matching suit
// with the resulting rank set still forming a contiguous window for a
// suited run.
func extendsSpread(sp Spread, c card.Card) bool {
	if len(sp) == 0 {
		return false
	}
	if sameRank(sp) {
		return c.Rank() == sp[0].Rank()
	}
	candidate := make([]card.Card, 0, len(sp)+1)
	candidate = append(candidate, []card.Card(sp)...)
	candidate = append(candidate, c)
	return sameSuitConsecutive(candidate)
}

// removeCards returns hand with the given cards removed (first match
// each), and true if every requested card was found.
func removeCards(hand []card.Card, cards []card.Card) ([]card.Card, bool) {
	remaining := append([]card.Card(nil), hand...)
	for _, want := range cards {
		idx := -1
		for i, c := range remaining {
			if c == want {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, false
		}
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return remaining, true
}
