package card

import "math/rand"

type CardList []Card

// Count returns the number of cards remaining.
func (ds CardList) Count() int {
	return len(ds)
}

// Shuffle randomizes the list in place using rng. Passing a *rand.Rand
// seeded deterministically makes the shuffle reproducible.
func (ds CardList) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(ds), func(i, j int) {
		ds[i], ds[j] = ds[j], ds[i]
	})
}

func (ds *CardList) PopCard() Card {
	totalCount := ds.Count()
	if totalCount == 0 {
		return CardInvalid
	}
	card := (*ds)[totalCount-1]
	*ds = (*ds)[:totalCount-1]
	return card
}

// Clone returns an independent copy of the list.
func (ds CardList) Clone() CardList {
	out := make(CardList, len(ds))
	copy(out, ds)
	return out
}
