package bot

import (
	"testing"

	"holdem-lite/card"
	"holdem-lite/rules"
)

func twoSeats() []rules.Seat {
	return []rules.Seat{
		{Status: rules.SeatActive},
		{Status: rules.SeatActive},
	}
}

func TestDecideDrawsStockWhenNoOwnSpread(t *testing.T) {
	s := rules.State{
		Seats:   twoSeats(),
		Hands:   [][]card.Card{{card.CardSpade2}, {card.CardHeart4}},
		Spreads: make([][]rules.Spread, 2),
		Discard: []card.Card{card.CardClubK},
		Turn:    0,
		Stake:   5,
		Phase:   rules.PhaseInProgress,
	}
	a, err := Decide(s)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if a.Type != rules.DrawStock {
		t.Fatalf("expected DRAW_STOCK, got %s", a.Type)
	}
}

func TestDecideDrawsDiscardWhenItExtendsOwnSpread(t *testing.T) {
	s := rules.State{
		Seats:   twoSeats(),
		Hands:   [][]card.Card{{card.CardClub7}, {card.CardHeart4}},
		Spreads: [][]rules.Spread{{{card.CardClub4, card.CardClub5, card.CardClub6}}, nil},
		Discard: []card.Card{card.CardClub3},
		Turn:    0,
		Stake:   5,
		Phase:   rules.PhaseInProgress,
	}
	a, err := Decide(s)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if a.Type != rules.DrawDiscard {
		t.Fatalf("expected DRAW_DISCARD, got %s", a.Type)
	}
}

func TestDecideSpreadsWhenLegal(t *testing.T) {
	s := rules.State{
		Seats:    twoSeats(),
		Hands:    [][]card.Card{{card.CardSpadeK, card.CardHeartK, card.CardDiamondK, card.CardClub2}, {card.CardHeart4}},
		Spreads:  make([][]rules.Spread, 2),
		Turn:     0,
		HasDrawn: true,
		Stake:    5,
		Phase:    rules.PhaseInProgress,
	}
	a, err := Decide(s)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if a.Type != rules.SpreadAction {
		t.Fatalf("expected SPREAD, got %s", a.Type)
	}
	if len(a.SpreadCards) != 3 {
		t.Fatalf("expected a 3-card spread, got %d", len(a.SpreadCards))
	}
}

func TestDecideDropsWhenScoreLowAndUnblocked(t *testing.T) {
	s := rules.State{
		Seats:    twoSeats(),
		Hands:    [][]card.Card{{card.CardSpade2, card.CardHeart3}, {card.CardHeart4}},
		Spreads:  make([][]rules.Spread, 2),
		Turn:     0,
		HasDrawn: true,
		Stake:    5,
		Phase:    rules.PhaseInProgress,
	}
	a, err := Decide(s)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if a.Type != rules.Drop {
		t.Fatalf("expected DROP for score 5, got %s", a.Type)
	}
}

func TestDecideDiscardsHighestValueCardAsFallback(t *testing.T) {
	s := rules.State{
		Seats:    twoSeats(),
		Hands:    [][]card.Card{{card.CardSpade7, card.CardHeartK, card.CardDiamond6}, {card.CardHeart4}},
		Spreads:  make([][]rules.Spread, 2),
		Turn:     0,
		HasDrawn: true,
		Stake:    5,
		Phase:    rules.PhaseInProgress,
	}
	a, err := Decide(s)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if a.Type != rules.Discard {
		t.Fatalf("expected DISCARD fallback, got %s", a.Type)
	}
	if a.DiscardIndex != 1 {
		t.Fatalf("expected to discard the King at index 1, got %d", a.DiscardIndex)
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	s := rules.State{
		Seats:    twoSeats(),
		Hands:    [][]card.Card{{card.CardSpade7, card.CardHeartK}, {card.CardHeart4}},
		Spreads:  make([][]rules.Spread, 2),
		Turn:     0,
		HasDrawn: true,
		Stake:    5,
		Phase:    rules.PhaseInProgress,
	}
	a1, err1 := Decide(s)
	a2, err2 := Decide(s)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v %v", err1, err2)
	}
	if a1.Type != a2.Type || a1.DiscardIndex != a2.DiscardIndex {
		t.Fatalf("Decide is not deterministic: %+v vs %+v", a1, a2)
	}
}
