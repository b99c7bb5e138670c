package table

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"holdem-lite/card"
	"holdem-lite/rules"
)

func randomID(prefix string) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return prefix + "_" + hex.EncodeToString(b[:])
}

func bgCtx() context.Context { return context.Background() }

// cardView is the wire representation of a card, or a hidden placeholder.
type cardView struct {
	Rank   string `json:"rank"`
	Suit   string `json:"suit"`
	Hidden bool   `json:"hidden,omitempty"`
}

func visibleCard(c card.Card) cardView {
	return cardView{Rank: rankString(c.Rank()), Suit: c.Suit().String()}
}

func rankString(r byte) string {
	switch r {
	case 1:
		return "A"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	default:
		return fmt.Sprintf("%d", r)
	}
}

func hiddenCard() cardView {
	return cardView{Rank: "hidden", Suit: "hidden", Hidden: true}
}

func cardsView(cards []card.Card, reveal bool) []cardView {
	out := make([]cardView, len(cards))
	for i, c := range cards {
		if reveal {
			out[i] = visibleCard(c)
		} else {
			out[i] = hiddenCard()
		}
	}
	return out
}

type spreadView struct {
	Cards []cardView `json:"cards"`
}

type seatView struct {
	Username         string       `json:"username"`
	IsHuman          bool         `json:"isHuman"`
	Status           string       `json:"status"`
	Hand             []cardView   `json:"hand"`
	HandCount        int          `json:"handCount"`
	Spreads          []spreadView `json:"spreads"`
	HitPenaltyRounds int          `json:"hitPenaltyRounds"`
}

type outcomeView struct {
	WinType     string `json:"winType"`
	Winners     []int  `json:"winners"`
	RoundScores []int  `json:"roundScores"`
	DroppedSeat *int   `json:"droppedSeat,omitempty"`
}

// stateView is the redacted wire snapshot sent to one recipient: own hand
// cards are visible, every other seat's hand is sent as hidden placeholder
// cards plus a count, and
// the stock is always hidden. Spreads and the discard pile are public.
type stateView struct {
	TableID   string        `json:"tableId"`
	Stake     int64         `json:"stake"`
	State     string        `json:"state"`
	Seats     []seatView    `json:"seats"`
	Discard   []cardView    `json:"discard"`
	StockSize int           `json:"stockSize"`
	Turn      int           `json:"turn"`
	HasDrawn  bool          `json:"hasDrawn"`
	Pot       int64         `json:"pot"`
	Phase     string        `json:"phase"`
	Outcome   *outcomeView  `json:"outcome,omitempty"`
	StateHash uint64        `json:"stateHash"`
}

// redactedView builds the view forUsername sees: their own hand in the
// clear, everyone else's as hidden placeholders plus a card count. Works identically for a
// seated player and a spectator (forUsername simply never matches a seat
// in the spectator case, so every hand comes back hidden).
func (t *Table) redactedView(forUsername string) stateView {
	view := stateView{
		TableID: t.ID,
		Stake:   t.Stake,
		State:   t.state.String(),
	}
	if t.hand == nil {
		for _, s := range t.seats {
			view.Seats = append(view.Seats, seatView{
				Username: s.Username, IsHuman: s.IsHuman, Status: s.Status.String(),
			})
		}
		return view
	}

	h := t.hand
	view.Turn = h.Turn
	view.HasDrawn = h.HasDrawn
	view.Pot = h.Pot()
	view.Phase = h.Phase.String()
	view.StockSize = len(h.Stock)
	view.Discard = cardsView(h.Discard, true)
	view.StateHash = t.handHash

	for i, s := range h.Seats {
		reveal := s.Username == forUsername
		sv := seatView{
			Username:         s.Username,
			IsHuman:          s.IsHuman,
			Status:           s.Status.String(),
			HandCount:        len(h.Hands[i]),
			Hand:             cardsView(h.Hands[i], reveal),
			HitPenaltyRounds: s.HitPenaltyRounds,
		}
		for _, sp := range h.Spreads[i] {
			sv.Spreads = append(sv.Spreads, spreadView{Cards: cardsView(sp, true)})
		}
		view.Seats = append(view.Seats, sv)
	}

	if h.Outcome != nil {
		view.Outcome = &outcomeView{
			WinType:     string(h.Outcome.WinType),
			Winners:     h.Outcome.Winners,
			RoundScores: h.Outcome.RoundScores,
			DroppedSeat: h.Outcome.DroppedSeat,
		}
	}
	return view
}

func (t *Table) connIDs() []string {
	var ids []string
	for _, s := range t.seats {
		if s.ConnectionID != "" {
			ids = append(ids, s.ConnectionID)
		}
	}
	for _, sp := range t.spectators {
		if sp.ConnectionID != "" {
			ids = append(ids, sp.ConnectionID)
		}
	}
	return ids
}

func (t *Table) usernameForConn(connID string) string {
	return t.usernameByConn(connID)
}

func (t *Table) broadcastAll(event string, payload any) {
	for _, id := range t.connIDs() {
		t.sender.SendTo(id, event, payload)
	}
}

// broadcastGameUpdate sends each recipient their own redacted view, since
// "the same event" still carries a different hand for every seat.
func (t *Table) broadcastGameUpdate() {
	for _, s := range t.seats {
		if s.ConnectionID != "" {
			t.sender.SendTo(s.ConnectionID, "game_update", t.redactedView(s.Username))
		}
	}
	for _, sp := range t.spectators {
		if sp.ConnectionID != "" {
			t.sender.SendTo(sp.ConnectionID, "game_update", t.redactedView(sp.Username))
		}
	}
	if t.hand != nil && t.hand.Phase == rules.PhaseInProgress {
		t.broadcastAll("turn_start", map[string]any{"turn": t.hand.Turn})
	}
}

func (t *Table) broadcastGameOver() {
	for _, s := range t.seats {
		if s.ConnectionID != "" {
			t.sender.SendTo(s.ConnectionID, "game_over", t.redactedView(s.Username))
		}
	}
	for _, sp := range t.spectators {
		if sp.ConnectionID != "" {
			t.sender.SendTo(sp.ConnectionID, "game_over", t.redactedView(sp.Username))
		}
	}
}

type rosterSeat struct {
	Username string `json:"username"`
	IsHuman  bool   `json:"isHuman"`
	Status   string `json:"status"`
}

type rosterView struct {
	TableID    string       `json:"tableId"`
	Stake      int64        `json:"stake"`
	State      string       `json:"state"`
	Seats      []rosterSeat `json:"seats"`
	Spectators int          `json:"spectators"`
}

func (t *Table) broadcastRoster() {
	view := rosterView{TableID: t.ID, Stake: t.Stake, State: t.state.String(), Spectators: len(t.spectators)}
	for _, s := range t.seats {
		view.Seats = append(view.Seats, rosterSeat{Username: s.Username, IsHuman: s.IsHuman, Status: s.Status.String()})
	}
	t.broadcastAll("tables_update", view)
	if t.notifyDirty != nil {
		go t.notifyDirty()
	}
}
