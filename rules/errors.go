package rules

import "errors"

var (
	ErrHandOver          = errors.New("rules: hand already over")
	ErrAlreadyDrawn      = errors.New("rules: seat already drew this turn")
	ErrMustDrawFirst     = errors.New("rules: seat must draw before acting")
	ErrStockEmpty        = errors.New("rules: stock is empty")
	ErrDiscardEmpty      = errors.New("rules: discard pile is empty")
	ErrInvalidSeat       = errors.New("rules: invalid seat index")
	ErrInvalidCardIndex  = errors.New("rules: invalid card index in hand")
	ErrInvalidSpread     = errors.New("rules: cards do not form a valid spread")
	ErrCardsNotInHand    = errors.New("rules: one or more cards are not in the acting seat's hand")
	ErrInvalidHit        = errors.New("rules: card cannot legally extend that spread")
	ErrDropBlocked       = errors.New("rules: seat is blocked from dropping by an active hit penalty")
	ErrDeclareIneligible = errors.New("rules: score does not qualify for a special win")
	ErrNotEnoughSeats    = errors.New("rules: a hand requires at least two seats")
)
