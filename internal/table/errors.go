package table

import "errors"

var (
	ErrTableClosed      = errors.New("table: closed")
	ErrTableFull        = errors.New("table: full")
	ErrNotASeat         = errors.New("table: not a seat at this table")
	ErrNotYourTurn      = errors.New("table: not your turn")
	ErrHandNotInProgress = errors.New("table: no hand in progress")
	ErrUnknownUsername  = errors.New("table: unknown username")
	ErrNoBotToEvict     = errors.New("table: no bot seat to evict")
)
