// Package ledger implements the atomic, idempotent wagering operations
// that move chips between seats and the house: stake deduction, payout
// distribution, and the drop-catch penalty. Every operation is atomic
// across all balance updates and transaction-log writes it makes, and
// every transaction carries a caller-supplied id so replaying it is a
// no-op.
package ledger

import (
	"context"
	"errors"
	"time"
)

// Kind identifies what a ledger transaction represents.
type Kind string

const (
	KindStake   Kind = "stake"
	KindPayout  Kind = "payout"
	KindPenalty Kind = "penalty"
)

// Status is the lifecycle of a single transaction row.
type Status string

const (
	StatusPending    Status = "pending"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRolledBack Status = "rolled_back"
)

// Transaction is one row of the append-only ledger.
type Transaction struct {
	ID            string
	UserID        string
	TableID       string
	GameID        string
	Kind          Kind
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	WinType       string
	Status        Status
	Timestamp     time.Time
}

// Result is what every ledger operation returns alongside its error: the
// transactions it wrote, in the order it wrote them.
type Result struct {
	Transactions []Transaction
}

var (
	ErrInsufficientBalance = errors.New("ledger: seat has insufficient balance for the stake")
	ErrUnknownUser         = errors.New("ledger: unknown user id")
)

// SeatStake identifies one seat's user id for a stake/payout/penalty
// batch; callers build these from the table's live seat list.
type SeatStake struct {
	UserID string
}

// Service is the C3 contract. Every method is atomic across all of the
// balance updates and transaction rows it writes; reapplying the same
// transaction id is a no-op, and any failure rolls the whole batch back.
type Service interface {
	DeductStakes(ctx context.Context, txID string, seats []SeatStake, stake int64, tableID string) (Result, error)
	DistributeWinnings(ctx context.Context, txID string, seats []SeatStake, winners []int, winType string, stake int64, tableID, gameID string) (Result, error)
	ApplyDropPenalty(ctx context.Context, txID string, seats []SeatStake, dropperIdx int, roundScores []int, stake int64, tableID, gameID string) (Result, error)
	Balance(ctx context.Context, userID string) (int64, error)
	Close() error
}

// Payout computes each winner's share of the pot for winType, per the
// fixed payout table; losers receive nothing. pot is stake * seat count.
func Payout(winType string, pot int64, winnerCount int) int64 {
	if winnerCount <= 0 {
		return 0
	}
	switch winType {
	case "REEM":
		return pot
	case "IMMEDIATE_50":
		return 2 * pot
	case "SPECIAL_WIN":
		return 3 * pot
	case "DROP_WIN":
		return pot
	case "REGULAR_WIN", "STOCK_EMPTY":
		return pot / int64(winnerCount)
	default:
		return 0
	}
}
