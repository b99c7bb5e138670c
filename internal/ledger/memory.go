package ledger

import (
	"context"
	"sync"
	"time"
)

// memoryService is a mutex-guarded in-memory Service, used for tests and
// local development when LEDGER_DRIVER=memory.
type memoryService struct {
	mu       sync.Mutex
	balances map[string]int64
	seen     map[string][]Transaction // txID -> rows already committed for it
	starting int64
}

// NewMemoryService returns a Service backed by an in-process map. Every
// user starts with startingBalance chips the first time it is touched.
func NewMemoryService(startingBalance int64) Service {
	return &memoryService{
		balances: make(map[string]int64),
		seen:     make(map[string][]Transaction),
		starting: startingBalance,
	}
}

func (m *memoryService) Close() error { return nil }

func (m *memoryService) Balance(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(userID), nil
}

func (m *memoryService) balanceLocked(userID string) int64 {
	bal, ok := m.balances[userID]
	if !ok {
		bal = m.starting
		m.balances[userID] = bal
	}
	return bal
}

func (m *memoryService) DeductStakes(_ context.Context, txID string, seats []SeatStake, stake int64, tableID string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rows, ok := m.seen[txID]; ok {
		return Result{Transactions: rows}, nil
	}

	// Validate every seat can afford the stake before mutating anything,
	// so a failure aborts the whole batch with no partial deduction.
	for _, seat := range seats {
		if m.balanceLocked(seat.UserID) < stake {
			return Result{}, ErrInsufficientBalance
		}
	}

	now := time.Now()
	rows := make([]Transaction, 0, len(seats))
	for _, seat := range seats {
		before := m.balances[seat.UserID]
		after := before - stake
		m.balances[seat.UserID] = after
		rows = append(rows, Transaction{
			ID:            txID,
			UserID:        seat.UserID,
			TableID:       tableID,
			Kind:          KindStake,
			Amount:        stake,
			BalanceBefore: before,
			BalanceAfter:  after,
			Status:        StatusCompleted,
			Timestamp:     now,
		})
	}
	m.seen[txID] = rows
	return Result{Transactions: rows}, nil
}

func (m *memoryService) DistributeWinnings(_ context.Context, txID string, seats []SeatStake, winners []int, winType string, stake int64, tableID, gameID string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rows, ok := m.seen[txID]; ok {
		return Result{Transactions: rows}, nil
	}

	pot := stake * int64(len(seats))
	share := Payout(winType, pot, len(winners))
	winnerSet := make(map[int]bool, len(winners))
	for _, w := range winners {
		winnerSet[w] = true
	}

	now := time.Now()
	rows := make([]Transaction, 0, len(winners))
	for i, seat := range seats {
		if !winnerSet[i] {
			continue
		}
		before := m.balanceLocked(seat.UserID)
		after := before + share
		m.balances[seat.UserID] = after
		rows = append(rows, Transaction{
			ID:            txID,
			UserID:        seat.UserID,
			TableID:       tableID,
			GameID:        gameID,
			Kind:          KindPayout,
			Amount:        share,
			BalanceBefore: before,
			BalanceAfter:  after,
			WinType:       winType,
			Status:        StatusCompleted,
			Timestamp:     now,
		})
	}
	m.seen[txID] = rows
	return Result{Transactions: rows}, nil
}

func (m *memoryService) ApplyDropPenalty(_ context.Context, txID string, seats []SeatStake, dropperIdx int, roundScores []int, stake int64, tableID, gameID string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rows, ok := m.seen[txID]; ok {
		return Result{Transactions: rows}, nil
	}

	dropperScore := roundScores[dropperIdx]
	now := time.Now()
	rows := make([]Transaction, 0)

	totalPaid := int64(0)
	for i, score := range roundScores {
		if i == dropperIdx || score >= dropperScore {
			continue
		}
		before := m.balanceLocked(seats[i].UserID)
		after := before + stake
		m.balances[seats[i].UserID] = after
		rows = append(rows, Transaction{
			ID:            txID + "-credit-" + seats[i].UserID,
			UserID:        seats[i].UserID,
			TableID:       tableID,
			GameID:        gameID,
			Kind:          KindPenalty,
			Amount:        stake,
			BalanceBefore: before,
			BalanceAfter:  after,
			WinType:       "DROP_CAUGHT",
			Status:        StatusCompleted,
			Timestamp:     now,
		})
		totalPaid += stake
	}

	dropperBefore := m.balanceLocked(seats[dropperIdx].UserID)
	dropperAfter := dropperBefore - totalPaid
	m.balances[seats[dropperIdx].UserID] = dropperAfter
	rows = append(rows, Transaction{
		ID:            txID,
		UserID:        seats[dropperIdx].UserID,
		TableID:       tableID,
		GameID:        gameID,
		Kind:          KindPenalty,
		Amount:        totalPaid,
		BalanceBefore: dropperBefore,
		BalanceAfter:  dropperAfter,
		WinType:       "DROP_CAUGHT",
		Status:        StatusCompleted,
		Timestamp:     now,
	})

	m.seen[txID] = rows
	return Result{Transactions: rows}, nil
}
