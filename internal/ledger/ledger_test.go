package ledger

import (
	"context"
	"testing"
)

func TestPayoutTable(t *testing.T) {
	cases := []struct {
		winType string
		pot     int64
		winners int
		want    int64
	}{
		{"REEM", 20, 1, 20},
		{"IMMEDIATE_50", 20, 1, 40},
		{"SPECIAL_WIN", 20, 1, 60},
		{"DROP_WIN", 30, 1, 30},
		{"REGULAR_WIN", 20, 2, 10},
		{"STOCK_EMPTY", 15, 3, 5},
	}
	for _, c := range cases {
		if got := Payout(c.winType, c.pot, c.winners); got != c.want {
			t.Fatalf("Payout(%s, %d, %d) = %d, want %d", c.winType, c.pot, c.winners, got, c.want)
		}
	}
}

func TestDeductStakesRejectsInsufficientBalanceAsWholeBatch(t *testing.T) {
	svc := NewMemoryService(5)
	ctx := context.Background()
	seats := []SeatStake{{UserID: "a"}, {UserID: "b"}}

	_, err := svc.DeductStakes(ctx, "tx1", seats, 10, "table1")
	if err != ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	balA, _ := svc.Balance(ctx, "a")
	balB, _ := svc.Balance(ctx, "b")
	if balA != 5 || balB != 5 {
		t.Fatalf("expected no partial deduction, got a=%d b=%d", balA, balB)
	}
}

func TestIdempotentDistributeWinnings(t *testing.T) {
	svc := NewMemoryService(0)
	ctx := context.Background()
	seats := []SeatStake{{UserID: "a"}, {UserID: "b"}}

	if _, err := svc.DistributeWinnings(ctx, "t1", seats, []int{0}, "REEM", 10, "table1", "game1"); err != nil {
		t.Fatalf("DistributeWinnings: %v", err)
	}
	balAfterFirst, _ := svc.Balance(ctx, "a")

	if _, err := svc.DistributeWinnings(ctx, "t1", seats, []int{0}, "REEM", 10, "table1", "game1"); err != nil {
		t.Fatalf("DistributeWinnings rerun: %v", err)
	}
	balAfterSecond, _ := svc.Balance(ctx, "a")

	if balAfterFirst != balAfterSecond {
		t.Fatalf("replaying the same transaction id changed the balance: %d -> %d", balAfterFirst, balAfterSecond)
	}
}

func TestApplyDropPenaltyChargesDropperAndCreditsSeatsBelowMin(t *testing.T) {
	svc := NewMemoryService(100)
	ctx := context.Background()
	seats := []SeatStake{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}}
	roundScores := []int{6, 3, 4} // dropper (seat 0) scores 6; seats 1 and 2 are below it

	result, err := svc.ApplyDropPenalty(ctx, "drop1", seats, 0, roundScores, 10, "table1", "game1")
	if err != nil {
		t.Fatalf("ApplyDropPenalty: %v", err)
	}
	if len(result.Transactions) != 3 {
		t.Fatalf("expected 3 transaction rows (2 credits + 1 debit), got %d", len(result.Transactions))
	}

	balA, _ := svc.Balance(ctx, "a")
	balB, _ := svc.Balance(ctx, "b")
	balC, _ := svc.Balance(ctx, "c")
	if balA != 80 {
		t.Fatalf("expected dropper to pay 20 total, balance = %d", balA)
	}
	if balB != 110 || balC != 110 {
		t.Fatalf("expected both seats below min to receive stake, got b=%d c=%d", balB, balC)
	}
}
