package queue

import (
	"sync"
	"testing"
	"time"
)

func TestEnqueueDequeueFIFO(t *testing.T) {
	m := NewManager()
	_ = m.Enqueue(10, "alice", PriorityNormal)
	_ = m.Enqueue(10, "bob", PriorityNormal)

	e, ok := m.Dequeue(10)
	if !ok || e.Username != "alice" {
		t.Fatalf("expected alice first, got %+v ok=%v", e, ok)
	}
	e, ok = m.Dequeue(10)
	if !ok || e.Username != "bob" {
		t.Fatalf("expected bob second, got %+v ok=%v", e, ok)
	}
}

func TestPriorityOrdersAheadOfNormal(t *testing.T) {
	m := NewManager()
	_ = m.Enqueue(10, "normal1", PriorityNormal)
	_ = m.Enqueue(10, "normal2", PriorityNormal)
	_ = m.Enqueue(10, "vip", PriorityVIP)

	order := []string{}
	for i := 0; i < 3; i++ {
		e, ok := m.Dequeue(10)
		if !ok {
			t.Fatalf("expected entry at step %d", i)
		}
		order = append(order, e.Username)
	}
	want := []string{"vip", "normal1", "normal2"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestPriorityPreservesFIFOWithinTier(t *testing.T) {
	m := NewManager()
	_ = m.Enqueue(10, "high1", PriorityHigh)
	_ = m.Enqueue(10, "vip1", PriorityVIP)
	_ = m.Enqueue(10, "high2", PriorityHigh)

	order := []string{}
	for i := 0; i < 3; i++ {
		e, _ := m.Dequeue(10)
		order = append(order, e.Username)
	}
	want := []string{"vip1", "high1", "high2"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestEnqueueRejectsDuplicateUsername(t *testing.T) {
	m := NewManager()
	if err := m.Enqueue(10, "alice", PriorityNormal); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := m.Enqueue(10, "alice", PriorityNormal); err != ErrDuplicateUsername {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestPositionReportsOneBasedIndex(t *testing.T) {
	m := NewManager()
	_ = m.Enqueue(10, "alice", PriorityNormal)
	_ = m.Enqueue(10, "bob", PriorityNormal)

	if pos := m.Position(10, "bob"); pos != 2 {
		t.Fatalf("expected position 2, got %d", pos)
	}
	if pos := m.Position(10, "nobody"); pos != 0 {
		t.Fatalf("expected position 0 for unqueued user, got %d", pos)
	}
}

func TestRemoveDropsEntry(t *testing.T) {
	m := NewManager()
	_ = m.Enqueue(10, "alice", PriorityNormal)
	_ = m.Enqueue(10, "bob", PriorityNormal)
	m.Remove(10, "alice")

	if pos := m.Position(10, "alice"); pos != 0 {
		t.Fatalf("expected alice removed, position = %d", pos)
	}
	if pos := m.Position(10, "bob"); pos != 1 {
		t.Fatalf("expected bob to shift to position 1, got %d", pos)
	}
}

func TestStatsDefaultsWithNoHistory(t *testing.T) {
	m := NewManager()
	stats := m.Stats(10)
	if stats.Length != 0 {
		t.Fatalf("expected empty queue, got length %d", stats.Length)
	}
	if stats.EstimatedWait != defaultWaitEstimate {
		t.Fatalf("expected default estimate %v, got %v", defaultWaitEstimate, stats.EstimatedWait)
	}
}

func TestExpireStaleRemovesOldEntries(t *testing.T) {
	m := NewManager()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	_ = m.Enqueue(10, "stale", PriorityNormal)

	m.now = func() time.Time { return base.Add(11 * time.Minute) }
	_ = m.Enqueue(10, "fresh", PriorityNormal)

	expired := m.ExpireStale()
	if len(expired) != 1 || expired[0] != "stale" {
		t.Fatalf("expected only 'stale' expired, got %v", expired)
	}
	if pos := m.Position(10, "fresh"); pos != 1 {
		t.Fatalf("expected fresh to remain queued, position = %d", pos)
	}
}

func TestStartRunsCleanupSweepOnTicker(t *testing.T) {
	m := NewManager()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	mu.Lock()
	now := base
	mu.Unlock()
	m.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	_ = m.Enqueue(10, "stale", PriorityNormal)

	mu.Lock()
	now = base.Add(11 * time.Minute)
	mu.Unlock()

	m.Start(10 * time.Millisecond)
	defer m.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.Position(10, "stale") == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected background sweep to expire 'stale' within the deadline")
}

func TestLockIsIndependentAcrossStakes(t *testing.T) {
	m := NewManager()
	unlockA := m.Lock(10)
	unlockB := m.Lock(20) // different stake must not block
	unlockA()
	unlockB()
}
