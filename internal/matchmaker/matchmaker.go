// Package matchmaker is the ticker-driven housekeeping loop that seats
// queued players, inserts and evicts filler bots, and grows/shrinks the
// overflow table pool for each stake — the same shape as the teacher's
// Lobby.cleanupLoop generalized from idle-table GC to full per-stake
// matchmaking.
package matchmaker

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"holdem-lite/internal/queue"
	"holdem-lite/internal/table"
)

// TableFactory creates a brand new table actor for stake. The matchmaker
// never constructs a Table itself since doing so requires a Sender and a
// ledger.Service that only the process wiring up the gateway can supply.
type TableFactory func(id string, stake int64) *table.Table

// Manager owns every table, grouped by stake into a fixed preset pool and
// a dynamically sized overflow pool, and periodically reconciles each
// table against the stake's queue.
type Manager struct {
	mu       sync.RWMutex
	preset   map[int64][]*table.Table
	overflow map[int64][]*table.Table

	queue          *queue.Manager
	newTable       TableFactory
	stakes         []int64
	tablesPerStake int
	nextOverflowID uint64

	interval time.Duration
	trigger  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	running  int32
}

// New builds a Manager and pre-creates tablesPerStake preset tables for
// every stake in stakes. Call Start to begin the periodic/triggered loop.
func New(q *queue.Manager, stakes []int64, tablesPerStake int, interval time.Duration, newTable TableFactory) *Manager {
	m := &Manager{
		preset:         make(map[int64][]*table.Table),
		overflow:       make(map[int64][]*table.Table),
		queue:          q,
		newTable:       newTable,
		stakes:         stakes,
		tablesPerStake: tablesPerStake,
		interval:       interval,
		trigger:        make(chan struct{}, 1),
		done:           make(chan struct{}),
	}
	for _, stake := range stakes {
		for i := 0; i < tablesPerStake; i++ {
			id := fmt.Sprintf("stake%d-preset-%d", stake, i+1)
			m.preset[stake] = append(m.preset[stake], newTable(id, stake))
		}
	}
	return m
}

// Start launches the background loop. Safe to call once.
func (m *Manager) Start() {
	if !atomic.CompareAndSwapInt32(&m.running, 0, 1) {
		return
	}
	go m.loop()
}

func (m *Manager) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.RunOnce()
		case <-m.trigger:
			m.RunOnce()
		case <-m.done:
			return
		}
	}
}

// Trigger asks the loop to run a pass as soon as it next gets a chance,
// without waiting for the next ticker tick. Non-blocking: a pending
// trigger already queued is enough, so this never stalls the caller.
func (m *Manager) Trigger() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// Stop halts the loop and every table it owns.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.mu.Lock()
		all := make([]*table.Table, 0)
		for _, ts := range m.preset {
			all = append(all, ts...)
		}
		for _, ts := range m.overflow {
			all = append(all, ts...)
		}
		m.mu.Unlock()
		for _, t := range all {
			t.Stop()
		}
	})
}

// RunOnce performs one matchmaking pass over every stake. Exported so
// tests (and a caller wiring things up synchronously) can drive a pass
// without waiting on the ticker.
func (m *Manager) RunOnce() {
	for _, stake := range m.stakes {
		m.passForStake(stake)
	}
}

// passForStake holds the stake's queue lock for the duration of the pass
// so two passes over the same stake can't interleave, then
// runs the four-step per-table algorithm against every table at this
// stake before deciding whether to grow or shrink the overflow pool.
func (m *Manager) passForStake(stake int64) {
	unlock := m.queue.Lock(stake)
	defer unlock()

	for _, t := range m.tablesAt(stake) {
		m.stepTable(t, stake)
	}
	m.reconcileOverflow(stake)
}

// stepTable runs steps 1-4 against a single table. Step 1 (resolve a
// pending transition) is handled entirely inside the table actor itself
// as soon as a hand ends, so there is nothing for the matchmaker to do
// here beyond letting the roster reflect that.
func (m *Manager) stepTable(t *table.Table, stake int64) {
	for {
		info := t.Roster()
		if info.SeatCount >= 4 {
			break
		}
		entry, ok := m.queue.Dequeue(stake)
		if !ok {
			break
		}
		if err := t.SubmitEvent(table.Event{Type: table.EventMatchmakerSeat, Username: entry.Username}); err != nil {
			log.Printf("[matchmaker] seat %s at %s: %v", entry.Username, t.ID, err)
			// Re-queue the player (behind others of the same priority) rather than drop them.
			_ = m.queue.Enqueue(stake, entry.Username, entry.Priority)
			break
		}
	}

	info := t.Roster()
	if info.HumanCount >= 1 && info.BotCount == 0 && !info.HasHandInProgress && info.SeatCount < 4 {
		botName := fmt.Sprintf("bot-%s-%d", t.ID, time.Now().UnixNano())
		if err := t.SubmitEvent(table.Event{Type: table.EventMatchmakerAddBot, Username: botName}); err != nil {
			log.Printf("[matchmaker] add bot to %s: %v", t.ID, err)
		}
		info = t.Roster()
	}

	for info.HumanCount >= 2 && info.BotCount > 0 && !info.HasHandInProgress {
		if err := t.SubmitEvent(table.Event{Type: table.EventMatchmakerEvictBot}); err != nil {
			break
		}
		info = t.Roster()
	}
}

func (m *Manager) tablesAt(stake int64) []*table.Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*table.Table, 0, len(m.preset[stake])+len(m.overflow[stake]))
	out = append(out, m.preset[stake]...)
	out = append(out, m.overflow[stake]...)
	return out
}

// reconcileOverflow creates a new dynamic table when every existing table
// at stake is full and players remain queued, and removes any overflow
// table that has gone empty. Preset tables are never removed.
func (m *Manager) reconcileOverflow(stake int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	allFull := true
	for _, t := range m.preset[stake] {
		if t.Roster().SeatCount < 4 {
			allFull = false
			break
		}
	}
	if allFull {
		for _, t := range m.overflow[stake] {
			if t.Roster().SeatCount < 4 {
				allFull = false
				break
			}
		}
	}

	var created *table.Table
	if allFull && m.queue.Stats(stake).Length > 0 {
		m.nextOverflowID++
		id := fmt.Sprintf("stake%d-overflow-%d", stake, m.nextOverflowID)
		t := m.newTable(id, stake)
		m.overflow[stake] = append(m.overflow[stake], t)
		created = t
		log.Printf("[matchmaker] created overflow table %s for stake %d", id, stake)
	}

	kept := m.overflow[stake][:0]
	for _, t := range m.overflow[stake] {
		if t != created && t.Roster().SeatCount == 0 {
			t.Stop()
			log.Printf("[matchmaker] removed empty overflow table %s", t.ID)
			continue
		}
		kept = append(kept, t)
	}
	m.overflow[stake] = kept
}

// Tables returns every table currently live for stake, preset first.
func (m *Manager) Tables(stake int64) []*table.Table {
	return m.tablesAt(stake)
}

// Find returns the table with the given id, or nil if no live table (preset
// or overflow, at any stake) currently has that id.
func (m *Manager) Find(tableID string) *table.Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ts := range m.preset {
		for _, t := range ts {
			if t.ID == tableID {
				return t
			}
		}
	}
	for _, ts := range m.overflow {
		for _, t := range ts {
			if t.ID == tableID {
				return t
			}
		}
	}
	return nil
}

// AllStakeSummaries returns a roster snapshot for every live table across
// every stake, in stake-ladder order, for a tables_update broadcast.
func (m *Manager) AllStakeSummaries() []table.RosterInfo {
	var out []table.RosterInfo
	for _, stake := range m.stakes {
		for _, t := range m.tablesAt(stake) {
			out = append(out, t.Roster())
		}
	}
	return out
}
