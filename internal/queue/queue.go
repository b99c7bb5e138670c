// Package queue implements the per-stake matchmaking queue: priority
// FIFO insertion, wait-time estimation, expiry sweeps, and an advisory
// per-stake lock so the matchmaker never races itself.
package queue

import (
	"container/list"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Priority levels, lowest first (a larger value is a higher priority).
// Entries of a given priority are FIFO
// among themselves; a higher priority always sits ahead of a lower one.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
	PriorityVIP
)

const (
	defaultWaitEstimate = 30 * time.Second
	expiryAge           = 10 * time.Minute
	waitHistoryDepth    = 50
)

// Entry is one waiting player.
type Entry struct {
	Username string
	Priority Priority
	JoinedAt time.Time
}

// Stats summarizes a stake's queue for a status broadcast.
type Stats struct {
	Length        int
	EstimatedWait time.Duration
}

type stakeQueue struct {
	mu      sync.Mutex
	passMu  sync.Mutex // held by Lock; separate from mu so the holder can still call Enqueue/Dequeue/Stats
	entries *list.List // of *Entry, ordered by priority then arrival
	byUser  map[string]*list.Element
	waits   []time.Duration // rolling history of actual wait durations
}

func newStakeQueue() *stakeQueue {
	return &stakeQueue{
		entries: list.New(),
		byUser:  make(map[string]*list.Element),
	}
}

// Manager owns one queue per stake level. When redis is non-nil the
// per-stake advisory lock is additionally backed by a Redis SET NX PX
// lock so a multi-process matchmaker deployment can't race; a single
// process always has the local sync.Mutex regardless.
type Manager struct {
	mu     sync.Mutex
	queues map[int64]*stakeQueue
	now    func() time.Time
	redis  *redis.Client

	done     chan struct{}
	stopOnce sync.Once
}

func NewManager() *Manager {
	return &Manager{
		queues: make(map[int64]*stakeQueue),
		now:    time.Now,
		redis:  redisClientFromEnv(),
		done:   make(chan struct{}),
	}
}

// Start launches a background sweep that calls ExpireStale every interval,
// dropping matchmaking entries a client never followed up on.
func (m *Manager) Start(interval time.Duration) {
	go m.cleanupLoop(interval)
}

func (m *Manager) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.ExpireStale()
		case <-m.done:
			return
		}
	}
}

// Stop halts the background cleanup sweep. Safe to call once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
	})
}

// redisClientFromEnv returns nil when REDIS_ADDR is unset, meaning the
// Manager falls back to a purely in-process lock.
func redisClientFromEnv() *redis.Client {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr})
}

const (
	distLockTTL   = 5 * time.Second
	distLockRetry = 25 * time.Millisecond
)

// acquireDistLock blocks until it holds the Redis NX lock for stake, or
// returns a no-op release immediately if no Redis client is configured.
func (m *Manager) acquireDistLock(stake int64) func() {
	if m.redis == nil {
		return func() {}
	}
	ctx := context.Background()
	key := fmt.Sprintf("reemtable:queue-lock:%d", stake)
	token := uuid.NewString()
	for {
		ok, err := m.redis.SetNX(ctx, key, token, distLockTTL).Result()
		if err != nil {
			// Redis unreachable: degrade to local-only locking rather than
			// wedge the matchmaker.
			return func() {}
		}
		if ok {
			break
		}
		time.Sleep(distLockRetry)
	}
	return func() {
		// Best-effort release; a stale lock simply expires after distLockTTL.
		val, err := m.redis.Get(ctx, key).Result()
		if err == nil && val == token {
			m.redis.Del(ctx, key)
		}
	}
}

func (m *Manager) queueFor(stake int64) *stakeQueue {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[stake]
	if !ok {
		q = newStakeQueue()
		m.queues[stake] = q
	}
	return q
}

// Lock acquires the advisory lock for a stake's queue and returns an
// unlock function. The matchmaker holds this for the duration of its
// per-stake pass so two passes over the same stake can't run at once. It
// does not block Enqueue, Dequeue, Remove, Position or Stats, which the
// holder itself calls during its pass.
func (m *Manager) Lock(stake int64) func() {
	releaseDist := m.acquireDistLock(stake)
	q := m.queueFor(stake)
	q.passMu.Lock()
	return func() {
		q.passMu.Unlock()
		releaseDist()
	}
}

var ErrDuplicateUsername = errDuplicate{}

type errDuplicate struct{}

func (errDuplicate) Error() string { return "queue: username already queued for this stake" }

// Enqueue adds username to stake's queue at the given priority. Entries
// of the same priority are FIFO; a higher priority is inserted after all
// existing entries of equal-or-higher priority but before any entry of
// lower priority — i.e. it "goes before all normal entries" without
// disturbing arrival order within its own tier.
func (m *Manager) Enqueue(stake int64, username string, priority Priority) error {
	q := m.queueFor(stake)
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.byUser[username]; exists {
		return ErrDuplicateUsername
	}

	entry := &Entry{Username: username, Priority: priority, JoinedAt: m.now()}

	var insertBefore *list.Element
	for e := q.entries.Front(); e != nil; e = e.Next() {
		if e.Value.(*Entry).Priority < priority {
			insertBefore = e
			break
		}
	}

	var elem *list.Element
	if insertBefore != nil {
		elem = q.entries.InsertBefore(entry, insertBefore)
	} else {
		elem = q.entries.PushBack(entry)
	}
	q.byUser[username] = elem
	return nil
}

// Dequeue pops the front entry, if any, recording its wait duration for
// future estimates.
func (m *Manager) Dequeue(stake int64) (*Entry, bool) {
	q := m.queueFor(stake)
	q.mu.Lock()
	defer q.mu.Unlock()

	front := q.entries.Front()
	if front == nil {
		return nil, false
	}
	entry := front.Value.(*Entry)
	q.entries.Remove(front)
	delete(q.byUser, entry.Username)

	waited := m.now().Sub(entry.JoinedAt)
	q.waits = append(q.waits, waited)
	if len(q.waits) > waitHistoryDepth {
		q.waits = q.waits[len(q.waits)-waitHistoryDepth:]
	}

	return entry, true
}

// Remove drops username from stake's queue, if present.
func (m *Manager) Remove(stake int64, username string) {
	q := m.queueFor(stake)
	q.mu.Lock()
	defer q.mu.Unlock()
	if elem, ok := q.byUser[username]; ok {
		q.entries.Remove(elem)
		delete(q.byUser, username)
	}
}

// Position returns username's 1-based position in stake's queue, or 0 if
// not queued.
func (m *Manager) Position(stake int64, username string) int {
	q := m.queueFor(stake)
	q.mu.Lock()
	defer q.mu.Unlock()

	pos := 0
	for e := q.entries.Front(); e != nil; e = e.Next() {
		pos++
		if e.Value.(*Entry).Username == username {
			return pos
		}
	}
	return 0
}

// Stats returns the current length and the wait-time estimate for the
// position the next arrival would take (length+1).
func (m *Manager) Stats(stake int64) Stats {
	q := m.queueFor(stake)
	q.mu.Lock()
	defer q.mu.Unlock()

	length := q.entries.Len()
	return Stats{Length: length, EstimatedWait: q.estimateLocked(length + 1)}
}

func (q *stakeQueue) estimateLocked(pos int) time.Duration {
	if len(q.waits) == 0 {
		return defaultWaitEstimate
	}
	var total time.Duration
	for _, w := range q.waits {
		total += w
	}
	avg := total / time.Duration(len(q.waits))

	multiplier := pos / 2
	if multiplier < 1 {
		multiplier = 1
	}
	return avg * time.Duration(multiplier)
}

// ExpireStale removes every entry older than expiryAge from every stake's
// queue, returning the usernames dropped.
func (m *Manager) ExpireStale() []string {
	m.mu.Lock()
	stakes := make([]int64, 0, len(m.queues))
	for stake := range m.queues {
		stakes = append(stakes, stake)
	}
	m.mu.Unlock()

	var expired []string
	cutoff := m.now().Add(-expiryAge)
	for _, stake := range stakes {
		q := m.queueFor(stake)
		q.mu.Lock()
		for e := q.entries.Front(); e != nil; {
			next := e.Next()
			entry := e.Value.(*Entry)
			if entry.JoinedAt.Before(cutoff) {
				q.entries.Remove(e)
				delete(q.byUser, entry.Username)
				expired = append(expired, entry.Username)
			}
			e = next
		}
		q.mu.Unlock()
	}
	return expired
}
