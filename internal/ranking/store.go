// Package ranking holds the shared leaderboard: per-username best scores with
// a global top-3, backed by durable storage. The Store is the only piece of
// process-wide mutable state shared across sessions.
package ranking

import (
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// persistDelay coalesces a burst of score updates into one storage write.
// In-memory state is consistent immediately; durability lags by at most this.
const persistDelay = 100 * time.Millisecond

// Entry is one leaderboard row.
type Entry struct {
	Username string
	Score    int
}

// Store is a thread-safe username -> highscore map with write-behind
// persistence. Every externally visible operation is individually atomic;
// there is no cross-call transaction.
type Store struct {
	mu     sync.Mutex
	scores map[string]int
	order  []string // registration order, for the earliest-registered tie-break

	storage Storage
	clock   quartz.Clock
	logger  *log.Logger

	dirty     chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// Open hydrates the store from storage and starts the persister. An
// unreadable storage is a startup-fatal error; after that, persist failures
// are logged, never surfaced to sessions.
func Open(storage Storage, clock quartz.Clock, logger *log.Logger) (*Store, error) {
	entries, err := storage.Load()
	if err != nil {
		return nil, err
	}

	s := &Store{
		scores:  make(map[string]int, len(entries)),
		order:   make([]string, 0, len(entries)),
		storage: storage,
		clock:   clock,
		logger:  logger.WithPrefix("ranking"),
		dirty:   make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, e := range entries {
		if _, ok := s.scores[e.Username]; !ok {
			s.order = append(s.order, e.Username)
		}
		s.scores[e.Username] = e.Score
	}

	go s.persistLoop()

	s.logger.Info("Leaderboard loaded", "users", len(s.scores))
	return s, nil
}

// HighscoreOf returns the stored highscore, 0 for a username never seen.
func (s *Store) HighscoreOf(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[username]
}

// RefreshIfGreater replaces the stored highscore for username when candidate
// is strictly greater (absence counts as 0). The compare-and-set runs under
// the lock, so no interleaving of concurrent refreshes can drop an update
// and a highscore never decreases. A replacement schedules a persist.
func (s *Store) RefreshIfGreater(username string, candidate int) {
	s.mu.Lock()
	current, known := s.scores[username]
	if known && candidate <= current {
		s.mu.Unlock()
		return
	}
	if !known {
		if candidate <= 0 {
			s.mu.Unlock()
			return
		}
		s.order = append(s.order, username)
	}
	s.scores[username] = candidate
	s.mu.Unlock()

	s.logger.Debug("Highscore refreshed", "user", username, "score", candidate)
	s.markDirty()
}

// Top3 returns the 3 highest highscores, descending, ties broken by earliest
// registration. The snapshot is taken under the lock: it is always a
// point-in-time consistent view, never a partially updated one.
func (s *Store) Top3() []Entry {
	s.mu.Lock()
	entries := make([]Entry, 0, len(s.order))
	for _, username := range s.order {
		entries = append(entries, Entry{Username: username, Score: s.scores[username]})
	}
	s.mu.Unlock()

	// entries is in registration order; a stable sort keeps that order among
	// equal scores.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > 3 {
		entries = entries[:3]
	}
	return entries
}

// Close stops the persister and flushes the final state synchronously.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	<-s.stopped
	return s.persist()
}

func (s *Store) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// persistLoop debounces dirty signals into storage writes.
func (s *Store) persistLoop() {
	defer close(s.stopped)

	for {
		select {
		case <-s.done:
			return
		case <-s.dirty:
			timer := s.clock.NewTimer(persistDelay)
			select {
			case <-timer.C:
				if err := s.persist(); err != nil {
					s.logger.Error("Failed to persist leaderboard", "error", err)
				}
			case <-s.done:
				timer.Stop()
				return
			}
		}
	}
}

// persist writes a snapshot of the full map. The snapshot is taken under the
// lock; the storage write happens outside it so sessions are never blocked on
// persistence I/O.
func (s *Store) persist() error {
	s.mu.Lock()
	entries := make([]Entry, 0, len(s.order))
	for _, username := range s.order {
		entries = append(entries, Entry{Username: username, Score: s.scores[username]})
	}
	s.mu.Unlock()

	return s.storage.Save(entries)
}
