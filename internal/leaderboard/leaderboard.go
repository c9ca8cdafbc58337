// Package leaderboard keeps the local top-N list of best scores.
package leaderboard

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// Defaults for the persisted leaderboard.
const (
	DefaultKey   = "airJugglerLeaderboard"
	DefaultLimit = 5
	DateLayout   = "1/2/2006, 3:04:05 PM"
)

// Entry is a single leaderboard row.
type Entry struct {
	Score int    `json:"score"`
	Date  string `json:"date"`
}

// KV is a string-keyed key-value store.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Board reads and writes the leaderboard as one JSON array under a fixed key.
type Board struct {
	kv    KV
	key   string
	limit int
	now   func() time.Time
	mu    sync.Mutex
}

// Option configures a Board.
type Option func(*Board)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(b *Board) { b.key = key }
}

// WithLimit overrides the number of entries kept.
func WithLimit(limit int) Option {
	return func(b *Board) {
		if limit > 0 {
			b.limit = limit
		}
	}
}

// WithClock sets the time source used to stamp new entries.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// New creates a Board on top of kv.
func New(kv KV, opts ...Option) *Board {
	b := &Board{
		kv:    kv,
		key:   DefaultKey,
		limit: DefaultLimit,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Save inserts score stamped with the current time, keeps the best entries
// and persists the result. The returned rank is 1-based, or 0 when the score
// did not make the list.
func (b *Board) Save(score int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.load()
	entries = append(entries, Entry{Score: score, Date: b.now().Format(DateLayout)})
	newest := len(entries) - 1

	// Stable keeps earlier entries ahead of a new tie.
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return entries[order[i]].Score > entries[order[j]].Score
	})

	rank := 0
	sorted := make([]Entry, 0, len(entries))
	for pos, idx := range order {
		if pos >= b.limit {
			break
		}
		if idx == newest {
			rank = pos + 1
		}
		sorted = append(sorted, entries[idx])
	}

	data, err := json.Marshal(sorted)
	if err != nil {
		return 0, fmt.Errorf("encode leaderboard: %w", err)
	}
	if err := b.kv.Set(b.key, string(data)); err != nil {
		return 0, fmt.Errorf("persist leaderboard: %w", err)
	}

	return rank, nil
}

// Load returns the persisted entries, best first. Missing or unreadable data
// yields an empty list.
func (b *Board) Load() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load()
}

// Clear removes all entries.
func (b *Board) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.kv.Remove(b.key); err != nil {
		return fmt.Errorf("clear leaderboard: %w", err)
	}
	return nil
}

// Best returns the top score, or 0 when the board is empty.
func (b *Board) Best() int {
	entries := b.Load()
	if len(entries) == 0 {
		return 0
	}
	return entries[0].Score
}

func (b *Board) load() []Entry {
	raw, ok, err := b.kv.Get(b.key)
	if err != nil {
		log.Printf("Failed to read leaderboard: %v", err)
		return []Entry{}
	}
	if !ok || raw == "" {
		return []Entry{}
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Printf("Ignoring malformed leaderboard data: %v", err)
		return []Entry{}
	}
	if entries == nil {
		return []Entry{}
	}
	return entries
}
