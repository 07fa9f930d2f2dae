package cooldown

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Tracker не даёт обрабатывать одно и то же предложение чаще, чем раз в cooldown.
// Mark вызывается после попытки покупки, независимо от её исхода.
type Tracker interface {
	ShouldProcess(ctx context.Context, offerID string, now time.Time) (bool, error)
	Mark(ctx context.Context, offerID string, now time.Time) error
}

type memoryTracker struct {
	mu         sync.Mutex
	cooldown   time.Duration
	maxEntries int
	lastSeen   map[string]time.Time
}

// NewMemoryTracker - таблица в памяти; maxEntries <= 0 - без ограничения размера
func NewMemoryTracker(cooldown time.Duration, maxEntries int) Tracker {
	return &memoryTracker{
		cooldown:   cooldown,
		maxEntries: maxEntries,
		lastSeen:   make(map[string]time.Time),
	}
}

func (tracker *memoryTracker) ShouldProcess(_ context.Context, offerID string, now time.Time) (bool, error) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	last, ok := tracker.lastSeen[offerID]
	if !ok {
		return true, nil
	}
	return now.Sub(last) >= tracker.cooldown, nil
}

func (tracker *memoryTracker) Mark(_ context.Context, offerID string, now time.Time) error {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	tracker.lastSeen[offerID] = now
	if tracker.maxEntries > 0 && len(tracker.lastSeen) > tracker.maxEntries {
		tracker.evict()
	}
	return nil
}

// evict удаляет самые старые записи, пока таблица не уложится в maxEntries
func (tracker *memoryTracker) evict() {
	type entry struct {
		id   string
		seen time.Time
	}
	entries := make([]entry, 0, len(tracker.lastSeen))
	for id, seen := range tracker.lastSeen {
		entries = append(entries, entry{id: id, seen: seen})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return a.seen.Compare(b.seen)
	})
	for _, e := range entries[:len(entries)-tracker.maxEntries] {
		delete(tracker.lastSeen, e.id)
	}
}
