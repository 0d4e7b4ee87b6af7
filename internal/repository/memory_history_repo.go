package repository

import (
	"context"
	"sync"
	"time"

	"github.com/robertrichard86/PLN-Flask-LLM/internal/models"
)

type memoryEntry struct {
	history  models.History
	lastSeen time.Time
}

// MemoryHistoryRepo keeps histories in process memory. Entries untouched for
// longer than ttl are dropped.
type MemoryHistoryRepo struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
}

func NewMemoryHistoryRepo(ttl time.Duration) *MemoryHistoryRepo {
	r := &MemoryHistoryRepo{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	// Cleanup goroutine
	if ttl > 0 {
		go func() {
			ticker := time.NewTicker(ttl)
			defer ticker.Stop()
			for {
				select {
				case <-r.stop:
					return
				case <-ticker.C:
					r.evictExpired()
				}
			}
		}()
	}

	return r
}

func (r *MemoryHistoryRepo) Close() {
	close(r.stop)
}

func (r *MemoryHistoryRepo) Get(ctx context.Context, sessionID string) (models.History, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok || r.expired(e) {
		delete(r.entries, sessionID)
		return nil, false, nil
	}
	e.lastSeen = r.now()

	out := make(models.History, len(e.history))
	copy(out, e.history)
	return out, true, nil
}

func (r *MemoryHistoryRepo) Put(ctx context.Context, sessionID string, history models.History) error {
	stored := make(models.History, len(history))
	copy(stored, history)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[sessionID] = &memoryEntry{history: stored, lastSeen: r.now()}
	return nil
}

func (r *MemoryHistoryRepo) Clear(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
	return nil
}

// Len reports the number of live sessions.
func (r *MemoryHistoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *MemoryHistoryRepo) expired(e *memoryEntry) bool {
	return r.ttl > 0 && r.now().Sub(e.lastSeen) > r.ttl
}

func (r *MemoryHistoryRepo) evictExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		if r.expired(e) {
			delete(r.entries, id)
		}
	}
}
