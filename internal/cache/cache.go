// Package cache keeps short-lived copies of read-mostly query results, such
// as the category list, in front of the database.
package cache

import (
	"context"
	"sync"
	"time"

	"ledger/internal/log"
)

// Cache is a keyed store of values that may expire.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	// Purge drops every entry.
	Purge()
	Len() int
}

// Cleaner is a cache that can drop its expired entries on demand.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically cleans the caches registered with it.
type Janitor struct {
	mu     sync.Mutex
	caches []Cleaner
	logger *log.Logger
}

func NewJanitor(logger *log.Logger) *Janitor {
	if logger == nil {
		logger = log.Discard()
	}
	return &Janitor{logger: logger.WithComponent(log.ComponentCache)}
}

func (j *Janitor) Register(c Cleaner) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.caches = append(j.caches, c)
}

// Sweep cleans every registered cache once and returns how many entries
// were dropped.
func (j *Janitor) Sweep() int {
	j.mu.Lock()
	caches := append([]Cleaner(nil), j.caches...)
	j.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				j.logger.Debug("Expired cache entries removed", "count", n)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
