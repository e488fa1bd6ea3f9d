package cache

import (
	"context"
	"fmt"
	"sync"

	"aitools-backend/internal/database"
)

// HistoryCache caches history listings per (user, limit). Any write for a
// user must call Invalidate so later reads see it.
//
// Invalidate also bumps a per-user generation. A reader takes the generation
// before querying the database and passes it to Set, which drops the listing
// if an Invalidate happened in between.
type HistoryCache interface {
	Get(ctx context.Context, userID string, limit int) ([]database.History, bool, error)
	Generation(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID string, gen int64, limit int, items []database.History) error
	Invalidate(ctx context.Context, userID string) error
}

type NoopCache struct{}

func (NoopCache) Get(context.Context, string, int) ([]database.History, bool, error) {
	return nil, false, nil
}

func (NoopCache) Generation(context.Context, string) (int64, error) {
	return 0, nil
}

func (NoopCache) Set(context.Context, string, int64, int, []database.History) error {
	return nil
}

func (NoopCache) Invalidate(context.Context, string) error {
	return nil
}

// MemoryCache keeps listings in process. Entries never expire; it is meant for
// single-instance deployments and tests.
type MemoryCache struct {
	mu          sync.Mutex
	entries     map[string]map[int][]database.History
	generations map[string]int64
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:     make(map[string]map[int][]database.History),
		generations: make(map[string]int64),
	}
}

func (c *MemoryCache) Get(_ context.Context, userID string, limit int) ([]database.History, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, ok := c.entries[userID][limit]
	if !ok {
		return nil, false, nil
	}
	out := make([]database.History, len(items))
	copy(out, items)
	return out, true, nil
}

func (c *MemoryCache) Generation(_ context.Context, userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.generations[userID], nil
}

func (c *MemoryCache) Set(_ context.Context, userID string, gen int64, limit int, items []database.History) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[userID] != gen {
		return nil
	}

	if _, ok := c.entries[userID]; !ok {
		c.entries[userID] = make(map[int][]database.History)
	}
	stored := make([]database.History, len(items))
	copy(stored, items)
	c.entries[userID][limit] = stored
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, userID)
	c.generations[userID]++
	return nil
}

func historyKey(userID string) string {
	return fmt.Sprintf("history:%s", userID)
}

func generationKey(userID string) string {
	return fmt.Sprintf("history:gen:%s", userID)
}
