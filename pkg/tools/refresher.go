package tools

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// cacheTTL bounds how stale a cached live data entry may be served
const cacheTTL = 10 * time.Minute

type cacheEntry struct {
	value     map[string]interface{}
	fetchedAt time.Time
	fetch     func(ctx context.Context) (map[string]interface{}, error)
}

// Refresher caches live data results and re-fetches them on a cron
// schedule so hot queries stay warm between calls. Keys are tracked
// lazily: the first fetch for a key registers it for refresh.
type Refresher struct {
	cron    *cron.Cron
	entries map[string]*cacheEntry
	mu      sync.RWMutex
	logger  zerolog.Logger
}

// NewRefresher creates a refresher running on the given cron schedule,
// e.g. "@every 5m"
func NewRefresher(schedule string, logger zerolog.Logger) (*Refresher, error) {
	r := &Refresher{
		cron:    cron.New(),
		entries: make(map[string]*cacheEntry),
		logger:  logger,
	}

	if _, err := r.cron.AddFunc(schedule, r.refreshAll); err != nil {
		return nil, err
	}

	return r, nil
}

// Start begins scheduled refreshes
func (r *Refresher) Start() {
	r.cron.Start()
	r.logger.Info().Msg("Live data refresher started")
}

// Stop halts scheduled refreshes and waits for a running refresh to finish
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

// Fetch returns the cached value for a key when fresh, fetching and
// registering it otherwise
func (r *Refresher) Fetch(ctx context.Context, key string, fetch func(ctx context.Context) (map[string]interface{}, error)) (map[string]interface{}, error) {
	r.mu.RLock()
	entry, ok := r.entries[key]
	r.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < cacheTTL {
		return entry.value, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.entries[key] = &cacheEntry{
		value:     value,
		fetchedAt: time.Now(),
		fetch:     fetch,
	}
	r.mu.Unlock()

	return value, nil
}

// refreshAll re-fetches every tracked key, dropping entries whose fetch
// keeps failing past the TTL
func (r *Refresher) refreshAll() {
	r.mu.RLock()
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	r.mu.RUnlock()

	for _, key := range keys {
		r.mu.RLock()
		entry, ok := r.entries[key]
		r.mu.RUnlock()
		if !ok {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		value, err := entry.fetch(ctx)
		cancel()

		if err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("Live data refresh failed")
			if time.Since(entry.fetchedAt) > cacheTTL {
				r.mu.Lock()
				delete(r.entries, key)
				r.mu.Unlock()
			}
			continue
		}

		r.mu.Lock()
		r.entries[key] = &cacheEntry{
			value:     value,
			fetchedAt: time.Now(),
			fetch:     entry.fetch,
		}
		r.mu.Unlock()
	}

	r.logger.Debug().Int("keys", len(keys)).Msg("Live data refreshed")
}
