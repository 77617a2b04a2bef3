package rate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fxcache/internal/adapters"
	"fxcache/internal/domain"
	"fxcache/internal/metrics"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxStaleAge    = 24 * time.Hour
	defaultRefreshTimeout = 10 * time.Second
)

// Result is a lookup answer. Degraded marks a stale snapshot served after a
// failed refresh; Warning carries a side-channel failure (refresh or persistence)
// that did not prevent answering.
type Result struct {
	Snapshot domain.Snapshot
	Degraded bool
	Warning  error
}

// Cache keeps the latest known snapshot per base currency in memory, refreshing
// through the provider and writing through to the store when a lookup finds the
// entry stale or missing. Refreshes are collapsed per key: concurrent callers
// hitting the same stale base share one provider call and its outcome.
type Cache struct {
	client adapters.RateClient
	store  adapters.RateStore
	pairs  adapters.PairCache

	maxStaleAge    time.Duration
	refreshTimeout time.Duration

	metrics *metrics.CacheMetrics
	now     func() time.Time

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]domain.Snapshot
}

type refreshOutcome struct {
	snapshot domain.Snapshot
	warning  error
}

// GetLatest returns the freshest snapshot for base obtainable within policy.
// maxAge zero forces a refresh. The snapshot's base always equals the requested
// key; asOf never goes backwards for a key once a newer snapshot was observed.
func (c *Cache) GetLatest(ctx context.Context, base string, maxAge time.Duration) (Result, error) {
	if !domain.IsValidCode(base) {
		return Result{}, fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, base)
	}
	if maxAge < 0 {
		maxAge = 0
	}
	now := c.now()

	snapshot, known := c.lookup(base)
	if maxAge > 0 {
		if known && snapshot.Age(now) <= maxAge {
			if c.metrics != nil {
				c.metrics.HitsTotal.Inc()
			}
			return Result{Snapshot: snapshot}, nil
		}
		if !known {
			// First lookup for this key in this process: a snapshot persisted
			// earlier may still satisfy the freshness bound.
			if stored, ok := c.warmFromStore(ctx, base); ok && stored.Age(now) <= maxAge {
				if c.metrics != nil {
					c.metrics.HitsTotal.Inc()
				}
				return Result{Snapshot: stored}, nil
			}
		}
	}
	if c.metrics != nil {
		c.metrics.MissesTotal.Inc()
	}

	ch := c.group.DoChan(base, func() (interface{}, error) {
		return c.refresh(ctx, base)
	})

	select {
	case <-ctx.Done():
		// The in-flight refresh keeps running and still updates the shared
		// entry; only this caller stops waiting.
		return Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return c.degrade(ctx, base, now, res.Err)
		}
		outcome := res.Val.(refreshOutcome)
		return Result{Snapshot: outcome.snapshot, Warning: outcome.warning}, nil
	}
}

// GetHistory returns persisted snapshots for base with asOf in [from, to],
// newest-first. Pure read-through: no provider call, no entry mutation.
func (c *Cache) GetHistory(ctx context.Context, base string, from, to time.Time) ([]domain.Snapshot, error) {
	if !domain.IsValidCode(base) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, base)
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: from %s is after to %s", domain.ErrInvalidTimeRange,
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return c.store.FindRange(ctx, base, from, to)
}

// refresh performs one provider fetch plus write-through persist for a key.
// Runs under single-flight, detached from the triggering caller's context so
// joined waiters that time out never abort work other callers depend on.
func (c *Cache) refresh(ctx context.Context, base string) (refreshOutcome, error) {
	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
	defer cancel()

	if c.metrics != nil {
		c.metrics.RefreshesTotal.Inc()
	}
	start := c.now()
	snapshot, err := c.client.FetchRates(refreshCtx, base)
	if c.metrics != nil {
		c.metrics.RefreshDuration.Observe(c.now().Sub(start).Seconds())
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.RefreshFailsTotal.Inc()
		}
		return refreshOutcome{}, err
	}

	var warning error
	if saveErr := c.store.Save(refreshCtx, snapshot); saveErr != nil {
		// Availability over durability: the fresh snapshot is still cached and
		// returned, the persistence failure travels as a warning.
		warning = saveErr
		if c.metrics != nil {
			c.metrics.StoreWriteFails.Inc()
		}
		logrus.WithError(saveErr).WithField("base", base).Warn("Failed to persist refreshed snapshot")
	}

	return refreshOutcome{snapshot: c.remember(base, snapshot), warning: warning}, nil
}

// degrade answers a failed refresh with the best stale snapshot within the hard
// ceiling, or propagates the failure when none qualifies.
func (c *Cache) degrade(ctx context.Context, base string, now time.Time, refreshErr error) (Result, error) {
	if errors.Is(refreshErr, domain.ErrInvalidCurrency) {
		return Result{}, refreshErr
	}

	snapshot, known := c.lookup(base)
	if !known {
		snapshot, known = c.warmFromStore(ctx, base)
	}
	if known && snapshot.Age(now) <= c.maxStaleAge {
		if c.metrics != nil {
			c.metrics.DegradedServedTotal.Inc()
		}
		logrus.WithError(refreshErr).WithFields(logrus.Fields{
			"base": base,
			"age":  snapshot.Age(now).String(),
		}).Warn("Serving stale snapshot after refresh failure")
		return Result{Snapshot: snapshot, Degraded: true, Warning: refreshErr}, nil
	}
	if known {
		return Result{}, fmt.Errorf("%w: snapshot for %q is %s old: %v",
			domain.ErrStaleDataExceeded, base, snapshot.Age(now).Round(time.Second), refreshErr)
	}
	return Result{}, refreshErr
}

func (c *Cache) lookup(base string) (domain.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot, ok := c.entries[base]
	return snapshot, ok
}

// remember installs a snapshot for a key unless a newer one is already cached,
// and returns whichever snapshot remains current. This keeps a slow refresh
// carrying an older asOf from overriding a faster, newer one.
func (c *Cache) remember(base string, snapshot domain.Snapshot) domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.entries[base]; ok && current.AsOf().After(snapshot.AsOf()) {
		return current
	}
	c.entries[base] = snapshot
	return snapshot
}

func (c *Cache) warmFromStore(ctx context.Context, base string) (domain.Snapshot, bool) {
	stored, err := c.store.FindLatest(ctx, base)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			logrus.WithError(err).WithField("base", base).Warn("Failed to read latest snapshot from store")
		}
		return domain.Snapshot{}, false
	}
	return c.remember(base, stored), true
}

func NewCache(
	client adapters.RateClient,
	store adapters.RateStore,
	pairs adapters.PairCache,
	m *metrics.CacheMetrics,
	maxStaleAge time.Duration,
	refreshTimeout time.Duration,
) *Cache {
	if maxStaleAge <= 0 {
		maxStaleAge = defaultMaxStaleAge
	}
	if refreshTimeout <= 0 {
		refreshTimeout = defaultRefreshTimeout
	}
	return &Cache{
		client:         client,
		store:          store,
		pairs:          pairs,
		maxStaleAge:    maxStaleAge,
		refreshTimeout: refreshTimeout,
		metrics:        m,
		now:            time.Now,
		entries:        make(map[string]domain.Snapshot),
	}
}
