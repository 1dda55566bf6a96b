package reports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

const reportCacheTTL = 5 * time.Minute

var (
	reportCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "udyogbooks_report_cache_hits_total",
		Help: "Number of report requests served from the in-process cache.",
	})
	reportCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "udyogbooks_report_cache_miss_total",
		Help: "Number of report requests that rebuilt their rows.",
	})
)

// SetupMetrics registers the report cache counters. Safe to call more than
// once; an already-registered collector keeps the existing instance.
func SetupMetrics(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{reportCacheHits, reportCacheMisses} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

var reportBuildGroup singleflight.Group

func singleflightBuild(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	resultChan := reportBuildGroup.DoChan(key, func() (any, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}

type cacheItem struct {
	value   any
	expires time.Time
}

type reportCache struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]cacheItem
}

func newReportCache(ttl time.Duration) *reportCache {
	return &reportCache{
		ttl:   ttl,
		items: make(map[string]cacheItem),
	}
}

func (c *reportCache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(item.expires) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	return item.value, true
}

func (c *reportCache) Set(key string, value any) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items[key] = cacheItem{value: value, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *reportCache) Bust() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items = make(map[string]cacheItem)
	c.mu.Unlock()
}

func cacheKey(report string, f Filters) string {
	from, to := "any", "any"
	if f.From != nil {
		from = f.From.Format("2006-01-02")
	}
	if f.To != nil {
		to = f.To.Format("2006-01-02")
	}
	client := "all"
	if f.ClientID != nil {
		client = fmt.Sprintf("%d", *f.ClientID)
	}
	category := "all"
	if f.Category != nil {
		category = *f.Category
	}
	return fmt.Sprintf("%s|%s..%s|client=%s|cat=%s", report, from, to, client, category)
}
