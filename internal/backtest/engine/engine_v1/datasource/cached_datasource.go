package datasource

import (
	"context"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// CachedDataSource wraps a DataSource and memoizes GetSeries by symbol and
// range. The scan command asks for the same benchmark and macro series once
// per ticker; only the first request reaches the provider.
type CachedDataSource struct {
	underlying  DataSource
	seriesCache map[string][]types.MarketData
	errCache    map[string]error
	mu          sync.RWMutex
}

func NewCachedDataSource(underlying DataSource) *CachedDataSource {
	return &CachedDataSource{
		underlying:  underlying,
		seriesCache: make(map[string][]types.MarketData),
		errCache:    make(map[string]error),
	}
}

// ClearCache drops every cached series.
func (c *CachedDataSource) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seriesCache = make(map[string][]types.MarketData)
	c.errCache = make(map[string]error)
}

// GetSeries implements DataSource with caching. Cancelled requests are not
// cached.
func (c *CachedDataSource) GetSeries(ctx context.Context, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.MarketData, error) {
	key := seriesKey(symbol, start, end)

	c.mu.RLock()
	if data, ok := c.seriesCache[key]; ok {
		err := c.errCache[key]
		c.mu.RUnlock()

		return data, err
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if data, ok := c.seriesCache[key]; ok {
		return data, c.errCache[key]
	}

	data, err := c.underlying.GetSeries(ctx, symbol, start, end)
	if ctx.Err() != nil {
		return data, err
	}

	c.seriesCache[key] = data
	c.errCache[key] = err

	return data, err
}

func (c *CachedDataSource) Close() error {
	return c.underlying.Close()
}
