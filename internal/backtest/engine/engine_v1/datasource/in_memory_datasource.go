package datasource

import (
	"context"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// InMemoryDataSource serves series held in memory, keyed by symbol.
type InMemoryDataSource struct {
	series map[string][]types.MarketData
	mu     sync.RWMutex
}

func NewInMemoryDataSource(series map[string][]types.MarketData) *InMemoryDataSource {
	ds := &InMemoryDataSource{series: make(map[string][]types.MarketData, len(series))}

	for symbol, bars := range series {
		ds.Add(symbol, bars)
	}

	return ds
}

// Add replaces the series of symbol with a time-sorted copy of bars.
func (m *InMemoryDataSource) Add(symbol string, bars []types.MarketData) {
	sorted := make([]types.MarketData, len(bars))
	copy(sorted, bars)
	sortByTime(sorted)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.series[symbol] = sorted
}

// GetSeries implements DataSource.
func (m *InMemoryDataSource) GetSeries(ctx context.Context, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.MarketData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return filterRange(m.series[symbol], start, end), nil
}

func (m *InMemoryDataSource) Close() error {
	return nil
}
