package datasource

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// DataSource supplies historical bars to the backtest engine.
type DataSource interface {
	// GetSeries returns the bars of symbol in ascending time order. Unset
	// bounds are open; set bounds are inclusive. An unknown symbol yields an
	// empty slice, not an error.
	GetSeries(ctx context.Context, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.MarketData, error)
	// Close releases any resources held by the data source.
	Close() error
}
