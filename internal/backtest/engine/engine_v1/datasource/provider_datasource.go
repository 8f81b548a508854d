package datasource

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/stock-sentinel/internal/logger"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/pkg/errors"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// DefaultProviderLookback bounds requests that leave start unset.
const DefaultProviderLookback = 5 * 365 * 24 * time.Hour

// ProviderDataSource fetches daily bars from a market data provider on
// demand and optionally resamples them to weeks ending Friday.
type ProviderDataSource struct {
	provider provider.Provider
	weekly   bool
	logger   *logger.Logger
	now      func() time.Time
}

func NewProviderDataSource(p provider.Provider, weekly bool, logger *logger.Logger) *ProviderDataSource {
	return &ProviderDataSource{
		provider: p,
		weekly:   weekly,
		logger:   logger,
		now:      time.Now,
	}
}

// GetSeries implements DataSource.
func (p *ProviderDataSource) GetSeries(ctx context.Context, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.MarketData, error) {
	endTime := end.UnwrapOr(p.now())
	startTime := start.UnwrapOr(endTime.Add(-DefaultProviderLookback))

	bars, err := p.provider.FetchBars(ctx, symbol, startTime, endTime, 1, models.Day)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to fetch %s", symbol)
	}

	sortByTime(bars)

	if p.weekly {
		bars = marketdata.ResampleWeekly(bars)
	}

	p.logger.Debug("Fetched series from provider",
		zap.String("symbol", symbol),
		zap.Bool("weekly", p.weekly),
		zap.Int("bars", len(bars)),
	)

	// The last weekly label can fall after endTime; the engine truncates.
	return bars, nil
}

func (p *ProviderDataSource) Close() error {
	return nil
}
