package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata/writer"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// DefaultRequestInterval spaces out consecutive provider requests.
const DefaultRequestInterval = 300 * time.Millisecond

type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// ConfigWriter configures the writer used by Download.
	ConfigWriter(writer writer.MarketDataWriter)
	// FetchBars returns the bars of ticker between startDate and endDate,
	// ascending by time.
	// example:
	// FetchBars(ctx, "AAPL", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC), 1, models.Day)
	FetchBars(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan) ([]types.MarketData, error)
	// Download fetches the bars and persists them through the configured writer.
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error)
}

// NewsProvider returns headlines about a ticker published in a date range.
type NewsProvider interface {
	GetNews(ctx context.Context, ticker string, start time.Time, end time.Time) ([]string, error)
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
// Polygon requires the API key as config.
func NewMarketDataProvider(providerType ProviderType, config any) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		apiKey, ok := config.(string)
		if !ok {
			return nil, fmt.Errorf("polygon provider requires API key string config")
		}

		return NewPolygonClient(apiKey)
	default:
		return nil, fmt.Errorf("unsupported market data provider: %s", providerType)
	}
}

func newRequestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(DefaultRequestInterval), 1)
}

// WriteBars pushes bars through w and returns the finalized output path.
// The writer is always closed.
func WriteBars(ctx context.Context, w writer.MarketDataWriter, ticker string, bars []types.MarketData, onProgress OnDownloadProgress) (path string, err error) {
	if w == nil {
		return "", fmt.Errorf("no writer configured. Call ConfigWriter first")
	}

	if err = w.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing writer: %w", cerr)
		}
	}()

	bar := progressbar.NewOptions(len(bars),
		progressbar.OptionSetDescription(fmt.Sprintf("Writing %s", ticker)),
		progressbar.OptionShowCount(),
	)

	for i, data := range bars {
		if err = ctx.Err(); err != nil {
			return "", err
		}

		if err = w.Write(data); err != nil {
			return "", fmt.Errorf("failed to write data: %w", err)
		}

		_ = bar.Add(1)

		if onProgress != nil {
			onProgress(float64(i+1), float64(len(bars)), fmt.Sprintf("Writing %s", ticker))
		}
	}

	_ = bar.Finish()

	outputPath, err := w.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return outputPath, nil
}
