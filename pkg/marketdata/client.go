package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata/provider"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata/writer"
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  provider.ProviderType `validate:"required,oneof=polygon binance"`
	WriterType    WriterType            `validate:"required,oneof=duckdb"`
	DataPath      string                `validate:"required"`
	PolygonApiKey string                `validate:"required_if=ProviderType polygon"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker    string    `validate:"required"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtfield=StartDate"`
	Timespan  Timespan  `validate:"required,oneof=1d 1w"`
}

// Client downloads bars from a provider into parquet files.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	var apiConfig any = config.PolygonApiKey

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", config.ProviderType, err)
	}

	return NewClientWithProvider(config, marketProvider, onProgress), nil
}

// NewClientWithProvider skips provider construction; config is not validated.
func NewClientWithProvider(config ClientConfig, p provider.Provider, onProgress provider.OnDownloadProgress) *Client {
	return &Client{
		provider:   p,
		config:     config,
		validate:   validator.New(),
		onProgress: onProgress,
	}
}

// Download stores the requested bars and returns the parquet path.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", fmt.Errorf("invalid download parameters: %w", err)
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", fmt.Errorf("failed to setup writer: %w", err)
	}

	if !params.Timespan.Weekly() {
		c.provider.ConfigWriter(marketWriter)

		path, err := c.provider.Download(ctx, params.Ticker, params.StartDate, params.EndDate,
			params.Timespan.Multiplier(), params.Timespan.Timespan(), c.onProgress)
		if err != nil {
			return "", fmt.Errorf("download failed: %w", err)
		}

		return path, nil
	}

	daily, err := c.provider.FetchBars(ctx, params.Ticker, params.StartDate, params.EndDate,
		params.Timespan.Multiplier(), params.Timespan.Timespan())
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	path, err := provider.WriteBars(ctx, marketWriter, params.Ticker, ResampleWeekly(daily), c.onProgress)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	return path, nil
}

// OutputFileName is TICKER_START_END_TIMESPAN.parquet.
func OutputFileName(params DownloadParams) string {
	return fmt.Sprintf("%s_%s_%s_%s.parquet",
		params.Ticker,
		params.StartDate.Format("2006-01-02"),
		params.EndDate.Format("2006-01-02"),
		params.Timespan)
}

func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		if err := os.MkdirAll(c.config.DataPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data path %s: %w", c.config.DataPath, err)
		}

		return writer.NewDuckDBWriter(filepath.Join(c.config.DataPath, OutputFileName(params))), nil
	default:
		return nil, fmt.Errorf("unsupported writer type: %s", c.config.WriterType)
	}
}
