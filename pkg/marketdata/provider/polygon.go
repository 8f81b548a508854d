package provider

import (
	"context"
	"fmt"
	"sort"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata/writer"
	"golang.org/x/time/rate"
)

// PolygonAggsIterator is the subset of the polygon aggregates iterator we use.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonNewsIterator is the subset of the polygon news iterator we use.
type PolygonNewsIterator interface {
	Next() bool
	Item() models.TickerNews
	Err() error
}

// PolygonAPIClient abstracts the polygon REST client for testing.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
	ListTickerNews(ctx context.Context, params *models.ListTickerNewsParams, options ...models.RequestOption) PolygonNewsIterator
}

type polygonAPIAdapter struct {
	client *polygon.Client
}

func (a *polygonAPIAdapter) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return a.client.ListAggs(ctx, params, options...)
}

func (a *polygonAPIAdapter) ListTickerNews(ctx context.Context, params *models.ListTickerNewsParams, options ...models.RequestOption) PolygonNewsIterator {
	return a.client.ListTickerNews(ctx, params, options...)
}

// maxHeadlines bounds the news handed to the advisor per request.
const maxHeadlines = 5

type PolygonClient struct {
	apiClient PolygonAPIClient
	writer    writer.MarketDataWriter
	limiter   *rate.Limiter
}

func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}

	return NewPolygonClientWithAPI(&polygonAPIAdapter{client: polygon.New(apiKey)}), nil
}

// NewPolygonClientWithAPI wires a custom API client, typically a test double.
func NewPolygonClientWithAPI(api PolygonAPIClient) *PolygonClient {
	return &PolygonClient{
		apiClient: api,
		limiter:   newRequestLimiter(),
	}
}

// SetRateLimit replaces the request pacing, e.g. rate.Inf in tests.
func (c *PolygonClient) SetRateLimit(limit rate.Limit, burst int) {
	c.limiter = rate.NewLimiter(limit, burst)
}

func (c *PolygonClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

func (c *PolygonClient) FetchBars(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan) ([]types.MarketData, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)

	var bars []types.MarketData

	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, types.MarketData{
			Symbol: ticker,
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if iter.Err() != nil {
		return nil, fmt.Errorf("error iterating polygon aggregates: %w", iter.Err())
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	return bars, nil
}

func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (string, error) {
	if c.writer == nil {
		return "", fmt.Errorf("no writer configured for PolygonClient. Call ConfigWriter first")
	}

	bars, err := c.FetchBars(ctx, ticker, startDate, endDate, multiplier, timespan)
	if err != nil {
		return "", err
	}

	return WriteBars(ctx, c.writer, ticker, bars, onProgress)
}

// GetNews returns up to maxHeadlines "title - description" lines published
// between start and end, newest first.
func (c *PolygonClient) GetNews(ctx context.Context, ticker string, start time.Time, end time.Time) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := models.ListTickerNewsParams{}.
		WithTicker(models.EQ, ticker).
		WithSort(models.PublishedUTC).
		WithOrder(models.Desc).
		WithLimit(50)

	iter := c.apiClient.ListTickerNews(ctx, params)

	var headlines []string

	for iter.Next() && len(headlines) < maxHeadlines {
		item := iter.Item()
		published := time.Time(item.PublishedUTC)

		if published.After(end) {
			continue
		}

		if published.Before(start) {
			break
		}

		line := item.Title
		if item.Description != "" {
			line = fmt.Sprintf("%s - %s", item.Title, item.Description)
		}

		headlines = append(headlines, line)
	}

	if iter.Err() != nil {
		return nil, fmt.Errorf("error iterating polygon news: %w", iter.Err())
	}

	return headlines, nil
}
