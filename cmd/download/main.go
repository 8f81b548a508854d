package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rxtech-lab/stock-sentinel/internal/config"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata/provider"
	"github.com/rxtech-lab/stock-sentinel/pkg/utils"
	"github.com/urfave/cli/v3"
)

// downloadAction stores one parquet file per ticker.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	env := config.LoadEnv()

	tickers := config.SplitAndTrim(cmd.String("ticker"))
	if len(tickers) == 0 {
		return cli.Exit("at least one ticker is required", 1)
	}

	endDate := cmd.Timestamp("end")

	startDate := cmd.Timestamp("start")
	if startDate.IsZero() {
		startDate = utils.LookbackStart(endDate, cmd.String("lookback"))
	}

	providerFlag := cmd.String("provider")

	dataPath := cmd.String("data")
	if dataPath == "" {
		dataPath = env.DataPath
	}

	clientConfig := marketdata.ClientConfig{
		ProviderType:  provider.ProviderType(providerFlag),
		WriterType:    marketdata.WriterType(cmd.String("writer")),
		DataPath:      dataPath,
		PolygonApiKey: env.PolygonAPIKey,
	}

	client, err := marketdata.NewClient(clientConfig, nil)
	if err != nil {
		return fmt.Errorf("failed to create market data client: %w", err)
	}

	for _, ticker := range tickers {
		params := marketdata.DownloadParams{
			Ticker:    ticker,
			StartDate: startDate,
			EndDate:   endDate,
			Timespan:  marketdata.Timespan(cmd.String("timespan")),
		}

		log.Printf("Starting download for %s from %s to %s using %s provider...",
			ticker, startDate.Format(time.DateOnly), endDate.Format(time.DateOnly), providerFlag)

		path, err := client.Download(ctx, params)
		if err != nil {
			return fmt.Errorf("download of %s failed: %w", ticker, err)
		}

		log.Printf("Saved %s to %s", ticker, path)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download historical bars into parquet files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Comma separated ticker symbols, e.g. ALAB,QQQ,^TNX",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format. Overrides --lookback",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:    "lookback",
				Aliases: []string{"l"},
				Usage:   "Window ending at --end when --start is not set, e.g. 2y or 1y6m",
				Value:   "2y",
			},
			&cli.StringFlag{
				Name:  "timespan",
				Usage: fmt.Sprintf("Bar size (%s, %s)", marketdata.TimespanOneDay, marketdata.TimespanOneWeek),
				Value: string(marketdata.TimespanOneWeek),
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider to use (e.g., %s, %s)", provider.ProviderPolygon, provider.ProviderBinance),
				Value:   string(provider.ProviderPolygon),
			},
			&cli.StringFlag{
				Name:    "writer",
				Aliases: []string{"w"},
				Usage:   fmt.Sprintf("Data writer format (e.g., %s)", marketdata.WriterDuckDB),
				Value:   string(marketdata.WriterDuckDB),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data output directory. Defaults to DATA_PATH or ./data",
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
