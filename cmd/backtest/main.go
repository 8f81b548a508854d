package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/stock-sentinel/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/stock-sentinel/internal/macro"
	"github.com/rxtech-lab/stock-sentinel/internal/strategy"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata/provider"
	"github.com/rxtech-lab/stock-sentinel/pkg/utils"
	"github.com/urfave/cli/v3"
)

// schemaAction prints the JSON schema of the engine config, or of one of
// its nested sections.
func schemaAction(_ context.Context, cmd *cli.Command) error {
	var (
		schema string
		err    error
	)

	switch section := cmd.String("section"); section {
	case "engine":
		schema, err = engine.NewBacktestEngineV1().GetConfigSchema()
	case "strategy":
		schema, err = utils.GetSchemaFromConfig(strategy.Config{})
	case "macro":
		schema, err = utils.GetSchemaFromConfig(macro.Config{})
	default:
		return cli.Exit(fmt.Sprintf("unknown section %q", section), 1)
	}

	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "backtest",
		Usage:     "Walk-forward backtest of the trend strategy",
		ArgsUsage: "TICKER[,TICKER...] [DURATION]",
		Description: "DURATION is the trading window ending today, e.g. 2y, 1y6m or 100d. " +
			"Earlier history is loaded for the indicator warmup. " +
			"A bare number is a day count. Defaults to 1y.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "benchmarks",
				Aliases: []string{"b"},
				Usage:   "Comma separated benchmark symbols. Defaults to BENCHMARKS or QQQ",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log every step, including skipped trades",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Parquet file or glob to read bars from instead of a provider, e.g. `data/*.parquet`",
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider when --data is not set (%s, %s)", provider.ProviderPolygon, provider.ProviderBinance),
				Value:   string(provider.ProviderPolygon),
			},
			&cli.StringFlag{
				Name:  "timespan",
				Usage: fmt.Sprintf("Bar size fetched from the provider (%s, %s)", marketdata.TimespanOneWeek, marketdata.TimespanOneDay),
				Value: string(marketdata.TimespanOneWeek),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML engine config; run `backtest schema` for its fields",
			},
			&cli.FloatFlag{
				Name:  "capital",
				Usage: "Initial capital. Defaults to INITIAL_CAPITAL or 10000",
			},
			&cli.FloatFlag{
				Name:  "slippage",
				Usage: "Slippage as a fraction of price",
				Value: -1,
			},
			&cli.BoolFlag{
				Name:  "no-ai",
				Usage: "Do not consult the advisor even when OPENROUTER_API_KEY is set",
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Folder for report.yaml and the trades and equity parquet files",
			},
			&cli.BoolFlag{
				Name:  "notify",
				Usage: "Send the report to Discord, or to the log when no webhook is configured",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write run metrics in Prometheus text format to this path",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file instead of .env",
			},
		},
		Action: backtestAction,
		Commands: []*cli.Command{
			{
				Name:  "schema",
				Usage: "Print the JSON schema of the engine config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "section",
						Usage: "engine, strategy or macro",
						Value: "engine",
					},
				},
				Action: schemaAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
