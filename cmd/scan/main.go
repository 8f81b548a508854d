package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rxtech-lab/stock-sentinel/internal/advisor"
	"github.com/rxtech-lab/stock-sentinel/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/stock-sentinel/internal/config"
	"github.com/rxtech-lab/stock-sentinel/internal/logger"
	"github.com/rxtech-lab/stock-sentinel/internal/macro"
	"github.com/rxtech-lab/stock-sentinel/internal/metrics"
	"github.com/rxtech-lab/stock-sentinel/internal/notifier"
	"github.com/rxtech-lab/stock-sentinel/internal/strategy"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func scanAction(ctx context.Context, cmd *cli.Command) error {
	level := zapcore.InfoLevel
	if cmd.Bool("verbose") {
		level = zapcore.DebugLevel
	}

	logr, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logr.Sync()

	env := config.LoadEnv()

	watchlist := env.Watchlist
	if w := cmd.String("watchlist"); w != "" {
		watchlist = config.SplitAndTrim(w)
	}

	providerType := provider.ProviderType(cmd.String("provider"))

	p, err := provider.NewMarketDataProvider(providerType, env.PolygonAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create %s provider: %w", providerType, err)
	}

	signals, err := strategy.NewTrendStrategy(strategy.DefaultConfig())
	if err != nil {
		return err
	}

	watchdog, err := strategy.NewWatchdog(strategy.DefaultWatchdogConfig())
	if err != nil {
		return err
	}

	scanner := &Scanner{
		log:      logr,
		signals:  signals,
		watchdog: watchdog,
		sentinel: macro.NewSentinel(macro.DefaultConfig(), logr.Named("macro")),
		weekly:   datasource.NewProviderDataSource(p, true, logr),
		daily:    datasource.NewCachedDataSource(datasource.NewProviderDataSource(p, false, logr)),
		notifier: notifier.NewLogNotifier(logr),
		metrics:  metrics.New(),
		capital:  env.InitialCapital,
		lookback: cmd.String("lookback"),
		now:      func() time.Time { return time.Now().UTC() },
	}

	if news, ok := p.(provider.NewsProvider); ok {
		scanner.news = news
	}

	if advisorConfig, ok := env.AdvisorConfig(); ok && !cmd.Bool("no-ai") {
		scanner.advisor, err = advisor.NewOpenRouterAdvisor(advisorConfig, logr)
		if err != nil {
			return fmt.Errorf("failed to create advisor: %w", err)
		}
	}

	if discordConfig, ok := env.DiscordConfig(); ok && !cmd.Bool("dry-run") {
		scanner.notifier, err = notifier.NewDiscordNotifier(discordConfig, logr)
		if err != nil {
			return fmt.Errorf("failed to create discord notifier: %w", err)
		}
	}

	logr.Info("Scanning watchlist",
		zap.Strings("symbols", watchlist),
		zap.String("provider", string(providerType)),
		zap.Bool("advisor", scanner.advisor != nil),
	)

	results := scanner.Scan(ctx, watchlist)

	logr.Info("Scan finished", zap.Int("scanned", len(results)), zap.Int("watchlist", len(watchlist)))

	if path := cmd.String("metrics-file"); path != "" {
		if err := scanner.metrics.WriteToTextfile(path); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "scan",
		Usage: "Classify the latest bar of every watchlist ticker and send alerts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "watchlist",
				Aliases: []string{"w"},
				Usage:   "Comma separated tickers. Defaults to WATCHLIST",
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider to use (e.g., %s, %s)", provider.ProviderPolygon, provider.ProviderBinance),
				Value:   string(provider.ProviderPolygon),
			},
			&cli.StringFlag{
				Name:    "lookback",
				Aliases: []string{"l"},
				Usage:   "Weekly history fed to the signal generator, e.g. 2y",
				Value:   "2y",
			},
			&cli.BoolFlag{
				Name:  "no-ai",
				Usage: "Do not consult the advisor",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Log notifications instead of sending them to Discord",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Debug logging",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write scan metrics in Prometheus text format to this path",
			},
		},
		Action: scanAction,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
