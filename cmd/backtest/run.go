package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stock-sentinel/internal/advisor"
	engine_types "github.com/rxtech-lab/stock-sentinel/internal/backtest/engine"
	"github.com/rxtech-lab/stock-sentinel/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/stock-sentinel/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/stock-sentinel/internal/config"
	"github.com/rxtech-lab/stock-sentinel/internal/logger"
	"github.com/rxtech-lab/stock-sentinel/internal/metrics"
	"github.com/rxtech-lab/stock-sentinel/internal/notifier"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata/provider"
	"github.com/rxtech-lab/stock-sentinel/pkg/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const defaultDuration = "1y"

// services are shared by every ticker of one invocation.
type services struct {
	log        *logger.Logger
	env        config.Env
	datasource datasource.DataSource
	advisor    advisor.Advisor
	news       provider.NewsProvider
	notifier   notifier.Notifier
	metrics    *metrics.Metrics
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return cli.Exit("TICKER is required", 1)
	}

	tickers := config.SplitAndTrim(cmd.Args().Get(0))
	if len(tickers) == 0 {
		return cli.Exit("TICKER is required", 1)
	}

	duration := defaultDuration
	if cmd.Args().Len() > 1 {
		duration = cmd.Args().Get(1)
	}

	svc, err := newServices(cmd)
	if err != nil {
		return err
	}

	defer func() {
		_ = svc.datasource.Close()
		_ = svc.log.Sync()
	}()

	base, err := baseConfig(cmd, svc.env)
	if err != nil {
		return err
	}

	base = withDuration(base, duration, time.Now().UTC())
	opts := runOptions{verbose: cmd.Bool("verbose"), results: cmd.String("results")}

	for _, ticker := range tickers {
		cfg := base
		cfg.Symbol = ticker

		report, trades, err := runTicker(ctx, svc, cfg, opts)
		if err != nil {
			return fmt.Errorf("backtest %s failed: %w", ticker, err)
		}

		fmt.Println(RenderReport(report))

		if cmd.Bool("verbose") {
			fmt.Println(RenderTrades(trades))
		}

		if cmd.Bool("notify") {
			if err := svc.notifier.NotifyReport(ctx, report); err != nil {
				svc.log.Warn("Failed to send report", zap.String("symbol", ticker), zap.Error(err))
			}
		}
	}

	if path := cmd.String("metrics-file"); path != "" {
		if err := svc.metrics.WriteToTextfile(path); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	return nil
}

func newServices(cmd *cli.Command) (*services, error) {
	level := zapcore.InfoLevel
	if cmd.Bool("verbose") {
		level = zapcore.DebugLevel
	}

	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var env config.Env
	if f := cmd.String("env-file"); f != "" {
		env = config.LoadEnv(f)
	} else {
		env = config.LoadEnv()
	}

	svc := &services{
		log:     log,
		env:     env,
		metrics: metrics.New(),
	}

	if env.PolygonAPIKey != "" {
		if p, err := provider.NewPolygonClient(env.PolygonAPIKey); err == nil {
			if news, ok := p.(provider.NewsProvider); ok {
				svc.news = news
			}
		}
	}

	svc.datasource, err = newDataSource(cmd, env, log)
	if err != nil {
		return nil, err
	}

	if advisorConfig, ok := env.AdvisorConfig(); ok && !cmd.Bool("no-ai") {
		svc.advisor, err = advisor.NewOpenRouterAdvisor(advisorConfig, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create advisor: %w", err)
		}

		log.Info("Advisor enabled", zap.String("model", advisorConfig.Model))
	}

	svc.notifier = notifier.NewLogNotifier(log)

	if discordConfig, ok := env.DiscordConfig(); ok {
		discord, err := notifier.NewDiscordNotifier(discordConfig, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create discord notifier: %w", err)
		}

		svc.notifier = discord
	}

	return svc, nil
}

// newDataSource reads parquet files when --data is set and a live provider
// otherwise. Either way series are cached, since benchmarks and macro
// series repeat across tickers.
func newDataSource(cmd *cli.Command, env config.Env, log *logger.Logger) (datasource.DataSource, error) {
	if path := cmd.String("data"); path != "" {
		duck, err := datasource.NewDataSource(":memory:", log)
		if err != nil {
			return nil, err
		}

		if err := duck.Initialize(path); err != nil {
			_ = duck.Close()

			return nil, err
		}

		return datasource.NewCachedDataSource(duck), nil
	}

	timespan := marketdata.Timespan(cmd.String("timespan"))
	if !timespan.Valid() {
		return nil, cli.Exit(fmt.Sprintf("unsupported timespan %q", timespan), 1)
	}

	providerType := provider.ProviderType(cmd.String("provider"))

	p, err := provider.NewMarketDataProvider(providerType, env.PolygonAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", providerType, err)
	}

	return datasource.NewCachedDataSource(datasource.NewProviderDataSource(p, timespan.Weekly(), log)), nil
}

// baseConfig layers flags over the config file, or the environment when no
// file is given, over the engine defaults.
func baseConfig(cmd *cli.Command, env config.Env) (engine.BacktestEngineV1Config, error) {
	cfg := engine.EmptyConfig()

	if path := cmd.String("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else {
		cfg.Benchmarks = env.Benchmarks
		cfg.InitialCapital = env.InitialCapital
	}

	if b := cmd.String("benchmarks"); b != "" {
		cfg.Benchmarks = config.SplitAndTrim(b)
	}

	if capital := cmd.Float("capital"); capital > 0 {
		cfg.InitialCapital = capital
	}

	if slippage := cmd.Float("slippage"); slippage >= 0 {
		cfg.Slippage = slippage
	}

	return cfg, nil
}

// runOptions are the per-invocation flags runTicker needs.
type runOptions struct {
	verbose bool
	results string
}

// withDuration makes DURATION the trading window ending at now. History
// before it is still loaded for the warmup. A start_time from the config
// file wins.
func withDuration(cfg engine.BacktestEngineV1Config, duration string, now time.Time) engine.BacktestEngineV1Config {
	if cfg.StartTime.IsNone() {
		cfg.StartTime = optional.Some(utils.LookbackStart(now, duration))
	}

	return cfg
}

func runTicker(ctx context.Context, svc *services, cfg engine.BacktestEngineV1Config, opts runOptions) (types.BacktestReport, []types.Trade, error) {
	b := engine.NewBacktestEngineV1()
	b.SetLogger(svc.log.Named(cfg.Symbol))

	if err := b.InitializeWithConfig(cfg); err != nil {
		return types.BacktestReport{}, nil, err
	}
	defer b.Close()

	_ = b.SetDataSource(svc.datasource)
	b.SetMetrics(svc.metrics)
	b.SetNewsProvider(svc.news)

	if svc.advisor != nil {
		_ = b.SetAdvisor(svc.advisor)
	}

	if opts.results != "" {
		_ = b.SetResultsFolder(opts.results)
	}

	if err := b.Load(ctx); err != nil {
		return types.BacktestReport{}, nil, err
	}

	if err := b.Run(ctx, progressCallbacks(opts.verbose)); err != nil {
		return types.BacktestReport{}, nil, err
	}

	report, err := b.Report()
	if err != nil {
		return types.BacktestReport{}, nil, err
	}

	trades, err := b.Trades()
	if err != nil {
		return types.BacktestReport{}, nil, err
	}

	return report, trades, nil
}

// progressCallbacks draws a progress bar per ticker. Verbose runs log
// every step instead.
func progressCallbacks(verbose bool) engine_types.LifecycleCallbacks {
	if verbose {
		return engine_types.LifecycleCallbacks{}
	}

	var bar *progressbar.ProgressBar

	onStart := engine_types.OnBacktestStartCallback(func(symbol string, totalSteps int) error {
		bar = progressbar.NewOptions(totalSteps,
			progressbar.OptionSetDescription(fmt.Sprintf("Backtesting %s", symbol)),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		return nil
	})

	onProcess := engine_types.OnProcessDataCallback(func(current int, _ int) error {
		return bar.Set(current)
	})

	onEnd := engine_types.OnBacktestEndCallback(func(_ error) {
		if bar != nil {
			_ = bar.Finish()
		}
	})

	return engine_types.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnProcessData:   &onProcess,
		OnBacktestEnd:   &onEnd,
	}
}
