package engine

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stock-sentinel/internal/advisor"
	"github.com/rxtech-lab/stock-sentinel/internal/backtest/engine"
	"github.com/rxtech-lab/stock-sentinel/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/stock-sentinel/internal/logger"
	"github.com/rxtech-lab/stock-sentinel/internal/macro"
	"github.com/rxtech-lab/stock-sentinel/internal/metrics"
	"github.com/rxtech-lab/stock-sentinel/internal/sizing"
	"github.com/rxtech-lab/stock-sentinel/internal/strategy"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/internal/utils"
	"github.com/rxtech-lab/stock-sentinel/pkg/errors"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata/provider"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Advisory verdicts scale the cash committed by a BUY.
const (
	agreeMultiplier     = 1.5
	cautionMultiplier   = 0.5
	noAdvisorMultiplier = 1.0
)

const reportFileName = "report.yaml"

// Skip reasons reported to metrics.
const (
	skipInsufficientFunds = "insufficient_funds"
	skipNoHoldings        = "no_holdings"
	skipOrderTooSmall     = "order_too_small"
	skipAdvisorVeto       = "advisor_veto"
)

// BacktestEngineV1 replays one symbol bar by bar. Each instance owns its
// cash and position; run several tickers with several instances.
type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	log           *logger.Logger
	signals       strategy.SignalGenerator
	sentinel      *macro.Sentinel
	state         *BacktestState
	datasource    datasource.DataSource
	advisor       advisor.Advisor
	news          provider.NewsProvider
	metrics       *metrics.Metrics
	resultsFolder string

	series         []types.MarketData
	benchmarkNames []string
	benchmarks     map[string][]types.MarketData
	yields         []types.MarketData
	dollar         []types.MarketData
	ran            bool
}

var _ engine.Engine = (*BacktestEngineV1)(nil)

func NewBacktestEngineV1() *BacktestEngineV1 {
	return &BacktestEngineV1{
		config:     EmptyConfig(),
		benchmarks: map[string][]types.MarketData{},
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	cfg := EmptyConfig()
	if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse backtest config", err)
	}

	return b.InitializeWithConfig(cfg)
}

// InitializeWithConfig validates config and prepares the state and the
// signal generator.
func (b *BacktestEngineV1) InitializeWithConfig(config BacktestEngineV1Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	if b.log == nil {
		var err error

		b.log, err = logger.NewLogger()
		if err != nil {
			return err
		}
	}

	signals, err := strategy.NewTrendStrategy(config.Strategy)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to create strategy", err)
	}

	if b.state != nil {
		_ = b.state.Close()
	}

	state, err := NewBacktestState(config.InitialCapital, config.Slippage, b.log)
	if err != nil {
		return err
	}

	if err := state.Initialize(); err != nil {
		return err
	}

	b.config = config
	b.signals = signals
	b.sentinel = macro.NewSentinel(config.Macro, b.log)
	b.state = state
	b.ran = false

	b.log.Debug("Backtest engine initialized",
		zap.String("symbol", config.Symbol),
		zap.Strings("benchmarks", config.Benchmarks),
		zap.Float64("initial_capital", config.InitialCapital),
		zap.String("sizing_mode", string(config.SizingMode)),
	)

	return nil
}

// SetLogger replaces the logger. Call before Initialize to affect the state.
func (b *BacktestEngineV1) SetLogger(log *logger.Logger) {
	b.log = log
}

func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

func (b *BacktestEngineV1) SetAdvisor(advisor advisor.Advisor) error {
	b.advisor = advisor

	return nil
}

// SetNewsProvider sets where headlines for the advisor come from.
func (b *BacktestEngineV1) SetNewsProvider(news provider.NewsProvider) {
	b.news = news
}

func (b *BacktestEngineV1) SetMetrics(m *metrics.Metrics) {
	b.metrics = m
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder

	return nil
}

func (b *BacktestEngineV1) Config() BacktestEngineV1Config {
	return b.config
}

// Load implements engine.Engine. The primary series is loaded from the
// beginning so the warmup has history before start_time. A benchmark or
// macro series that fails to load is logged and left out.
func (b *BacktestEngineV1) Load(ctx context.Context) error {
	if b.datasource == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	if b.state == nil {
		return errors.New(errors.ErrCodeBacktestNotLoaded, "engine is not initialized")
	}

	none := optional.None[time.Time]()

	primary, err := b.datasource.GetSeries(ctx, b.config.Symbol, none, b.config.EndTime)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataUnavailable, err, "failed to load %s", b.config.Symbol)
	}

	benchmarks := make(map[string][]types.MarketData, len(b.config.Benchmarks))

	for _, symbol := range b.config.Benchmarks {
		bars, err := b.datasource.GetSeries(ctx, symbol, none, b.config.EndTime)
		if err != nil {
			b.log.Warn("Benchmark unavailable, omitting it from the report",
				zap.String("benchmark", symbol),
				zap.Error(errors.Wrap(errors.ErrCodeBenchmarkUnavailable, "failed to load benchmark", err)),
			)

			continue
		}

		benchmarks[symbol] = bars
	}

	if b.config.SizingMode == SizingModeRisk {
		b.yields = b.loadMacroSeries(ctx, b.config.Macro.YieldSymbol)
		b.dollar = b.loadMacroSeries(ctx, b.config.Macro.DollarSymbol)
	}

	return b.LoadSeries(primary, benchmarks, b.config.EndTime)
}

func (b *BacktestEngineV1) loadMacroSeries(ctx context.Context, symbol string) []types.MarketData {
	bars, err := b.datasource.GetSeries(ctx, symbol, optional.None[time.Time](), b.config.EndTime)
	if err != nil {
		b.log.Warn("Macro series unavailable, regime falls back to NEUTRAL",
			zap.String("symbol", symbol),
			zap.Error(err),
		)

		return nil
	}

	return bars
}

// SetMacroSeries sets the yield and dollar series used in risk sizing mode.
func (b *BacktestEngineV1) SetMacroSeries(yields []types.MarketData, dollar []types.MarketData) {
	b.yields = yields
	b.dollar = dollar
}

// LoadSeries caches the primary and benchmark series, truncated to end.
// Benchmarks keep the order of the configured benchmark list.
func (b *BacktestEngineV1) LoadSeries(primary []types.MarketData, benchmarks map[string][]types.MarketData, end optional.Option[time.Time]) error {
	if b.state == nil {
		return errors.New(errors.ErrCodeBacktestNotLoaded, "engine is not initialized")
	}

	if end.IsSome() {
		primary = types.TruncateAfter(primary, end.Unwrap())
	}

	if len(primary) == 0 {
		return errors.Newf(errors.ErrCodeDataUnavailable, "no data found for %s", b.config.Symbol)
	}

	b.series = primary
	b.benchmarks = make(map[string][]types.MarketData, len(benchmarks))
	b.benchmarkNames = b.benchmarkNames[:0]

	for _, symbol := range b.config.Benchmarks {
		bars, ok := benchmarks[symbol]
		if !ok {
			continue
		}

		if end.IsSome() {
			bars = types.TruncateAfter(bars, end.Unwrap())
		}

		if len(bars) == 0 {
			b.log.Warn("Benchmark has no data in range, omitting it from the report",
				zap.String("benchmark", symbol),
			)

			continue
		}

		b.benchmarks[symbol] = bars
		b.benchmarkNames = append(b.benchmarkNames, symbol)
	}

	b.ran = false

	b.log.Info("Data loaded",
		zap.String("symbol", b.config.Symbol),
		zap.Int("bars", len(primary)),
		zap.Strings("benchmarks", b.benchmarkNames),
	)

	return nil
}

// Run implements engine.Engine.
//
// At step i only series[0..i] is visible: the signal is computed on that
// prefix, the equity point is recorded at the bar i close, and then the
// signal is acted on. Steps before start_time record equity but never trade.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (err error) {
	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(err)
		}()
	}

	if err := b.preRunCheck(); err != nil {
		return err
	}

	if err := b.state.Cleanup(); err != nil {
		return err
	}

	b.ran = false
	total := len(b.series) - b.config.Warmup

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(b.config.Symbol, total); err != nil {
			return err
		}
	}

	b.log.Info("Starting simulation",
		zap.String("symbol", b.config.Symbol),
		zap.Float64("initial_capital", b.config.InitialCapital),
		zap.Int("steps", total),
	)

	for i := b.config.Warmup; i < len(b.series); i++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeCancelled, "backtest cancelled", err)
		}

		if err := b.step(ctx, i, callbacks); err != nil {
			return err
		}

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(i-b.config.Warmup+1, total); err != nil {
				return err
			}
		}
	}

	b.ran = true

	last := b.series[len(b.series)-1]
	b.metrics.SetFinalEquity(b.config.Symbol, b.state.Equity(last.Close))

	if b.resultsFolder != "" {
		if _, err := b.WriteResults(); err != nil {
			return err
		}
	}

	return nil
}

func (b *BacktestEngineV1) step(ctx context.Context, i int, callbacks engine.LifecycleCallbacks) error {
	bar := b.series[i]

	signal, err := b.signals.Analyze(b.series[:i+1])
	if err != nil {
		return errors.Wrapf(errors.ErrCodeSignalFailed, err, "failed to analyze %s at %s", b.config.Symbol, bar.Time.Format(time.DateOnly))
	}

	b.metrics.ObserveSignal(b.config.Symbol, string(signal.Type))

	if callbacks.OnSignal != nil {
		if err := (*callbacks.OnSignal)(signal); err != nil {
			return err
		}
	}

	b.log.Debug("Step",
		zap.String("date", bar.Time.Format(time.DateOnly)),
		zap.Float64("price", signal.Price),
		zap.String("signal", string(signal.Type)),
		zap.Float64("rsi", signal.RSI),
	)

	if _, err := b.state.RecordEquity(bar.Time, bar.Close); err != nil {
		return err
	}

	if start := b.config.StartTime; start.IsSome() && bar.Time.Before(start.Unwrap()) {
		return nil
	}

	var trade optional.Option[types.Trade]

	switch {
	case signal.Type == types.SignalTypeBuy:
		trade, err = b.handleBuy(ctx, bar, signal)
	case signal.Type.IsExit():
		trade, err = b.handleExit(ctx, bar, signal)
	}

	if err != nil {
		return err
	}

	if trade.IsSome() && callbacks.OnTrade != nil {
		(*callbacks.OnTrade)(trade.Unwrap())
	}

	return nil
}

func (b *BacktestEngineV1) handleBuy(ctx context.Context, bar types.MarketData, signal types.Signal) (optional.Option[types.Trade], error) {
	none := optional.None[types.Trade]()
	price := bar.Close
	cash := b.state.Cash()

	if !(cash > price) {
		b.skip(skipInsufficientFunds, bar, "Skipped BUY: insufficient funds", zap.Float64("cash", cash))

		return none, nil
	}

	verdict, consulted := b.consult(ctx, bar, signal)
	if verdict == types.VerdictDisagree {
		b.skip(skipAdvisorVeto, bar, "Advisor vetoed BUY")

		return none, nil
	}

	multiplier := noAdvisorMultiplier

	if consulted {
		switch verdict {
		case types.VerdictCaution:
			multiplier = cautionMultiplier
		default:
			multiplier = agreeMultiplier
		}
	}

	quantity, sizeNote := b.buyQuantity(bar, signal, cash, multiplier)

	// slippage must not overdraw the account
	if affordable := utils.WholeShares(cash, utils.BuyExecutionPrice(price, b.config.Slippage)); quantity > affordable {
		quantity = affordable
	}

	if quantity < 1 {
		b.skip(skipOrderTooSmall, bar, "Skipped BUY: size too small for one share", zap.Float64("cash", cash))

		return none, nil
	}

	reason := fmt.Sprintf("Tech: %s", signal.Reason)
	if consulted {
		reason = fmt.Sprintf("%s | AI: %s", reason, verdict)
	}

	reason = fmt.Sprintf("%s (%s)", reason, sizeNote)

	trade, err := b.state.Buy(b.config.Symbol, bar.Time, price, quantity, reason)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeInsufficientFunds) {
			b.skip(skipInsufficientFunds, bar, "Skipped BUY", zap.Error(err))

			return none, nil
		}

		return none, err
	}

	b.metrics.ObserveTrade(b.config.Symbol, string(types.TradeTypeBuy))
	b.log.Info("BUY",
		zap.String("date", bar.Time.Format(time.DateOnly)),
		zap.Float64("executed_price", trade.ExecutedPrice),
		zap.Int64("quantity", trade.Quantity),
		zap.String("reason", trade.Reason),
	)

	return optional.Some(trade), nil
}

// buyQuantity sizes a BUY before the affordability cap.
func (b *BacktestEngineV1) buyQuantity(bar types.MarketData, signal types.Signal, cash float64, multiplier float64) (int64, string) {
	price := bar.Close

	if b.config.SizingMode == SizingModeRisk {
		regime := b.regimeAt(bar.Time)
		sizer := sizing.NewPositionSizer(b.state.Equity(price), b.config.BaseRiskPct)
		result := sizer.CalculateSize(price, signal.StopLoss, regime)

		// the risk budget already bounds the trade, so only caution shrinks it
		scale := math.Min(multiplier, 1)
		quantity := int64(math.Floor(float64(result.Shares) * scale))

		return quantity, result.Message
	}

	fraction := b.config.BuyFraction * multiplier
	target := cash * fraction

	if target > cash {
		target = cash
	}

	return utils.WholeShares(target, price), fmt.Sprintf("Size: %.0f%% of cash", fraction*100)
}

func (b *BacktestEngineV1) handleExit(ctx context.Context, bar types.MarketData, signal types.Signal) (optional.Option[types.Trade], error) {
	none := optional.None[types.Trade]()

	if b.state.Position().Shares <= 0 {
		b.skip(skipNoHoldings, bar, fmt.Sprintf("Skipped %s: no holdings", signal.Type))

		return none, nil
	}

	verdict, consulted := b.consult(ctx, bar, signal)
	if verdict == types.VerdictDisagree {
		b.skip(skipAdvisorVeto, bar, fmt.Sprintf("Advisor overrode %s, holding position", signal.Type))

		return none, nil
	}

	reason := fmt.Sprintf("Tech: %s", signal.Reason)
	if consulted {
		reason = fmt.Sprintf("%s | AI: %s", reason, verdict)
	}

	trade, err := b.state.Sell(b.config.Symbol, bar.Time, bar.Close, reason)
	if err != nil {
		return none, err
	}

	b.metrics.ObserveTrade(b.config.Symbol, string(types.TradeTypeSell))
	b.log.Info("SELL",
		zap.String("date", bar.Time.Format(time.DateOnly)),
		zap.Float64("executed_price", trade.ExecutedPrice),
		zap.Int64("quantity", trade.Quantity),
		zap.Float64("pnl", trade.PnL),
		zap.String("reason", trade.Reason),
	)

	return optional.Some(trade), nil
}

// consult asks the advisor about signal. The second result is false when no
// advisor is configured. An advisor failure counts as agreement.
func (b *BacktestEngineV1) consult(ctx context.Context, bar types.MarketData, signal types.Signal) (types.Verdict, bool) {
	if b.advisor == nil {
		return "", false
	}

	advisoryCtx := advisor.AdvisoryContext{
		Date: bar.Time,
		News: b.headlines(ctx, bar.Time),
	}

	advice, err := b.advisor.Evaluate(ctx, b.config.Symbol, signal, advisoryCtx)
	if err != nil {
		b.metrics.ObserveAdvisoryFailure()
		b.log.Warn("Advisor unavailable, defaulting to Agree",
			zap.String("date", bar.Time.Format(time.DateOnly)),
			zap.String("signal", string(signal.Type)),
			zap.Error(err),
		)

		return types.VerdictAgree, true
	}

	b.metrics.ObserveVerdict(string(advice.Verdict))
	b.log.Info("Advisor verdict",
		zap.String("date", bar.Time.Format(time.DateOnly)),
		zap.String("signal", string(signal.Type)),
		zap.String("verdict", string(advice.Verdict)),
	)

	return advice.Verdict, true
}

// headlines returns news published in the lookback window ending at date.
func (b *BacktestEngineV1) headlines(ctx context.Context, date time.Time) []string {
	if b.news == nil || b.config.NewsLookbackDays == 0 {
		return nil
	}

	news, err := b.news.GetNews(ctx, b.config.Symbol, date.AddDate(0, 0, -b.config.NewsLookbackDays), date)
	if err != nil {
		b.log.Debug("News unavailable", zap.Error(err))

		return nil
	}

	return news
}

// regimeAt classifies the macro series visible at date.
func (b *BacktestEngineV1) regimeAt(date time.Time) types.MarketRegime {
	yields := types.Closes(types.TruncateAfter(b.yields, date))
	dollar := types.Closes(types.TruncateAfter(b.dollar, date))

	return b.sentinel.Classify(yields, dollar).Regime
}

func (b *BacktestEngineV1) skip(reason string, bar types.MarketData, msg string, fields ...zap.Field) {
	b.metrics.ObserveSkippedTrade(b.config.Symbol, reason)
	b.log.Debug(msg, append([]zap.Field{zap.String("date", bar.Time.Format(time.DateOnly))}, fields...)...)
}

// Buy executes a BUY of quantity shares at price plus slippage.
func (b *BacktestEngineV1) Buy(date time.Time, price float64, quantity int64, reason string) (types.Trade, error) {
	if b.state == nil {
		return types.Trade{}, errors.New(errors.ErrCodeBacktestNotLoaded, "engine is not initialized")
	}

	return b.state.Buy(b.config.Symbol, date, price, quantity, reason)
}

// Sell liquidates the whole position at price minus slippage.
func (b *BacktestEngineV1) Sell(date time.Time, price float64, reason string) (types.Trade, error) {
	if b.state == nil {
		return types.Trade{}, errors.New(errors.ErrCodeBacktestNotLoaded, "engine is not initialized")
	}

	return b.state.Sell(b.config.Symbol, date, price, reason)
}

// Trades returns the ledger of the last run.
func (b *BacktestEngineV1) Trades() ([]types.Trade, error) {
	if b.state == nil {
		return nil, errors.New(errors.ErrCodeBacktestNotLoaded, "engine is not initialized")
	}

	return b.state.GetAllTrades()
}

// EquityCurve returns the equity points of the last run.
func (b *BacktestEngineV1) EquityCurve() ([]types.EquityPoint, error) {
	if b.state == nil {
		return nil, errors.New(errors.ErrCodeBacktestNotLoaded, "engine is not initialized")
	}

	return b.state.GetEquityCurve()
}

// Report implements engine.Engine. Benchmarks are measured over the same
// window as the strategy: from start_time, or the first simulated bar, to
// the last bar.
func (b *BacktestEngineV1) Report() (types.BacktestReport, error) {
	if !b.ran {
		return types.BacktestReport{}, errors.New(errors.ErrCodeBacktestNotLoaded, "backtest has not been run")
	}

	last := b.series[len(b.series)-1]
	finalEquity := b.state.Equity(last.Close)
	returnPct := (finalEquity - b.config.InitialCapital) / b.config.InitialCapital * 100

	start := b.series[b.config.Warmup].Time
	if b.config.StartTime.IsSome() {
		start = b.config.StartTime.Unwrap()
	}

	tradeResult, err := b.state.GetTradeResult()
	if err != nil {
		return types.BacktestReport{}, err
	}

	report := types.BacktestReport{
		ID:             uuid.New().String(),
		Timestamp:      time.Now().UTC(),
		Symbol:         b.config.Symbol,
		StartDate:      start,
		EndDate:        last.Time,
		InitialCapital: b.config.InitialCapital,
		FinalEquity:    finalEquity,
		ReturnPct:      returnPct,
		TradeResult:    tradeResult,
		FinalPosition:  b.state.Position(),
	}

	for _, symbol := range b.benchmarkNames {
		benchReturn, ok := windowReturn(b.benchmarks[symbol], start, last.Time)
		if !ok {
			b.log.Warn("Benchmark has no usable data in the simulation window",
				zap.String("benchmark", symbol),
			)

			continue
		}

		report.Benchmarks = append(report.Benchmarks, types.BenchmarkResult{
			Symbol:    symbol,
			ReturnPct: benchReturn,
			AlphaPct:  returnPct - benchReturn,
		})
	}

	return report, nil
}

// windowReturn is the percentage change from the first to the last close
// within [start, end].
func windowReturn(bars []types.MarketData, start time.Time, end time.Time) (float64, bool) {
	var first, last *types.MarketData

	for i := range bars {
		if bars[i].Time.Before(start) || bars[i].Time.After(end) {
			continue
		}

		if first == nil {
			first = &bars[i]
		}

		last = &bars[i]
	}

	if first == nil || !(first.Close > 0) {
		return 0, false
	}

	return (last.Close - first.Close) / first.Close * 100, true
}

// WriteResults writes report.yaml, trades.parquet and equity.parquet into
// the run's results folder.
func (b *BacktestEngineV1) WriteResults() (types.BacktestReport, error) {
	if b.resultsFolder == "" {
		return types.BacktestReport{}, errors.New(errors.ErrCodeBacktestResultsFailed, "no results folder set")
	}

	report, err := b.Report()
	if err != nil {
		return types.BacktestReport{}, err
	}

	folder := getResultFolder(b)

	report.TradesFilePath, report.EquityFilePath, err = b.state.Write(folder)
	if err != nil {
		return types.BacktestReport{}, err
	}

	if err := types.WriteReport(filepath.Join(folder, reportFileName), report); err != nil {
		return types.BacktestReport{}, errors.Wrap(errors.ErrCodeBacktestResultsFailed, "failed to write report", err)
	}

	b.log.Info("Results written", zap.String("folder", folder))

	return report, nil
}

func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// Close releases the state database.
func (b *BacktestEngineV1) Close() error {
	if b.state == nil {
		return nil
	}

	return b.state.Close()
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.state == nil || b.signals == nil {
		return errors.New(errors.ErrCodeBacktestNotLoaded, "engine is not initialized")
	}

	if len(b.series) == 0 {
		return errors.New(errors.ErrCodeBacktestNotLoaded, "no data loaded, call Load or LoadSeries first")
	}

	if len(b.series) <= b.config.Warmup {
		return errors.NewInsufficientDataError(b.config.Warmup+1, len(b.series), b.config.Symbol)
	}

	return nil
}
