package main

import (
	"context"
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stock-sentinel/internal/advisor"
	"github.com/rxtech-lab/stock-sentinel/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/stock-sentinel/internal/logger"
	"github.com/rxtech-lab/stock-sentinel/internal/macro"
	"github.com/rxtech-lab/stock-sentinel/internal/metrics"
	"github.com/rxtech-lab/stock-sentinel/internal/notifier"
	"github.com/rxtech-lab/stock-sentinel/internal/sizing"
	"github.com/rxtech-lab/stock-sentinel/internal/strategy"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/pkg/marketdata/provider"
	"github.com/rxtech-lab/stock-sentinel/pkg/utils"
	"go.uber.org/zap"
)

const (
	// watchdogDays of daily bars cover the RSI period with room for holidays.
	watchdogDays     = 45
	newsLookbackDays = 7
)

// Scanner classifies the latest bar of every ticker in a watchlist and
// reports actionable signals and daily anomalies.
type Scanner struct {
	log      *logger.Logger
	signals  strategy.SignalGenerator
	watchdog *strategy.Watchdog
	sentinel *macro.Sentinel
	// weekly feeds the signal generator; daily feeds the watchdog and the
	// macro sentinel.
	weekly   datasource.DataSource
	daily    datasource.DataSource
	advisor  advisor.Advisor
	news     provider.NewsProvider
	notifier notifier.Notifier
	metrics  *metrics.Metrics
	capital  float64
	lookback string
	now      func() time.Time
}

// ScanResult is what the scan found for one ticker.
type ScanResult struct {
	Symbol string
	Signal types.Signal
	Alert  *types.Alert
	Advice *types.Advice
	Sizing optional.Option[sizing.Result]
}

// Scan runs ScanTicker for every symbol. A failing ticker is logged and
// skipped.
func (s *Scanner) Scan(ctx context.Context, symbols []string) []ScanResult {
	assessment := s.sentinel.Analyze(ctx, s.daily, s.now())
	s.log.Info("Macro regime",
		zap.String("regime", string(assessment.Regime)),
		zap.String("reason", assessment.Reason),
		zap.Float64("tnx", assessment.TNX),
		zap.Float64("dxy", assessment.DXY),
	)

	results := make([]ScanResult, 0, len(symbols))

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}

		result, err := s.ScanTicker(ctx, symbol, assessment.Regime)
		if err != nil {
			s.log.Warn("Scan failed", zap.String("symbol", symbol), zap.Error(err))

			continue
		}

		results = append(results, result)
	}

	return results
}

// ScanTicker classifies symbol, checks its daily bars for anomalies and
// sends a notification for an actionable signal. BUY signals are sized for
// regime.
func (s *Scanner) ScanTicker(ctx context.Context, symbol string, regime types.MarketRegime) (ScanResult, error) {
	now := s.now()
	result := ScanResult{Symbol: symbol}

	bars, err := s.weekly.GetSeries(ctx, symbol, optional.Some(utils.LookbackStart(now, s.lookback)), optional.Some(now))
	if err != nil {
		return result, err
	}

	result.Signal, err = s.signals.Analyze(bars)
	if err != nil {
		return result, err
	}

	s.metrics.ObserveSignal(symbol, string(result.Signal.Type))

	result.Alert = s.checkAnomalies(ctx, symbol, now)

	if result.Signal.Type == types.SignalTypeHold {
		s.log.Info("No action",
			zap.String("symbol", symbol),
			zap.Float64("price", result.Signal.Price),
			zap.String("reason", result.Signal.Reason),
		)

		return result, nil
	}

	notification := notifier.SignalNotification{
		Symbol: symbol,
		Signal: result.Signal,
		Regime: regime,
	}

	if result.Signal.Type == types.SignalTypeBuy {
		sized := sizing.NewPositionSizer(s.capital, sizing.DefaultBaseRiskPct).
			CalculateSize(result.Signal.Price, result.Signal.StopLoss, regime)
		result.Sizing = optional.Some(sized)
		notification.SizingMessage = fmt.Sprintf("%d shares ($%.2f). %s", sized.Shares, sized.PositionValue, sized.Message)
	}

	if s.advisor != nil {
		result.Advice = s.consult(ctx, symbol, result.Signal, now)
		notification.Advice = result.Advice
	}

	if err := s.notifier.NotifySignal(ctx, notification); err != nil {
		s.log.Warn("Failed to send signal", zap.String("symbol", symbol), zap.Error(err))
	}

	return result, nil
}

// checkAnomalies runs the watchdog on recent daily bars and sends any alert.
func (s *Scanner) checkAnomalies(ctx context.Context, symbol string, now time.Time) *types.Alert {
	if s.daily == nil || s.watchdog == nil {
		return nil
	}

	bars, err := s.daily.GetSeries(ctx, symbol, optional.Some(now.AddDate(0, 0, -watchdogDays)), optional.Some(now))
	if err != nil {
		s.log.Debug("Daily bars unavailable, skipping watchdog", zap.String("symbol", symbol), zap.Error(err))

		return nil
	}

	alert := s.watchdog.Check(symbol, bars)
	if alert == nil {
		return nil
	}

	for _, kind := range alert.Kinds {
		s.metrics.ObserveAlert(symbol, string(kind))
	}

	if err := s.notifier.NotifyAlert(ctx, *alert); err != nil {
		s.log.Warn("Failed to send alert", zap.String("symbol", symbol), zap.Error(err))
	}

	return alert
}

// consult returns nil when the advisor could not answer.
func (s *Scanner) consult(ctx context.Context, symbol string, signal types.Signal, now time.Time) *types.Advice {
	advisoryCtx := advisor.AdvisoryContext{Date: now}

	if s.news != nil {
		news, err := s.news.GetNews(ctx, symbol, now.AddDate(0, 0, -newsLookbackDays), now)
		if err != nil {
			s.log.Debug("News unavailable", zap.String("symbol", symbol), zap.Error(err))
		}

		advisoryCtx.News = news
	}

	advice, err := s.advisor.Evaluate(ctx, symbol, signal, advisoryCtx)
	if err != nil {
		s.metrics.ObserveAdvisoryFailure()
		s.log.Warn("Advisor unavailable", zap.String("symbol", symbol), zap.Error(err))

		return nil
	}

	s.metrics.ObserveVerdict(string(advice.Verdict))

	return &advice
}
