// Package notifier delivers signals, watchdog alerts and backtest reports to
// an external channel.
package notifier

import (
	"context"

	"github.com/rxtech-lab/stock-sentinel/internal/logger"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"go.uber.org/zap"
)

// SignalNotification is one actionable signal plus whatever the caller
// learned about it.
type SignalNotification struct {
	Symbol string
	Signal types.Signal
	// Advice is nil when no advisor was consulted.
	Advice *types.Advice
	// Regime and SizingMessage are empty when sizing was not computed.
	Regime        types.MarketRegime
	SizingMessage string
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	NotifySignal(ctx context.Context, notification SignalNotification) error
	NotifyAlert(ctx context.Context, alert types.Alert) error
	NotifyReport(ctx context.Context, report types.BacktestReport) error
}

// LogNotifier writes notifications to the logger. Used when no webhook is
// configured.
type LogNotifier struct {
	logger *logger.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifySignal(_ context.Context, notification SignalNotification) error {
	fields := []zap.Field{
		zap.String("symbol", notification.Symbol),
		zap.String("signal", string(notification.Signal.Type)),
		zap.String("reason", notification.Signal.Reason),
		zap.Float64("price", notification.Signal.Price),
		zap.Float64("stop_loss", notification.Signal.StopLoss),
	}

	if notification.Advice != nil {
		fields = append(fields, zap.String("verdict", string(notification.Advice.Verdict)))
	}

	if notification.SizingMessage != "" {
		fields = append(fields, zap.String("sizing", notification.SizingMessage))
	}

	n.logger.Info("Signal", fields...)

	return nil
}

func (n *LogNotifier) NotifyAlert(_ context.Context, alert types.Alert) error {
	n.logger.Warn("Anomaly detected",
		zap.String("symbol", alert.Symbol),
		zap.Float64("price", alert.Price),
		zap.Float64("change_pct", alert.ChangePct),
		zap.Strings("messages", alert.Messages),
	)

	return nil
}

func (n *LogNotifier) NotifyReport(_ context.Context, report types.BacktestReport) error {
	n.logger.Info("Backtest report",
		zap.String("symbol", report.Symbol),
		zap.Float64("final_equity", report.FinalEquity),
		zap.Float64("return_pct", report.ReturnPct),
		zap.Int("trades", report.TradeResult.NumberOfTrades),
	)

	return nil
}
