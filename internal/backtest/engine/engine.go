package engine

import (
	"context"

	"github.com/rxtech-lab/stock-sentinel/internal/advisor"
	"github.com/rxtech-lab/stock-sentinel/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called once the series are loaded, before the first step.
// totalSteps is the number of bars that will be replayed after warmup.
type OnBacktestStartCallback func(symbol string, totalSteps int) error

// OnBacktestEndCallback is called when the run completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnProcessDataCallback is called for each simulated step.
type OnProcessDataCallback func(current int, total int) error

// OnSignalCallback is called with the signal computed at each step, before
// any trade is attempted.
type OnSignalCallback func(signal types.Signal) error

// OnTradeCallback is called after a trade is appended to the ledger.
type OnTradeCallback func(trade types.Trade)

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnProcessData   *OnProcessDataCallback
	OnSignal        *OnSignalCallback
	OnTrade         *OnTradeCallback
}

//nolint:interfacebloat // Engine is a core interface that naturally requires multiple methods
type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetDataSource sets the source of the primary and benchmark series.
	SetDataSource(dataSource datasource.DataSource) error
	// SetAdvisor sets the advisory gate consulted on BUY and exit signals.
	// A nil advisor disables the gate.
	SetAdvisor(advisor advisor.Advisor) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// The results folder will be structured as: <folder>/<symbol>/<start>_<end>
	SetResultsFolder(folder string) error
	// Load fetches the primary and benchmark series from the data source.
	Load(ctx context.Context) error
	// Run replays the loaded series bar by bar.
	// The context can be used to cancel the backtest between steps.
	// Use LifecycleCallbacks to receive notifications at different phases of the backtest.
	Run(ctx context.Context, callbacks LifecycleCallbacks) error
	// Report summarises the last run.
	Report() (types.BacktestReport, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
