package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BenchmarkResult compares the strategy with buying and holding a benchmark
// over the same window.
type BenchmarkResult struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	// ReturnPct is (last close / first close - 1) * 100 within the window.
	ReturnPct float64 `yaml:"return_pct" json:"return_pct"`
	// AlphaPct is the strategy return minus ReturnPct, in percentage points.
	AlphaPct float64 `yaml:"alpha_pct" json:"alpha_pct"`
}

type TradeResult struct {
	// Count of ledger entries, BUY and SELL.
	NumberOfTrades int `yaml:"number_of_trades" json:"number_of_trades"`
	// Count of SELL entries.
	NumberOfSells int `yaml:"number_of_sells" json:"number_of_sells"`
	// Count of SELL entries with positive pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades" json:"number_of_winning_trades"`
	// WinRate is the winning fraction of sells, nil when there were none.
	WinRate *float64 `yaml:"win_rate,omitempty" json:"win_rate,omitempty"`
	// Largest peak-to-trough decline of the equity curve, as a fraction.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	RealizedPnL float64 `yaml:"realized_pnl" json:"realized_pnl"`
}

// BacktestReport summarises one simulation run.
type BacktestReport struct {
	ID             string            `yaml:"id" json:"id"`
	Timestamp      time.Time         `yaml:"timestamp" json:"timestamp"`
	Symbol         string            `yaml:"symbol" json:"symbol"`
	StartDate      time.Time         `yaml:"start_date" json:"start_date"`
	EndDate        time.Time         `yaml:"end_date" json:"end_date"`
	InitialCapital float64           `yaml:"initial_capital" json:"initial_capital"`
	FinalEquity    float64           `yaml:"final_equity" json:"final_equity"`
	ReturnPct      float64           `yaml:"return_pct" json:"return_pct"`
	Benchmarks     []BenchmarkResult `yaml:"benchmarks" json:"benchmarks"`
	TradeResult    TradeResult       `yaml:"trade_result" json:"trade_result"`
	FinalPosition  Position          `yaml:"final_position" json:"final_position"`
	// TradesFilePath is the path to the trades parquet file.
	TradesFilePath string `yaml:"trades_file_path,omitempty" json:"trades_file_path,omitempty"`
	// EquityFilePath is the path to the equity curve parquet file.
	EquityFilePath string `yaml:"equity_file_path,omitempty" json:"equity_file_path,omitempty"`
}

// Benchmark returns the result for symbol, if it was loaded.
func (r BacktestReport) Benchmark(symbol string) (BenchmarkResult, bool) {
	for _, b := range r.Benchmarks {
		if b.Symbol == symbol {
			return b, true
		}
	}

	return BenchmarkResult{}, false
}

func WriteReport(path string, report BacktestReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest report to file: %w", err)
	}

	return nil
}
