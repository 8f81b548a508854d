// Package strategy turns a bar series into a trading signal.
package strategy

import (
	"github.com/rxtech-lab/stock-sentinel/internal/indicator"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/pkg/errors"
)

// minBars is the shortest series a signal can be computed on: the rules
// compare the last bar with the one before it.
const minBars = 2

// SignalGenerator classifies the last bar of a series.
type SignalGenerator interface {
	Analyze(bars []types.MarketData) (types.Signal, error)
}

// TrendStrategy is the EMA trend filter with an ATR defense line.
type TrendStrategy struct {
	config Config
	rules  []Rule
}

// NewTrendStrategy validates config and builds the default rule table.
func NewTrendStrategy(config Config) (*TrendStrategy, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &TrendStrategy{
		config: config,
		rules:  DefaultRules(config),
	}, nil
}

// NewTrendStrategyWithRules uses a custom rule table. The table should end
// with a rule that always matches.
func NewTrendStrategyWithRules(config Config, rules []Rule) (*TrendStrategy, error) {
	s, err := NewTrendStrategy(config)
	if err != nil {
		return nil, err
	}

	s.rules = rules

	return s, nil
}

func (s *TrendStrategy) Config() Config {
	return s.config
}

// Analyze classifies the last bar of bars. bars must be ascending and hold at
// least two entries.
func (s *TrendStrategy) Analyze(bars []types.MarketData) (types.Signal, error) {
	if len(bars) < minBars {
		symbol := ""
		if len(bars) == 1 {
			symbol = bars[0].Symbol
		}

		return types.Signal{}, errors.NewInsufficientDataError(minBars, len(bars), symbol)
	}

	series, err := indicator.Compute(bars, s.config.Indicators)
	if err != nil {
		return types.Signal{}, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to compute indicators", err)
	}

	last := len(bars) - 1
	snap := Snapshot{
		Price:     bars[last].Close,
		EMA:       series.EMA[last],
		RSI:       series.RSI[last],
		ATR:       series.ATR[last],
		PrevClose: bars[last-1].Close,
		PrevEMA:   series.EMA[last-1],
	}
	snap.StopLoss = snap.EMA - s.config.ATRMultiplier*snap.ATR

	signal := types.Signal{
		Time:     bars[last].Time,
		Symbol:   bars[last].Symbol,
		Price:    snap.Price,
		EMA:      snap.EMA,
		RSI:      snap.RSI,
		ATR:      snap.ATR,
		StopLoss: snap.StopLoss,
	}

	for _, rule := range s.rules {
		if rule.Matches(snap) {
			signal.Type = rule.Type
			signal.Severity = rule.Severity
			signal.Reason = rule.Reason(snap)

			return signal, nil
		}
	}

	return types.Signal{}, errors.New(errors.ErrCodeSignalFailed, "no rule matched")
}
