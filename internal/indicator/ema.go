package indicator

import (
	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// EMA indicator implements Exponential Moving Average calculation.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Indicator {
	return &EMA{
		period: 20, // Default period
	}
}

func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMA) Config(params ...any) error {
	period, err := configPeriod(params)
	if err != nil {
		return err
	}

	e.period = period

	return nil
}

// Calculate returns the EMA of the closes with alpha = 2/(span+1), seeded with
// the first close (pandas ewm with adjust=False).
func (e *EMA) Calculate(bars []types.MarketData) []float64 {
	out := make([]float64, len(bars))
	if len(bars) == 0 {
		return out
	}

	alpha := 2.0 / float64(e.period+1)
	out[0] = bars[0].Close

	for i := 1; i < len(bars); i++ {
		out[i] = bars[i].Close*alpha + out[i-1]*(1-alpha)
	}

	return out
}
