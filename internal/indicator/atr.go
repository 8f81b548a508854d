package indicator

import (
	"math"

	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// ATR indicator implements Average True Range with Wilder smoothing.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() Indicator {
	return &ATR{
		period: 14,
	}
}

func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATR) Config(params ...any) error {
	period, err := configPeriod(params)
	if err != nil {
		return err
	}

	a.period = period

	return nil
}

// Calculate returns the Wilder-smoothed true range, seeded with the first
// bar's high-low range.
func (a *ATR) Calculate(bars []types.MarketData) []float64 {
	return wilder(TrueRange(bars), a.period)
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per bar.
// The first bar has no previous close and uses high-low.
func TrueRange(bars []types.MarketData) []float64 {
	tr := make([]float64, len(bars))

	for i, bar := range bars {
		tr[i] = bar.High - bar.Low
		if i == 0 {
			continue
		}

		prevClose := bars[i-1].Close
		tr[i] = math.Max(tr[i], math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
	}

	return tr
}
