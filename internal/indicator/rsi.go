package indicator

import (
	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// neutralRSI is reported where there has been no price movement at all.
const neutralRSI = 50.0

// RSI represents the Relative Strength Index indicator.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period: 14, // Default period
	}
}

func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
	period, err := configPeriod(params)
	if err != nil {
		return err
	}

	r.period = period

	return nil
}

// Calculate returns the Wilder RSI of the closes. Gains and losses are the
// successive close differences, each smoothed with alpha = 1/period. The
// first bar has no difference and enters the averages as a zero gain and a
// zero loss, so the first move carries weight 1/period.
//
// Zero average loss reads 100 when there were gains and 50 when the price
// never moved, so the result is never NaN.
func (r *RSI) Calculate(bars []types.MarketData) []float64 {
	out := make([]float64, len(bars))
	if len(bars) == 0 {
		return out
	}

	gains := make([]float64, len(bars))
	losses := make([]float64, len(bars))

	for i := 1; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	avgGains := wilder(gains, r.period)
	avgLosses := wilder(losses, r.period)

	for i := range out {
		out[i] = rsiValue(avgGains[i], avgLosses[i])
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return neutralRSI
		}

		return 100 // Perfect uptrend
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}
