// Package indicator computes causal technical indicator series over bars.
//
// Every Calculate returns a slice aligned one-to-one with its input. The
// value at index i depends only on bars[0..i], so computing over a prefix
// yields exactly the prefix of the full-series result.
package indicator

import (
	"fmt"

	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// Indicator is a configurable series transform.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Config applies indicator specific parameters.
	Config(params ...any) error
	// Calculate returns one value per bar.
	Calculate(bars []types.MarketData) []float64
}

// Config holds the periods of the indicator set used by the signal generator.
type Config struct {
	EMAPeriod int `yaml:"ema_period" json:"ema_period" jsonschema:"title=EMA Period,description=Span of the trend EMA,minimum=1,default=20" validate:"gt=0"`
	RSIPeriod int `yaml:"rsi_period" json:"rsi_period" jsonschema:"title=RSI Period,description=Wilder smoothing period of the RSI,minimum=1,default=14" validate:"gt=0"`
	ATRPeriod int `yaml:"atr_period" json:"atr_period" jsonschema:"title=ATR Period,description=Wilder smoothing period of the ATR,minimum=1,default=14" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{EMAPeriod: 20, RSIPeriod: 14, ATRPeriod: 14}
}

// Series is the EMA, RSI and ATR of a bar series, index-aligned with it.
type Series struct {
	EMA []float64
	RSI []float64
	ATR []float64
}

func (s Series) Len() int {
	return len(s.EMA)
}

// Compute runs the EMA, RSI and ATR configured by cfg over bars.
func Compute(bars []types.MarketData, cfg Config) (Series, error) {
	registry, err := NewDefaultRegistry(cfg)
	if err != nil {
		return Series{}, err
	}

	out := make(map[types.IndicatorType][]float64, 3)
	for _, name := range []types.IndicatorType{types.IndicatorTypeEMA, types.IndicatorTypeRSI, types.IndicatorTypeATR} {
		ind, err := registry.GetIndicator(name)
		if err != nil {
			return Series{}, err
		}

		out[name] = ind.Calculate(bars)
	}

	return Series{
		EMA: out[types.IndicatorTypeEMA],
		RSI: out[types.IndicatorTypeRSI],
		ATR: out[types.IndicatorTypeATR],
	}, nil
}

// configPeriod validates the single "period" parameter shared by all
// indicators in this package.
func configPeriod(params []any) (int, error) {
	if len(params) != 1 {
		return 0, fmt.Errorf("Config expects 1 parameter: period (int)")
	}

	period, ok := params[0].(int)
	if !ok {
		return 0, fmt.Errorf("invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return 0, fmt.Errorf("period must be a positive integer, got %d", period)
	}

	return period, nil
}

// wilder applies exponential smoothing with alpha = 1/period, seeded with the
// first value.
func wilder(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 1.0 / float64(period)
	out[0] = values[0]

	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}

	return out
}
