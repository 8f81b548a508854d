package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/stock-sentinel/internal/indicator"
	"github.com/rxtech-lab/stock-sentinel/pkg/errors"
)

// Config tunes the trend/ATR-defense signal.
type Config struct {
	Indicators indicator.Config `yaml:"indicators" json:"indicators" jsonschema:"title=Indicators,description=Indicator periods"`
	// ATRMultiplier places the defense line at EMA - ATRMultiplier*ATR.
	ATRMultiplier float64 `yaml:"atr_multiplier" json:"atr_multiplier" jsonschema:"title=ATR Multiplier,description=Multiple of ATR below the EMA that defines the stop line,default=1" validate:"gt=0"`
	// BuyMaxRSI is the highest RSI at which a pullback entry is still taken.
	BuyMaxRSI float64 `yaml:"buy_max_rsi" json:"buy_max_rsi" jsonschema:"title=Buy Max RSI,description=RSI at or below which an uptrend bar is a pullback entry,default=55" validate:"gte=0,lte=100"`
	// ProfitMinRSI is the RSI above which profits are taken.
	ProfitMinRSI float64 `yaml:"profit_min_rsi" json:"profit_min_rsi" jsonschema:"title=Profit Min RSI,description=RSI above which the signal is take-profit,default=75" validate:"gte=0,lte=100"`
}

func DefaultConfig() Config {
	return Config{
		Indicators:    indicator.DefaultConfig(),
		ATRMultiplier: 1.0,
		BuyMaxRSI:     55,
		ProfitMinRSI:  75,
	}
}

// Validate checks the struct tags of the config and its indicator periods.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy config", err)
	}

	return nil
}
