// Package macro classifies the market regime from the 10-year Treasury
// yield and the US dollar index.
package macro

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stock-sentinel/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/stock-sentinel/internal/logger"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultYieldSymbol  = "^TNX"
	DefaultDollarSymbol = "DX-Y.NYB"
)

// Config holds the symbols and thresholds of the sentinel. Changes are
// percentages over Window observations.
type Config struct {
	YieldSymbol        string  `yaml:"yield_symbol" json:"yield_symbol" validate:"required"`
	DollarSymbol       string  `yaml:"dollar_symbol" json:"dollar_symbol" validate:"required"`
	Window             int     `yaml:"window" json:"window" validate:"gte=2"`
	YieldThresholdPct  float64 `yaml:"yield_threshold_pct" json:"yield_threshold_pct" validate:"gt=0"`
	DollarThresholdPct float64 `yaml:"dollar_threshold_pct" json:"dollar_threshold_pct" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		YieldSymbol:        DefaultYieldSymbol,
		DollarSymbol:       DefaultDollarSymbol,
		Window:             5,
		YieldThresholdPct:  3.0,
		DollarThresholdPct: 1.0,
	}
}

// Assessment is the outcome of one regime classification.
type Assessment struct {
	Regime  types.MarketRegime `yaml:"regime" json:"regime"`
	Reason  string             `yaml:"reason" json:"reason"`
	Details []string           `yaml:"details" json:"details"`
	// TNX and DXY are the latest observed values, zero on error.
	TNX float64 `yaml:"tnx" json:"tnx"`
	DXY float64 `yaml:"dxy" json:"dxy"`
}

// Sentinel classifies the macro regime.
type Sentinel struct {
	config Config
	logger *logger.Logger
}

func NewSentinel(config Config, logger *logger.Logger) *Sentinel {
	return &Sentinel{config: config, logger: logger}
}

// Config returns the symbols and thresholds in use.
func (s *Sentinel) Config() Config {
	return s.config
}

// Classify derives the regime from yield and dollar observations in
// ascending order. A yield move beyond the threshold sets RISK_OFF or
// RISK_ON; a strengthening dollar then downgrades one step and a weakening
// dollar lifts NEUTRAL to RISK_ON. Missing data yields NEUTRAL with an
// error reason.
func (s *Sentinel) Classify(yields []float64, dollar []float64) Assessment {
	yieldChange, err := s.change(yields)
	if err != nil {
		return errorAssessment("TNX " + err.Error())
	}

	dollarChange, err := s.change(dollar)
	if err != nil {
		return errorAssessment("DXY " + err.Error())
	}

	regime := types.RegimeNeutral

	var details []string

	switch {
	case yieldChange > s.config.YieldThresholdPct:
		regime = types.RegimeRiskOff
		details = append(details, fmt.Sprintf("US 10Y yield spiking (%+.2f%% in %d obs)", yieldChange, s.config.Window))
	case yieldChange < -s.config.YieldThresholdPct:
		regime = types.RegimeRiskOn
		details = append(details, fmt.Sprintf("US 10Y yield cooling (%+.2f%% in %d obs)", yieldChange, s.config.Window))
	default:
		details = append(details, fmt.Sprintf("US 10Y yield stable (%+.2f%%)", yieldChange))
	}

	switch {
	case dollarChange > s.config.DollarThresholdPct:
		switch regime {
		case types.RegimeRiskOn:
			regime = types.RegimeNeutral
		case types.RegimeNeutral:
			regime = types.RegimeRiskOff
		}

		details = append(details, fmt.Sprintf("DXY strengthening (%+.2f%%)", dollarChange))
	case dollarChange < -s.config.DollarThresholdPct:
		if regime == types.RegimeNeutral {
			regime = types.RegimeRiskOn
		}

		details = append(details, fmt.Sprintf("DXY weakening (%+.2f%%)", dollarChange))
	}

	return Assessment{
		Regime:  regime,
		Reason:  strings.Join(details, " | "),
		Details: details,
		TNX:     yields[len(yields)-1],
		DXY:     dollar[len(dollar)-1],
	}
}

// Analyze loads both macro series up to end from ds and classifies them.
// Load failures never escape; they become a NEUTRAL assessment.
func (s *Sentinel) Analyze(ctx context.Context, ds datasource.DataSource, end time.Time) Assessment {
	yields, err := ds.GetSeries(ctx, s.config.YieldSymbol, optional.None[time.Time](), optional.Some(end))
	if err != nil {
		s.logger.Warn("Failed to load yield series", zap.String("symbol", s.config.YieldSymbol), zap.Error(err))

		return errorAssessment(err.Error())
	}

	dollar, err := ds.GetSeries(ctx, s.config.DollarSymbol, optional.None[time.Time](), optional.Some(end))
	if err != nil {
		s.logger.Warn("Failed to load dollar series", zap.String("symbol", s.config.DollarSymbol), zap.Error(err))

		return errorAssessment(err.Error())
	}

	assessment := s.Classify(types.Closes(yields), types.Closes(dollar))
	s.logger.Debug("Macro regime",
		zap.String("regime", string(assessment.Regime)),
		zap.String("reason", assessment.Reason),
	)

	return assessment
}

// change is the percent move between the last value and the value Window
// observations back, counting the last one.
func (s *Sentinel) change(values []float64) (float64, error) {
	if len(values) < s.config.Window {
		return 0, errors.NewInsufficientDataError(s.config.Window, len(values), "")
	}

	current := values[len(values)-1]
	previous := values[len(values)-s.config.Window]

	if previous == 0 || math.IsNaN(previous) || math.IsNaN(current) {
		return 0, errors.Newf(errors.ErrCodeInvalidPrice, "cannot compute change from %v to %v", previous, current)
	}

	return (current - previous) * 100 / previous, nil
}

func errorAssessment(message string) Assessment {
	return Assessment{
		Regime: types.RegimeNeutral,
		Reason: "Macro Data Error: " + message,
	}
}
