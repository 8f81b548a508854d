package strategy

import (
	"fmt"

	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// Snapshot is what a rule sees: the last bar and the one before it.
type Snapshot struct {
	Price     float64
	EMA       float64
	RSI       float64
	ATR       float64
	StopLoss  float64
	PrevClose float64
	PrevEMA   float64
}

// Rule is one row of the signal table. Rules are tried in order and the first
// whose Matches returns true decides the signal.
type Rule struct {
	Name     string
	Type     types.SignalType
	Severity types.Severity
	Matches  func(s Snapshot) bool
	Reason   func(s Snapshot) string
}

// DefaultRules is the trend/ATR-defense cascade. The last rule always matches.
func DefaultRules(cfg Config) []Rule {
	return []Rule{
		{
			Name:     "atr_defense_breach",
			Type:     types.SignalTypeSell,
			Severity: types.SeverityDanger,
			Matches:  func(s Snapshot) bool { return s.Price < s.StopLoss },
			Reason: func(s Snapshot) string {
				return fmt.Sprintf("Breached ATR defense line ($%.2f) - trend reversal", s.StopLoss)
			},
		},
		{
			Name:     "ema_breach",
			Type:     types.SignalTypeHold,
			Severity: types.SeverityWarning,
			Matches:  func(s Snapshot) bool { return s.Price < s.EMA },
			Reason: func(s Snapshot) string {
				return fmt.Sprintf("Breached EMA ($%.2f) but holding above ATR defense line ($%.2f)", s.EMA, s.StopLoss)
			},
		},
		{
			Name:     "trend_entry",
			Type:     types.SignalTypeBuy,
			Severity: types.SeveritySuccess,
			Matches: func(s Snapshot) bool {
				return s.Price > s.EMA && (s.RSI <= cfg.BuyMaxRSI || s.PrevClose < s.PrevEMA)
			},
			Reason: func(s Snapshot) string {
				if s.PrevClose < s.PrevEMA {
					return "Trend confirmed + fresh breakout above EMA"
				}

				return fmt.Sprintf("Trend confirmed + RSI pullback (%.1f)", s.RSI)
			},
		},
		{
			Name:     "overbought",
			Type:     types.SignalTypeProfit,
			Severity: types.SeverityWarning,
			Matches:  func(s Snapshot) bool { return s.RSI > cfg.ProfitMinRSI },
			Reason: func(s Snapshot) string {
				return fmt.Sprintf("RSI overbought (%.1f > %.0f), consider taking profits", s.RSI, cfg.ProfitMinRSI)
			},
		},
		{
			Name:     "normal_range",
			Type:     types.SignalTypeHold,
			Severity: types.SeverityInfo,
			Matches:  func(Snapshot) bool { return true },
			Reason:   func(Snapshot) string { return "Price within normal fluctuation range" },
		},
	}
}
