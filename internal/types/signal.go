package types

import "time"

type SignalType string

const (
	// SignalTypeBuy opens or adds to a long position.
	SignalTypeBuy SignalType = "BUY"
	// SignalTypeSell exits the whole position.
	SignalTypeSell SignalType = "SELL"
	// SignalTypeHold takes no action.
	SignalTypeHold SignalType = "HOLD"
	// SignalTypeProfit takes profit on the whole position.
	SignalTypeProfit SignalType = "PROFIT"
)

// IsExit reports whether the signal liquidates an open position.
func (s SignalType) IsExit() bool {
	return s == SignalTypeSell || s == SignalTypeProfit
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Signal is the classification of the latest bar of a series.
type Signal struct {
	Time     time.Time  `yaml:"time" json:"time"`
	Symbol   string     `yaml:"symbol" json:"symbol"`
	Type     SignalType `yaml:"type" json:"type"`
	Reason   string     `yaml:"reason" json:"reason"`
	Severity Severity   `yaml:"severity" json:"severity"`
	Price    float64    `yaml:"price" json:"price"`
	EMA      float64    `yaml:"ema" json:"ema"`
	RSI      float64    `yaml:"rsi" json:"rsi"`
	ATR      float64    `yaml:"atr" json:"atr"`
	// StopLoss is the ATR defense line, EMA minus a multiple of ATR.
	StopLoss float64 `yaml:"stop_loss" json:"stop_loss"`
}
