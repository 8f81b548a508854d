package types

import "time"

type TradeType string

const (
	TradeTypeBuy  TradeType = "BUY"
	TradeTypeSell TradeType = "SELL"
)

// Trade is one executed fill in the simulation ledger.
type Trade struct {
	ID            string    `csv:"id" yaml:"id"`
	Type          TradeType `csv:"type" yaml:"type"`
	Symbol        string    `csv:"symbol" yaml:"symbol"`
	Date          time.Time `csv:"date" yaml:"date"`
	ExecutedPrice float64   `csv:"executed_price" yaml:"executed_price"`
	Quantity      int64     `csv:"quantity" yaml:"quantity"`
	Reason        string    `csv:"reason" yaml:"reason"`
	// PnL is realized on SELL only: (executed price - average entry) * quantity,
	// where the average entry includes the slippage paid on the buys.
	PnL float64 `csv:"pnl" yaml:"pnl"`
}

// Position is the single long holding of a backtest.
// Shares == 0 implies TotalCost == 0.
type Position struct {
	Shares    int64   `yaml:"shares"`
	TotalCost float64 `yaml:"total_cost"`
}

func (p Position) AverageEntryPrice() float64 {
	if p.Shares == 0 {
		return 0
	}

	return p.TotalCost / float64(p.Shares)
}

// EquityPoint is the account value at one simulated step.
type EquityPoint struct {
	Date   time.Time `csv:"date" yaml:"date"`
	Equity float64   `csv:"equity" yaml:"equity"`
	Cash   float64   `csv:"cash" yaml:"cash"`
	Shares int64     `csv:"shares" yaml:"shares"`
	Close  float64   `csv:"close" yaml:"close"`
}
