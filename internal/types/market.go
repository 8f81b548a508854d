package types

import "time"

// MarketData is one OHLCV bar.
type MarketData struct {
	Id     string    `csv:"id" yaml:"id"`
	Symbol string    `csv:"symbol" yaml:"symbol"`
	Time   time.Time `csv:"time" yaml:"time"`
	Open   float64   `csv:"open" yaml:"open"`
	High   float64   `csv:"high" yaml:"high"`
	Low    float64   `csv:"low" yaml:"low"`
	Close  float64   `csv:"close" yaml:"close"`
	Volume float64   `csv:"volume" yaml:"volume"`
}

// Closes returns the close prices of bars in order.
func Closes(bars []MarketData) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	return closes
}

// TruncateAfter returns the prefix of bars whose time is not after end.
// bars must be sorted ascending.
func TruncateAfter(bars []MarketData, end time.Time) []MarketData {
	for i, bar := range bars {
		if bar.Time.After(end) {
			return bars[:i]
		}
	}

	return bars
}
