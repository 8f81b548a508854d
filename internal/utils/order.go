package utils

import (
	"github.com/shopspring/decimal"
)

// WholeShares returns how many whole shares amount buys at price.
// Non-positive inputs buy nothing.
func WholeShares(amount float64, price float64) int64 {
	if price <= 0 || amount <= 0 {
		return 0
	}

	// decimal division avoids 19.999999 style floors on exact multiples
	return decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(price)).Floor().IntPart()
}

// BuyExecutionPrice moves price against a buyer by the slippage fraction.
func BuyExecutionPrice(price float64, slippage float64) float64 {
	return price * (1 + slippage)
}

// SellExecutionPrice moves price against a seller by the slippage fraction.
func SellExecutionPrice(price float64, slippage float64) float64 {
	return price * (1 - slippage)
}
