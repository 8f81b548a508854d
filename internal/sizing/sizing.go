// Package sizing converts a risk budget into a whole number of shares.
package sizing

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

const (
	// DefaultBaseRiskPct is the fraction of the account risked per trade in
	// a RISK_ON regime.
	DefaultBaseRiskPct = 0.01
	// MaxAllocationPct caps a single position's value as a fraction of the account.
	MaxAllocationPct = 0.25
	// fallbackStopPct is the per-share risk used when the stop is not below price.
	fallbackStopPct = 0.05
	// unknownRegimeModifier applies to any regime missing from the table.
	unknownRegimeModifier = 0.5
)

var regimeModifiers = map[types.MarketRegime]float64{
	types.RegimeRiskOn:  1.0,
	types.RegimeNeutral: 0.5,
	types.RegimeRiskOff: 0.25,
}

// RegimeModifier returns the risk multiplier of regime.
func RegimeModifier(regime types.MarketRegime) float64 {
	if m, ok := regimeModifiers[regime]; ok {
		return m
	}

	return unknownRegimeModifier
}

// Result is a sizing recommendation.
type Result struct {
	Shares           int64   `yaml:"shares" json:"shares"`
	PositionValue    float64 `yaml:"position_value" json:"position_value"`
	RiskAmount       float64 `yaml:"risk_amount" json:"risk_amount"`
	RiskPctOfAccount float64 `yaml:"risk_pct_of_account" json:"risk_pct_of_account"`
	RegimeModifier   float64 `yaml:"regime_modifier" json:"regime_modifier"`
	Message          string  `yaml:"message" json:"message"`
}

// PositionSizer sizes long positions against a fixed account value.
type PositionSizer struct {
	accountSize float64
	baseRiskPct float64
}

func NewPositionSizer(accountSize, baseRiskPct float64) *PositionSizer {
	return &PositionSizer{accountSize: accountSize, baseRiskPct: baseRiskPct}
}

func (p *PositionSizer) AccountSize() float64 {
	return p.accountSize
}

// CalculateSize returns the shares to buy at price with the stop at stopLoss.
//
// The budget is accountSize * baseRiskPct * RegimeModifier(regime). A stop at
// or above price falls back to 5% of price per share. The position value is
// capped at MaxAllocationPct of the account and the share count is floored.
// Degenerate inputs (non-positive price or account) yield zero shares.
func (p *PositionSizer) CalculateSize(price, stopLoss float64, regime types.MarketRegime) Result {
	modifier := RegimeModifier(regime)
	effectiveRiskPct := p.baseRiskPct * modifier
	result := Result{
		RegimeModifier: modifier,
		Message:        fmt.Sprintf("Risking %.2f%% of capital (%s mode)", effectiveRiskPct*100, regime),
	}

	if !(price > 0) || !(p.accountSize > 0) || math.IsInf(price, 0) {
		return result
	}

	riskAmount := p.accountSize * effectiveRiskPct

	riskPerShare := price - stopLoss
	if !(riskPerShare > 0) {
		riskPerShare = price * fallbackStopPct
	}

	rawShares := riskAmount / riskPerShare
	maxShares := p.accountSize * MaxAllocationPct / price

	shares := int64(math.Floor(math.Max(math.Min(rawShares, maxShares), 0)))

	actualRisk := float64(shares) * riskPerShare
	result.Shares = shares
	result.PositionValue = float64(shares) * price
	result.RiskAmount = actualRisk
	result.RiskPctOfAccount = actualRisk / p.accountSize * 100

	return result
}
