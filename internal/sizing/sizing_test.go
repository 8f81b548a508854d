package sizing

import (
	"math"
	"testing"

	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/stretchr/testify/suite"
)

type PositionSizerTestSuite struct {
	suite.Suite
	sizer *PositionSizer
}

func TestPositionSizerSuite(t *testing.T) {
	suite.Run(t, new(PositionSizerTestSuite))
}

func (suite *PositionSizerTestSuite) SetupTest() {
	suite.sizer = NewPositionSizer(10000, DefaultBaseRiskPct)
}

func (suite *PositionSizerTestSuite) TestRegimeModifiers() {
	suite.Equal(1.0, RegimeModifier(types.RegimeRiskOn))
	suite.Equal(0.5, RegimeModifier(types.RegimeNeutral))
	suite.Equal(0.25, RegimeModifier(types.RegimeRiskOff))
	suite.Equal(0.5, RegimeModifier(types.MarketRegime("PANIC")))
}

func (suite *PositionSizerTestSuite) TestCalculateSize() {
	tests := []struct {
		name     string
		price    float64
		stop     float64
		regime   types.MarketRegime
		shares   int64
		riskPct  float64
		modifier float64
		message  string
	}{
		{
			// 100 risk / 5 per share = 20 shares, cap is 25
			name: "risk on", price: 100, stop: 95, regime: types.RegimeRiskOn,
			shares: 20, riskPct: 1.0, modifier: 1.0, message: "Risking 1.00% of capital (RISK_ON mode)",
		},
		{
			name: "neutral halves the budget", price: 100, stop: 95, regime: types.RegimeNeutral,
			shares: 10, riskPct: 0.5, modifier: 0.5, message: "Risking 0.50% of capital (NEUTRAL mode)",
		},
		{
			name: "risk off quarters the budget", price: 100, stop: 95, regime: types.RegimeRiskOff,
			shares: 5, riskPct: 0.25, modifier: 0.25, message: "Risking 0.25% of capital (RISK_OFF mode)",
		},
		{
			// 100 / 0.5 = 200 shares, capped at 2500 / 100 = 25
			name: "tight stop hits allocation cap", price: 100, stop: 99.5, regime: types.RegimeRiskOn,
			shares: 25, riskPct: 0.125, modifier: 1.0, message: "Risking 1.00% of capital (RISK_ON mode)",
		},
		{
			// stop above price falls back to 5 per share
			name: "stop above price", price: 100, stop: 110, regime: types.RegimeRiskOn,
			shares: 20, riskPct: 1.0, modifier: 1.0, message: "Risking 1.00% of capital (RISK_ON mode)",
		},
		{
			name: "unknown regime is conservative", price: 100, stop: 95, regime: "",
			shares: 10, riskPct: 0.5, modifier: 0.5, message: "Risking 0.50% of capital ( mode)",
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result := suite.sizer.CalculateSize(tc.price, tc.stop, tc.regime)
			suite.Equal(tc.shares, result.Shares)
			suite.InDelta(float64(tc.shares)*tc.price, result.PositionValue, 1e-9)
			suite.InDelta(tc.riskPct, result.RiskPctOfAccount, 1e-9)
			suite.Equal(tc.modifier, result.RegimeModifier)
			suite.Equal(tc.message, result.Message)
		})
	}
}

func (suite *PositionSizerTestSuite) TestNeverExceedsAllocationCap() {
	for _, price := range []float64{0.5, 3, 17.3, 99, 250, 4999, 12000} {
		for _, stop := range []float64{0, price * 0.5, price * 0.99, price, price * 2} {
			result := suite.sizer.CalculateSize(price, stop, types.RegimeRiskOn)
			suite.GreaterOrEqual(result.Shares, int64(0))
			suite.LessOrEqual(result.PositionValue, 10000*MaxAllocationPct+1e-9)
		}
	}
}

func (suite *PositionSizerTestSuite) TestNeverExceedsRiskBudget() {
	regimes := []types.MarketRegime{types.RegimeRiskOn, types.RegimeNeutral, types.RegimeRiskOff}

	for _, regime := range regimes {
		budget := 10000 * DefaultBaseRiskPct * RegimeModifier(regime)

		for _, price := range []float64{0.5, 3, 17.3, 99, 250, 4999, 12000} {
			for _, stop := range []float64{0, price * 0.5, price * 0.99, price, price * 2} {
				result := suite.sizer.CalculateSize(price, stop, regime)
				suite.LessOrEqual(result.RiskAmount, budget+1e-9, "%s price %f stop %f", regime, price, stop)
				suite.LessOrEqual(result.RiskAmount, 10000*DefaultBaseRiskPct+1e-9)
			}
		}
	}
}

func (suite *PositionSizerTestSuite) TestDegenerateInputs() {
	for _, price := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		result := suite.sizer.CalculateSize(price, 1, types.RegimeRiskOn)
		suite.Equal(int64(0), result.Shares)
		suite.Equal(0.0, result.RiskAmount)
	}

	broke := NewPositionSizer(0, DefaultBaseRiskPct)
	suite.Equal(int64(0), broke.CalculateSize(100, 95, types.RegimeRiskOn).Shares)
}
