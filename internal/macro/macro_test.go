package macro

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/stock-sentinel/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/stock-sentinel/internal/logger"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/mocks"
	"github.com/stretchr/testify/suite"
)

type MacroTestSuite struct {
	suite.Suite
	sentinel *Sentinel
}

func TestMacroSuite(t *testing.T) {
	suite.Run(t, new(MacroTestSuite))
}

func (suite *MacroTestSuite) SetupTest() {
	suite.sentinel = NewSentinel(DefaultConfig(), logger.NewNopLogger())
}

// series returns five observations moving from 100 to 100+pct.
func series(pct float64) []float64 {
	return []float64{100, 100, 100, 100, 100 + pct}
}

func (suite *MacroTestSuite) TestClassify() {
	testCases := []struct {
		name      string
		yieldPct  float64
		dollarPct float64
		want      types.MarketRegime
		details   int
	}{
		{name: "stable", yieldPct: 0.5, dollarPct: 0.2, want: types.RegimeNeutral, details: 1},
		{name: "yield spike", yieldPct: 4, dollarPct: 0, want: types.RegimeRiskOff, details: 1},
		{name: "yield cooling", yieldPct: -4, dollarPct: 0, want: types.RegimeRiskOn, details: 1},
		{name: "cooling but dollar strong", yieldPct: -4, dollarPct: 2, want: types.RegimeNeutral, details: 2},
		{name: "stable and dollar strong", yieldPct: 0, dollarPct: 2, want: types.RegimeRiskOff, details: 2},
		{name: "spike and dollar strong", yieldPct: 4, dollarPct: 2, want: types.RegimeRiskOff, details: 2},
		{name: "stable and dollar weak", yieldPct: 0, dollarPct: -2, want: types.RegimeRiskOn, details: 2},
		{name: "spike and dollar weak", yieldPct: 4, dollarPct: -2, want: types.RegimeRiskOff, details: 2},
		{name: "exactly at threshold", yieldPct: 3, dollarPct: 1, want: types.RegimeNeutral, details: 1},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			got := suite.sentinel.Classify(series(tc.yieldPct), series(tc.dollarPct))
			suite.Equal(tc.want, got.Regime)
			suite.Len(got.Details, tc.details)
			suite.Equal(100+tc.yieldPct, got.TNX)
			suite.Equal(100+tc.dollarPct, got.DXY)
		})
	}
}

func (suite *MacroTestSuite) TestClassifyUsesWindowFromTheEnd() {
	// 4 -> 4.2 over the last five observations is +5%; the first value is ignored.
	got := suite.sentinel.Classify([]float64{1, 4, 4.1, 4.1, 4.1, 4.2}, series(0))
	suite.Equal(types.RegimeRiskOff, got.Regime)
	suite.Contains(got.Reason, "US 10Y yield spiking (+5.00% in 5 obs)")
}

func (suite *MacroTestSuite) TestReasonJoined() {
	got := suite.sentinel.Classify(series(-4), series(-2))
	suite.Equal("US 10Y yield cooling (-4.00% in 5 obs) | DXY weakening (-2.00%)", got.Reason)
}

func (suite *MacroTestSuite) TestInsufficientData() {
	got := suite.sentinel.Classify([]float64{1, 2, 3}, series(0))
	suite.Equal(types.RegimeNeutral, got.Regime)
	suite.Contains(got.Reason, "Macro Data Error: TNX insufficient data")
	suite.Empty(got.Details)
	suite.Zero(got.TNX)

	got = suite.sentinel.Classify(series(0), []float64{0, 1, 1, 1, 1})
	suite.Equal(types.RegimeNeutral, got.Regime)
	suite.Contains(got.Reason, "Macro Data Error: DXY")
}

func (suite *MacroTestSuite) TestAnalyzeTruncatesAtEnd() {
	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	ds := datasource.NewInMemoryDataSource(map[string][]types.MarketData{
		DefaultYieldSymbol:  mocks.BarsFromCloses(DefaultYieldSymbol, start, 4, 4, 4, 4, 4, 4.5),
		DefaultDollarSymbol: mocks.ConstantBars(DefaultDollarSymbol, start, 6, 104),
	})

	// the spike in the sixth week is not visible yet
	before := suite.sentinel.Analyze(context.Background(), ds, start.AddDate(0, 0, 28))
	suite.Equal(types.RegimeNeutral, before.Regime)

	after := suite.sentinel.Analyze(context.Background(), ds, start.AddDate(0, 0, 35))
	suite.Equal(types.RegimeRiskOff, after.Regime)
	suite.Equal(4.5, after.TNX)
	suite.Equal(104.0, after.DXY)
}

func (suite *MacroTestSuite) TestAnalyzeMissingSeries() {
	ds := datasource.NewInMemoryDataSource(nil)

	got := suite.sentinel.Analyze(context.Background(), ds, time.Now())
	suite.Equal(types.RegimeNeutral, got.Regime)
	suite.Contains(got.Reason, "Macro Data Error")
}
