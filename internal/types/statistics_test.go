package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type StatisticsTestSuite struct {
	suite.Suite
	tempDir string
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *StatisticsTestSuite) TestWriteReport() {
	winRate := 0.5
	report := BacktestReport{
		ID:             "run-1",
		Symbol:         "ALAB",
		StartDate:      time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 12, 27, 0, 0, 0, 0, time.UTC),
		InitialCapital: 10000,
		FinalEquity:    11500,
		ReturnPct:      15,
		Benchmarks:     []BenchmarkResult{{Symbol: "QQQ", ReturnPct: 10, AlphaPct: 5}},
		TradeResult: TradeResult{
			NumberOfTrades:        4,
			NumberOfSells:         2,
			NumberOfWinningTrades: 1,
			WinRate:               &winRate,
		},
	}

	path := filepath.Join(suite.tempDir, "report.yaml")
	suite.Require().NoError(WriteReport(path, report))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)

	var read BacktestReport
	suite.Require().NoError(yaml.Unmarshal(data, &read))
	suite.Equal("ALAB", read.Symbol)
	suite.Require().NotNil(read.TradeResult.WinRate)
	suite.Equal(0.5, *read.TradeResult.WinRate)

	qqq, ok := read.Benchmark("QQQ")
	suite.True(ok)
	suite.Equal(5.0, qqq.AlphaPct)

	_, ok = read.Benchmark("SPY")
	suite.False(ok)
}

func (suite *StatisticsTestSuite) TestWinRateOmittedWithoutSells() {
	data, err := yaml.Marshal(BacktestReport{Symbol: "ALAB"})
	suite.Require().NoError(err)
	suite.NotContains(string(data), "win_rate")
}

func (suite *StatisticsTestSuite) TestWriteReportBadPath() {
	err := WriteReport(filepath.Join(suite.tempDir, "missing", "report.yaml"), BacktestReport{})
	suite.Error(err)
}
