package engine

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stock-sentinel/internal/advisor"
	engine_types "github.com/rxtech-lab/stock-sentinel/internal/backtest/engine"
	"github.com/rxtech-lab/stock-sentinel/internal/logger"
	"github.com/rxtech-lab/stock-sentinel/internal/metrics"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/mocks"
	"github.com/rxtech-lab/stock-sentinel/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"gopkg.in/yaml.v3"
)

// scriptedSignals returns the scripted signal type for a bar index and HOLD
// otherwise. It records the length of every prefix it was shown.
type scriptedSignals struct {
	script map[int]types.SignalType
	seen   []int
}

func (s *scriptedSignals) Analyze(bars []types.MarketData) (types.Signal, error) {
	last := len(bars) - 1
	s.seen = append(s.seen, len(bars))

	signalType, ok := s.script[last]
	if !ok {
		signalType = types.SignalTypeHold
	}

	return types.Signal{
		Time:     bars[last].Time,
		Symbol:   bars[last].Symbol,
		Type:     signalType,
		Reason:   "scripted",
		Price:    bars[last].Close,
		StopLoss: bars[last].Close * 0.9,
	}, nil
}

type BacktestV1TestSuite struct {
	suite.Suite
	ctrl  *gomock.Controller
	start time.Time
}

func TestBacktestV1Suite(t *testing.T) {
	suite.Run(t, new(BacktestV1TestSuite))
}

func (suite *BacktestV1TestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.start = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
}

func (suite *BacktestV1TestSuite) baseConfig() BacktestEngineV1Config {
	config := EmptyConfig()
	config.Symbol = "ALAB"
	config.Slippage = 0
	config.Benchmarks = nil

	return config
}

// newEngine initializes an engine and loads bars, replacing the signal
// generator with script when it is not nil.
func (suite *BacktestV1TestSuite) newEngine(config BacktestEngineV1Config, bars []types.MarketData, script map[int]types.SignalType) (*BacktestEngineV1, *scriptedSignals) {
	b := NewBacktestEngineV1()
	b.SetLogger(logger.NewNopLogger())
	suite.Require().NoError(b.InitializeWithConfig(config))
	suite.T().Cleanup(func() { _ = b.Close() })

	var signals *scriptedSignals
	if script != nil {
		signals = &scriptedSignals{script: script}
		b.signals = signals
	}

	suite.Require().NoError(b.LoadSeries(bars, nil, config.EndTime))

	return b, signals
}

func (suite *BacktestV1TestSuite) flat(count int) []types.MarketData {
	return mocks.ConstantBars("ALAB", suite.start, count, 100)
}

func (suite *BacktestV1TestSuite) TestBuyWithFailedAdvisorDefaultsToAgree() {
	b, _ := suite.newEngine(suite.baseConfig(), suite.flat(25), map[int]types.SignalType{20: types.SignalTypeBuy})

	mockAdvisor := mocks.NewMockAdvisor(suite.ctrl)
	mockAdvisor.EXPECT().
		Evaluate(gomock.Any(), "ALAB", gomock.Any(), gomock.Any()).
		Return(types.Advice{}, errors.New(errors.ErrCodeAdvisoryUnavailable, "timeout")).
		Times(1)
	suite.Require().NoError(b.SetAdvisor(mockAdvisor))

	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

	trades, err := b.Trades()
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)
	suite.Equal(types.TradeTypeBuy, trades[0].Type)
	suite.Equal(int64(30), trades[0].Quantity)
	suite.Equal(7000.0, b.state.Cash())
}

func (suite *BacktestV1TestSuite) TestBuyMultipliers() {
	tests := []struct {
		name     string
		advice   optional.Option[types.Verdict]
		expected int64
	}{
		{name: "No advisor", advice: optional.None[types.Verdict](), expected: 20},
		{name: "Agree", advice: optional.Some(types.VerdictAgree), expected: 30},
		{name: "Caution", advice: optional.Some(types.VerdictCaution), expected: 10},
		{name: "Disagree vetoes", advice: optional.Some(types.VerdictDisagree), expected: 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			b, _ := suite.newEngine(suite.baseConfig(), suite.flat(25), map[int]types.SignalType{20: types.SignalTypeBuy})

			if tc.advice.IsSome() {
				mockAdvisor := mocks.NewMockAdvisor(suite.ctrl)
				mockAdvisor.EXPECT().
					Evaluate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(types.Advice{Verdict: tc.advice.Unwrap()}, nil)
				suite.Require().NoError(b.SetAdvisor(mockAdvisor))
			}

			suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

			suite.Equal(tc.expected, b.state.Position().Shares)
			suite.InDelta(10000-float64(tc.expected)*100, b.state.Cash(), 1e-9)
		})
	}
}

func (suite *BacktestV1TestSuite) TestBuyNeverOverdrawsWithSlippage() {
	config := suite.baseConfig()
	config.BuyFraction = 1
	config.Slippage = 0.01

	b, _ := suite.newEngine(config, suite.flat(25), map[int]types.SignalType{20: types.SignalTypeBuy})

	mockAdvisor := mocks.NewMockAdvisor(suite.ctrl)
	mockAdvisor.EXPECT().Evaluate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(types.Advice{Verdict: types.VerdictAgree}, nil)
	suite.Require().NoError(b.SetAdvisor(mockAdvisor))

	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

	// target is capped to cash, then to what 101 per share affords
	suite.Equal(int64(99), b.state.Position().Shares)
	suite.InDelta(1.0, b.state.Cash(), 1e-9)
}

func (suite *BacktestV1TestSuite) TestBuySkippedWhenCashDoesNotCoverPrice() {
	config := suite.baseConfig()
	config.InitialCapital = 100

	b, _ := suite.newEngine(config, suite.flat(25), map[int]types.SignalType{20: types.SignalTypeBuy})

	// the advisor must not be consulted
	suite.Require().NoError(b.SetAdvisor(mocks.NewMockAdvisor(suite.ctrl)))
	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

	trades, err := b.Trades()
	suite.Require().NoError(err)
	suite.Empty(trades)
}

func (suite *BacktestV1TestSuite) TestBuyTooSmallForOneShare() {
	config := suite.baseConfig()
	config.InitialCapital = 150

	b, _ := suite.newEngine(config, suite.flat(25), map[int]types.SignalType{20: types.SignalTypeBuy})
	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

	// 20% of 150 buys no share at 100
	trades, err := b.Trades()
	suite.Require().NoError(err)
	suite.Empty(trades)
}

func (suite *BacktestV1TestSuite) TestExitWithoutHoldingsIsNoop() {
	b, _ := suite.newEngine(suite.baseConfig(), suite.flat(25), map[int]types.SignalType{
		21: types.SignalTypeSell,
		22: types.SignalTypeProfit,
	})

	suite.Require().NoError(b.SetAdvisor(mocks.NewMockAdvisor(suite.ctrl)))
	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

	trades, err := b.Trades()
	suite.Require().NoError(err)
	suite.Empty(trades)
	suite.Equal(10000.0, b.state.Cash())
}

func (suite *BacktestV1TestSuite) TestAdvisorCanHoldThroughExit() {
	b, _ := suite.newEngine(suite.baseConfig(), suite.flat(25), map[int]types.SignalType{
		20: types.SignalTypeBuy,
		22: types.SignalTypeSell,
		24: types.SignalTypeProfit,
	})

	mockAdvisor := mocks.NewMockAdvisor(suite.ctrl)
	mockAdvisor.EXPECT().
		Evaluate(gomock.Any(), "ALAB", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, signal types.Signal, _ advisor.AdvisoryContext) (types.Advice, error) {
			if signal.Type == types.SignalTypeSell {
				return types.Advice{Verdict: types.VerdictDisagree}, nil
			}

			return types.Advice{Verdict: types.VerdictAgree}, nil
		}).
		Times(3)
	suite.Require().NoError(b.SetAdvisor(mockAdvisor))

	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

	trades, err := b.Trades()
	suite.Require().NoError(err)
	suite.Require().Len(trades, 2)
	suite.Equal(types.TradeTypeBuy, trades[0].Type)
	suite.Equal(types.TradeTypeSell, trades[1].Type)
	suite.Equal(suite.start.AddDate(0, 0, 7*24), trades[1].Date)
	suite.Equal(int64(30), trades[1].Quantity)
	suite.Equal("Tech: scripted | AI: Agree", trades[1].Reason)
	suite.Equal(10000.0, b.state.Cash())
}

func (suite *BacktestV1TestSuite) TestSignalSeesOnlyThePrefix() {
	bars := suite.flat(30)
	b, signals := suite.newEngine(suite.baseConfig(), bars, map[int]types.SignalType{})

	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

	expected := make([]int, 0, 10)
	for i := 20; i < 30; i++ {
		expected = append(expected, i+1)
	}

	suite.Equal(expected, signals.seen)
}

func (suite *BacktestV1TestSuite) TestStartTimeSkipsTradingButRecordsEquity() {
	config := suite.baseConfig()
	config.StartTime = optional.Some(suite.start.AddDate(0, 0, 7*25))

	b, _ := suite.newEngine(config, suite.flat(30), map[int]types.SignalType{
		20: types.SignalTypeBuy,
		26: types.SignalTypeBuy,
	})

	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

	trades, err := b.Trades()
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)
	suite.Equal(suite.start.AddDate(0, 0, 7*26), trades[0].Date)

	curve, err := b.EquityCurve()
	suite.Require().NoError(err)
	suite.Len(curve, 10)
	suite.Equal(suite.start.AddDate(0, 0, 7*20), curve[0].Date)
	suite.Equal(10000.0, curve[0].Equity)

	report, err := b.Report()
	suite.Require().NoError(err)
	suite.Equal(config.StartTime.Unwrap(), report.StartDate)
}

func (suite *BacktestV1TestSuite) TestEquityRecordedBeforeTrade() {
	bars := suite.flat(25)
	bars[20].Close = 120
	bars[21].Close = 120

	b, _ := suite.newEngine(suite.baseConfig(), bars, map[int]types.SignalType{20: types.SignalTypeBuy})
	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

	curve, err := b.EquityCurve()
	suite.Require().NoError(err)
	suite.Require().Len(curve, 5)

	suite.Equal(types.EquityPoint{Date: bars[20].Time, Equity: 10000, Cash: 10000, Shares: 0, Close: 120}, curve[0])
	suite.Equal(int64(16), curve[1].Shares)
	suite.InDelta(10000.0, curve[1].Equity, 1e-9)
	suite.InDelta(10000-16*20.0, curve[2].Equity, 1e-9)
}

func (suite *BacktestV1TestSuite) TestReportWithBenchmarks() {
	bars := suite.flat(25)
	bars[24].Close = 110

	qqq := mocks.ConstantBars("QQQ", suite.start, 25, 200)
	qqq[10].Close = 50
	qqq[24].Close = 210

	config := suite.baseConfig()
	config.Benchmarks = []string{"QQQ", "SPY"}

	b := NewBacktestEngineV1()
	b.SetLogger(logger.NewNopLogger())
	suite.Require().NoError(b.InitializeWithConfig(config))
	defer b.Close()

	b.signals = &scriptedSignals{script: map[int]types.SignalType{20: types.SignalTypeBuy}}
	suite.Require().NoError(b.LoadSeries(bars, map[string][]types.MarketData{
		"QQQ": qqq,
		"SPY": nil,
	}, optional.None[time.Time]()))

	_, err := b.Report()
	suite.Equal(errors.ErrCodeBacktestNotLoaded, errors.GetCode(err))

	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

	report, err := b.Report()
	suite.Require().NoError(err)

	suite.Equal("ALAB", report.Symbol)
	suite.Equal(bars[20].Time, report.StartDate)
	suite.Equal(bars[24].Time, report.EndDate)
	suite.InDelta(10200.0, report.FinalEquity, 1e-9)
	suite.InDelta(2.0, report.ReturnPct, 1e-9)

	suite.Require().Len(report.Benchmarks, 1)
	suite.Equal("QQQ", report.Benchmarks[0].Symbol)
	suite.InDelta(5.0, report.Benchmarks[0].ReturnPct, 1e-9)
	suite.InDelta(-3.0, report.Benchmarks[0].AlphaPct, 1e-9)

	suite.Equal(1, report.TradeResult.NumberOfTrades)
	suite.Nil(report.TradeResult.WinRate)
	suite.Equal(types.Position{Shares: 20, TotalCost: 2000}, report.FinalPosition)
}

func (suite *BacktestV1TestSuite) TestRiskSizingMode() {
	yields := mocks.ConstantBars("^TNX", suite.start, 25, 4.0)
	for i := 17; i < len(yields); i++ {
		yields[i].Close = 3.8
	}

	dollar := mocks.ConstantBars("DX-Y.NYB", suite.start, 25, 104)

	tests := []struct {
		name     string
		yields   []types.MarketData
		dollar   []types.MarketData
		expected int64
	}{
		// 1% of 10000, full modifier, 10 of risk per share
		{name: "Risk on", yields: yields, dollar: dollar, expected: 10},
		// missing macro data is NEUTRAL
		{name: "Missing macro data", yields: nil, dollar: nil, expected: 5},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := suite.baseConfig()
			config.SizingMode = SizingModeRisk

			b, _ := suite.newEngine(config, suite.flat(25), map[int]types.SignalType{20: types.SignalTypeBuy})
			b.SetMacroSeries(tc.yields, tc.dollar)

			suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))
			suite.Equal(tc.expected, b.state.Position().Shares)
		})
	}
}

func (suite *BacktestV1TestSuite) TestNewsPassedToAdvisor() {
	bars := suite.flat(25)
	b, _ := suite.newEngine(suite.baseConfig(), bars, map[int]types.SignalType{20: types.SignalTypeBuy})

	day := bars[20].Time
	news := mocks.NewMockNewsProvider(suite.ctrl)
	news.EXPECT().
		GetNews(gomock.Any(), "ALAB", day.AddDate(0, 0, -7), day).
		Return([]string{"ALAB beats estimates"}, nil)
	b.SetNewsProvider(news)

	mockAdvisor := mocks.NewMockAdvisor(suite.ctrl)
	mockAdvisor.EXPECT().
		Evaluate(gomock.Any(), "ALAB", gomock.Any(), advisor.AdvisoryContext{Date: day, News: []string{"ALAB beats estimates"}}).
		Return(types.Advice{Verdict: types.VerdictAgree}, nil)
	suite.Require().NoError(b.SetAdvisor(mockAdvisor))

	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))
	suite.Equal(int64(30), b.state.Position().Shares)
}

func (suite *BacktestV1TestSuite) TestCallbacks() {
	b, _ := suite.newEngine(suite.baseConfig(), suite.flat(25), map[int]types.SignalType{
		20: types.SignalTypeBuy,
		23: types.SignalTypeProfit,
	})

	var (
		startTotal int
		progress   []int
		signals    int
		trades     []types.TradeType
		endErr     = stderrors.New("not called")
	)

	onStart := engine_types.OnBacktestStartCallback(func(symbol string, total int) error {
		startTotal = total
		return nil
	})
	onEnd := engine_types.OnBacktestEndCallback(func(err error) {
		endErr = err
	})
	onProcess := engine_types.OnProcessDataCallback(func(current int, total int) error {
		progress = append(progress, current)
		return nil
	})
	onSignal := engine_types.OnSignalCallback(func(signal types.Signal) error {
		signals++
		return nil
	})
	onTrade := engine_types.OnTradeCallback(func(trade types.Trade) {
		trades = append(trades, trade.Type)
	})

	err := b.Run(context.Background(), engine_types.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnBacktestEnd:   &onEnd,
		OnProcessData:   &onProcess,
		OnSignal:        &onSignal,
		OnTrade:         &onTrade,
	})
	suite.Require().NoError(err)

	suite.Equal(5, startTotal)
	suite.Equal([]int{1, 2, 3, 4, 5}, progress)
	suite.Equal(5, signals)
	suite.Equal([]types.TradeType{types.TradeTypeBuy, types.TradeTypeSell}, trades)
	suite.NoError(endErr)
}

func (suite *BacktestV1TestSuite) TestCallbackErrorAborts() {
	b, _ := suite.newEngine(suite.baseConfig(), suite.flat(25), map[int]types.SignalType{})

	stop := stderrors.New("stop")
	onProcess := engine_types.OnProcessDataCallback(func(current int, total int) error {
		if current == 2 {
			return stop
		}

		return nil
	})

	var endErr error
	onEnd := engine_types.OnBacktestEndCallback(func(err error) {
		endErr = err
	})

	err := b.Run(context.Background(), engine_types.LifecycleCallbacks{OnProcessData: &onProcess, OnBacktestEnd: &onEnd})
	suite.ErrorIs(err, stop)
	suite.ErrorIs(endErr, stop)

	curve, err := b.EquityCurve()
	suite.Require().NoError(err)
	suite.Len(curve, 2)
}

func (suite *BacktestV1TestSuite) TestCancelledContext() {
	b, _ := suite.newEngine(suite.baseConfig(), suite.flat(25), map[int]types.SignalType{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Run(ctx, engine_types.LifecycleCallbacks{})
	suite.Error(err)
	suite.Equal(errors.ErrCodeCancelled, errors.GetCode(err))
	suite.ErrorIs(err, context.Canceled)
}

func (suite *BacktestV1TestSuite) TestRunPreconditions() {
	b := NewBacktestEngineV1()
	err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.Equal(errors.ErrCodeBacktestNotLoaded, errors.GetCode(err))

	b.SetLogger(logger.NewNopLogger())
	suite.Require().NoError(b.InitializeWithConfig(suite.baseConfig()))
	defer b.Close()

	err = b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.Equal(errors.ErrCodeBacktestNotLoaded, errors.GetCode(err))

	err = b.LoadSeries(nil, nil, optional.None[time.Time]())
	suite.Equal(errors.ErrCodeDataUnavailable, errors.GetCode(err))

	suite.Require().NoError(b.LoadSeries(suite.flat(20), nil, optional.None[time.Time]()))
	err = b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *BacktestV1TestSuite) TestLoadSeriesTruncatesToEnd() {
	config := suite.baseConfig()
	config.EndTime = optional.Some(suite.start.AddDate(0, 0, 7*22))

	b, _ := suite.newEngine(config, suite.flat(30), map[int]types.SignalType{})

	suite.Len(b.series, 23)

	err := b.LoadSeries(suite.flat(30), nil, optional.Some(suite.start.AddDate(0, 0, -1)))
	suite.Equal(errors.ErrCodeDataUnavailable, errors.GetCode(err))
}

func (suite *BacktestV1TestSuite) TestLoadFromDataSource() {
	config := suite.baseConfig()
	config.Benchmarks = []string{"QQQ", "SPY"}

	b := NewBacktestEngineV1()
	b.SetLogger(logger.NewNopLogger())
	suite.Require().NoError(b.InitializeWithConfig(config))
	defer b.Close()

	err := b.Load(context.Background())
	suite.Equal(errors.ErrCodeBacktestNoDatasource, errors.GetCode(err))

	ds := mocks.NewMockDataSource(suite.ctrl)
	ds.EXPECT().GetSeries(gomock.Any(), "ALAB", gomock.Any(), gomock.Any()).Return(suite.flat(25), nil)
	ds.EXPECT().GetSeries(gomock.Any(), "QQQ", gomock.Any(), gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeDataNotFound, "no QQQ"))
	ds.EXPECT().GetSeries(gomock.Any(), "SPY", gomock.Any(), gomock.Any()).
		Return(mocks.ConstantBars("SPY", suite.start, 25, 400), nil)
	suite.Require().NoError(b.SetDataSource(ds))

	suite.Require().NoError(b.Load(context.Background()))
	suite.Equal([]string{"SPY"}, b.benchmarkNames)
	suite.Len(b.series, 25)
}

func (suite *BacktestV1TestSuite) TestLoadPrimaryFailure() {
	b := NewBacktestEngineV1()
	b.SetLogger(logger.NewNopLogger())
	suite.Require().NoError(b.InitializeWithConfig(suite.baseConfig()))
	defer b.Close()

	ds := mocks.NewMockDataSource(suite.ctrl)
	ds.EXPECT().GetSeries(gomock.Any(), "ALAB", gomock.Any(), gomock.Any()).
		Return(nil, stderrors.New("connection refused"))
	suite.Require().NoError(b.SetDataSource(ds))

	err := b.Load(context.Background())
	suite.Error(err)
	suite.Equal(errors.ErrCodeDataUnavailable, errors.GetCode(err))
}

func (suite *BacktestV1TestSuite) TestLoadMacroSeriesInRiskMode() {
	config := suite.baseConfig()
	config.SizingMode = SizingModeRisk

	b := NewBacktestEngineV1()
	b.SetLogger(logger.NewNopLogger())
	suite.Require().NoError(b.InitializeWithConfig(config))
	defer b.Close()

	ds := mocks.NewMockDataSource(suite.ctrl)
	ds.EXPECT().GetSeries(gomock.Any(), "ALAB", gomock.Any(), gomock.Any()).Return(suite.flat(25), nil)
	ds.EXPECT().GetSeries(gomock.Any(), "^TNX", gomock.Any(), gomock.Any()).
		Return(mocks.ConstantBars("^TNX", suite.start, 25, 4), nil)
	ds.EXPECT().GetSeries(gomock.Any(), "DX-Y.NYB", gomock.Any(), gomock.Any()).
		Return(nil, stderrors.New("missing"))
	suite.Require().NoError(b.SetDataSource(ds))

	suite.Require().NoError(b.Load(context.Background()))
	suite.Len(b.yields, 25)
	suite.Empty(b.dollar)
}

func (suite *BacktestV1TestSuite) TestInitializeFromYAML() {
	b := NewBacktestEngineV1()
	b.SetLogger(logger.NewNopLogger())
	defer b.Close()

	suite.Require().NoError(b.Initialize(`
symbol: NVDA
initial_capital: 5000
benchmarks: [SPY]
`))

	suite.Equal("NVDA", b.Config().Symbol)
	suite.Equal(5000.0, b.state.Cash())
	suite.Equal([]string{"SPY"}, b.Config().Benchmarks)

	err := b.Initialize("initial_capital: 5000\n")
	suite.Equal(errors.ErrCodeBacktestConfigError, errors.GetCode(err))

	err = b.Initialize("symbol: [\n")
	suite.Equal(errors.ErrCodeBacktestConfigError, errors.GetCode(err))
}

func (suite *BacktestV1TestSuite) TestWriteResults() {
	resultsDir := suite.T().TempDir()

	config := suite.baseConfig()
	b, _ := suite.newEngine(config, suite.flat(25), map[int]types.SignalType{
		20: types.SignalTypeBuy,
		22: types.SignalTypeSell,
	})
	suite.Require().NoError(b.SetResultsFolder(resultsDir))

	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

	folder := filepath.Join(resultsDir, "ALAB")
	for _, name := range []string{"report.yaml", "trades.parquet", "equity.parquet"} {
		_, err := os.Stat(filepath.Join(folder, name))
		suite.NoError(err, name)
	}

	data, err := os.ReadFile(filepath.Join(folder, "report.yaml"))
	suite.Require().NoError(err)

	var report types.BacktestReport
	suite.Require().NoError(yaml.Unmarshal(data, &report))
	suite.Equal("ALAB", report.Symbol)
	suite.Equal(2, report.TradeResult.NumberOfTrades)
	suite.Equal(filepath.Join(folder, "trades.parquet"), report.TradesFilePath)
}

func (suite *BacktestV1TestSuite) TestRunTwiceStartsFresh() {
	b, _ := suite.newEngine(suite.baseConfig(), suite.flat(25), map[int]types.SignalType{20: types.SignalTypeBuy})

	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))
	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

	trades, err := b.Trades()
	suite.Require().NoError(err)
	suite.Len(trades, 1)
	suite.Equal(8000.0, b.state.Cash())
}

func (suite *BacktestV1TestSuite) TestMetricsAreRecorded() {
	m := metrics.New()

	b, _ := suite.newEngine(suite.baseConfig(), suite.flat(25), map[int]types.SignalType{
		20: types.SignalTypeBuy,
		21: types.SignalTypeBuy,
	})
	b.SetMetrics(m)

	mockAdvisor := mocks.NewMockAdvisor(suite.ctrl)
	mockAdvisor.EXPECT().Evaluate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(types.Advice{}, stderrors.New("down")).Times(2)
	suite.Require().NoError(b.SetAdvisor(mockAdvisor))

	suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{}))

	mfs, err := m.Registry().Gather()
	suite.Require().NoError(err)
	suite.NotEmpty(mfs)
}

// TestTrendStrategyInvariants runs the real signal generator over generated
// prices and checks the accounting invariants at every step.
func (suite *BacktestV1TestSuite) TestTrendStrategyInvariants() {
	for _, seed := range []int64{1, 7, 42} {
		config := mocks.DefaultConfig()
		config.Symbol = "ALAB"
		config.Count = 156
		config.Drift = 0.004
		bars := mocks.NewDataGenerator(seed).Generate(config)

		engineConfig := suite.baseConfig()
		engineConfig.Slippage = 0.001

		b, _ := suite.newEngine(engineConfig, bars, nil)

		var ledger []types.Trade

		onTrade := engine_types.OnTradeCallback(func(trade types.Trade) {
			ledger = append(ledger, trade)
		})

		suite.Require().NoError(b.Run(context.Background(), engine_types.LifecycleCallbacks{OnTrade: &onTrade}))

		curve, err := b.EquityCurve()
		suite.Require().NoError(err)
		suite.Len(curve, len(bars)-engineConfig.Warmup)

		for _, point := range curve {
			suite.GreaterOrEqual(point.Cash, 0.0)
			suite.GreaterOrEqual(point.Shares, int64(0))
			suite.InDelta(point.Cash+float64(point.Shares)*point.Close, point.Equity, 1e-6)
		}

		var shares int64
		for _, trade := range ledger {
			switch trade.Type {
			case types.TradeTypeBuy:
				shares += trade.Quantity
			case types.TradeTypeSell:
				suite.Equal(shares, trade.Quantity)
				shares = 0
			}
		}

		suite.Equal(shares, b.state.Position().Shares)

		trades, err := b.Trades()
		suite.Require().NoError(err)
		suite.Equal(len(ledger), len(trades))
	}
}
