package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rxtech-lab/stock-sentinel/internal/macro"
	"github.com/rxtech-lab/stock-sentinel/internal/strategy"
	"github.com/rxtech-lab/stock-sentinel/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(10000.0, config.InitialCapital)
	suite.Equal(0.001, config.Slippage)
	suite.Equal(20, config.Warmup)
	suite.Equal(0.2, config.BuyFraction)
	suite.Equal(SizingModeCashFraction, config.SizingMode)
	suite.Equal([]string{"QQQ"}, config.Benchmarks)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.Equal(strategy.DefaultConfig(), config.Strategy)
	suite.Equal(macro.DefaultConfig(), config.Macro)
}

func (suite *ConfigTestSuite) TestTestConfig() {
	startTime := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	endTime := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	config := TestConfig("ALAB", startTime, endTime)

	suite.Equal("ALAB", config.Symbol)
	suite.Equal(0.0, config.Slippage)
	suite.Equal(startTime, config.StartTime.Unwrap())
	suite.Equal(endTime, config.EndTime.Unwrap())
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := &BacktestEngineV1Config{}
	schema, err := config.GenerateSchema()

	suite.NoError(err)
	suite.NotNil(schema)
	suite.Equal("backtest-engine-v1-config", schema.Title)
	suite.Equal("Configuration schema for BacktestEngineV1", schema.Description)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestEngineV1Config{}
	schemaJSON, err := config.GenerateSchemaJSON()

	suite.NoError(err)
	suite.NotEmpty(schemaJSON)

	var result map[string]interface{}
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &result))
	suite.Equal("backtest-engine-v1-config", result["title"])

	properties, ok := result["properties"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Contains(properties, "symbol")
	suite.Contains(properties, "sizing_mode")

	startTime, ok := properties["start_time"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Equal("date-time", startTime["format"])
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLComplete() {
	yamlData := `
symbol: ALAB
benchmarks: [QQQ, SPY]
initial_capital: 50000
slippage: 0.002
warmup: 30
buy_fraction: 0.1
sizing_mode: risk
base_risk_pct: 0.02
start_time: 2023-01-01T00:00:00Z
end_time: 2023-12-31T00:00:00Z
news_lookback_days: 3
strategy:
  atr_multiplier: 1.5
  indicators:
    ema_period: 10
`

	var config BacktestEngineV1Config
	suite.Require().NoError(yaml.Unmarshal([]byte(yamlData), &config))

	suite.Equal("ALAB", config.Symbol)
	suite.Equal([]string{"QQQ", "SPY"}, config.Benchmarks)
	suite.Equal(50000.0, config.InitialCapital)
	suite.Equal(0.002, config.Slippage)
	suite.Equal(30, config.Warmup)
	suite.Equal(0.1, config.BuyFraction)
	suite.Equal(SizingModeRisk, config.SizingMode)
	suite.Equal(0.02, config.BaseRiskPct)
	suite.Equal(3, config.NewsLookbackDays)
	suite.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), config.StartTime.Unwrap())
	suite.Equal(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), config.EndTime.Unwrap())

	suite.Equal(1.5, config.Strategy.ATRMultiplier)
	suite.Equal(10, config.Strategy.Indicators.EMAPeriod)
	// omitted nested keys keep their defaults
	suite.Equal(14, config.Strategy.Indicators.RSIPeriod)
	suite.Equal(55.0, config.Strategy.BuyMaxRSI)
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLDefaults() {
	var config BacktestEngineV1Config
	suite.Require().NoError(yaml.Unmarshal([]byte("symbol: NVDA\n"), &config))

	expected := EmptyConfig()
	expected.Symbol = "NVDA"

	suite.Equal(expected, config)
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLInvalid() {
	var config BacktestEngineV1Config
	suite.Error(yaml.Unmarshal([]byte("initial_capital: [1, 2]\n"), &config))
}

func (suite *ConfigTestSuite) TestValidate() {
	tests := []struct {
		name   string
		mutate func(c *BacktestEngineV1Config)
		valid  bool
	}{
		{name: "Defaults with symbol", mutate: func(c *BacktestEngineV1Config) {}, valid: true},
		{name: "Missing symbol", mutate: func(c *BacktestEngineV1Config) { c.Symbol = "" }},
		{name: "Zero capital", mutate: func(c *BacktestEngineV1Config) { c.InitialCapital = 0 }},
		{name: "Negative slippage", mutate: func(c *BacktestEngineV1Config) { c.Slippage = -0.01 }},
		{name: "Zero warmup", mutate: func(c *BacktestEngineV1Config) { c.Warmup = 0 }},
		{name: "Buy fraction above one", mutate: func(c *BacktestEngineV1Config) { c.BuyFraction = 1.5 }},
		{name: "Unknown sizing mode", mutate: func(c *BacktestEngineV1Config) { c.SizingMode = "kelly" }},
		{name: "Bad strategy", mutate: func(c *BacktestEngineV1Config) { c.Strategy.ATRMultiplier = 0 }},
		{
			name: "End before start",
			mutate: func(c *BacktestEngineV1Config) {
				*c = TestConfig(c.Symbol,
					time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
			},
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := EmptyConfig()
			config.Symbol = "ALAB"
			tc.mutate(&config)

			err := config.Validate()
			if tc.valid {
				suite.NoError(err)

				return
			}

			suite.Error(err)
			suite.Equal(errors.ErrCodeBacktestConfigError, errors.GetCode(err))
		})
	}
}
