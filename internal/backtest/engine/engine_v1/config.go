package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stock-sentinel/internal/macro"
	"github.com/rxtech-lab/stock-sentinel/internal/sizing"
	"github.com/rxtech-lab/stock-sentinel/internal/strategy"
	"github.com/rxtech-lab/stock-sentinel/pkg/errors"
)

// SizingMode selects how a BUY quantity is computed.
type SizingMode string

const (
	// SizingModeCashFraction buys BuyFraction of the current cash, scaled by
	// the advisory verdict.
	SizingModeCashFraction SizingMode = "cash_fraction"
	// SizingModeRisk sizes the BUY with the position sizer against current
	// equity, the signal stop and the macro regime.
	SizingModeRisk SizingMode = "risk"
)

var AllSizingModes = []any{SizingModeCashFraction, SizingModeRisk}

const (
	DefaultInitialCapital   = 10000.0
	DefaultSlippage         = 0.001
	DefaultWarmup           = 20
	DefaultBuyFraction      = 0.2
	DefaultNewsLookbackDays = 7
)

type BacktestEngineV1Config struct {
	Symbol         string                     `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Ticker to simulate" validate:"required"`
	Benchmarks     []string                   `yaml:"benchmarks" json:"benchmarks" jsonschema:"title=Benchmarks,description=Tickers the strategy return is compared with"`
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting cash in USD,minimum=0,default=10000" validate:"gt=0"`
	Slippage       float64                    `yaml:"slippage" json:"slippage" jsonschema:"title=Slippage,description=Fraction the execution price moves against the trader,minimum=0,default=0.001" validate:"gte=0,lt=1"`
	Warmup         int                        `yaml:"warmup" json:"warmup" jsonschema:"title=Warmup,description=Bars replayed before the first step so indicators can stabilise,minimum=1,default=20" validate:"gte=1"`
	BuyFraction    float64                    `yaml:"buy_fraction" json:"buy_fraction" jsonschema:"title=Buy Fraction,description=Fraction of current cash committed by a BUY before the advisory multiplier,default=0.2" validate:"gt=0,lte=1"`
	SizingMode     SizingMode                 `yaml:"sizing_mode" json:"sizing_mode" jsonschema:"title=Sizing Mode,description=How BUY quantities are computed" validate:"oneof=cash_fraction risk"`
	BaseRiskPct    float64                    `yaml:"base_risk_pct" json:"base_risk_pct" jsonschema:"title=Base Risk,description=Fraction of equity risked per trade in risk sizing mode,default=0.01" validate:"gt=0,lt=1"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional first date on which trades may be placed"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional last date of the simulation"`
	// NewsLookbackDays is how far back headlines are gathered for the advisor.
	NewsLookbackDays int             `yaml:"news_lookback_days" json:"news_lookback_days" jsonschema:"title=News Lookback,description=Days of headlines passed to the advisor,default=7" validate:"gte=0"`
	Strategy         strategy.Config `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy,description=Signal generator thresholds"`
	Macro            macro.Config    `yaml:"macro" json:"macro" jsonschema:"title=Macro,description=Regime classification used in risk sizing mode"`
}

// UnmarshalYAML decodes over the defaults so omitted keys keep them.
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		Symbol           string          `yaml:"symbol"`
		Benchmarks       []string        `yaml:"benchmarks"`
		InitialCapital   float64         `yaml:"initial_capital"`
		Slippage         float64         `yaml:"slippage"`
		Warmup           int             `yaml:"warmup"`
		BuyFraction      float64         `yaml:"buy_fraction"`
		SizingMode       SizingMode      `yaml:"sizing_mode"`
		BaseRiskPct      float64         `yaml:"base_risk_pct"`
		StartTime        *time.Time      `yaml:"start_time"`
		EndTime          *time.Time      `yaml:"end_time"`
		NewsLookbackDays int             `yaml:"news_lookback_days"`
		Strategy         strategy.Config `yaml:"strategy"`
		Macro            macro.Config    `yaml:"macro"`
	}

	defaults := EmptyConfig()
	config := Config{
		Symbol:           defaults.Symbol,
		Benchmarks:       defaults.Benchmarks,
		InitialCapital:   defaults.InitialCapital,
		Slippage:         defaults.Slippage,
		Warmup:           defaults.Warmup,
		BuyFraction:      defaults.BuyFraction,
		SizingMode:       defaults.SizingMode,
		BaseRiskPct:      defaults.BaseRiskPct,
		NewsLookbackDays: defaults.NewsLookbackDays,
		Strategy:         defaults.Strategy,
		Macro:            defaults.Macro,
	}

	if err := unmarshal(&config); err != nil {
		return err
	}

	c.Symbol = config.Symbol
	c.Benchmarks = config.Benchmarks
	c.InitialCapital = config.InitialCapital
	c.Slippage = config.Slippage
	c.Warmup = config.Warmup
	c.BuyFraction = config.BuyFraction
	c.SizingMode = config.SizingMode
	c.BaseRiskPct = config.BaseRiskPct
	c.NewsLookbackDays = config.NewsLookbackDays
	c.Strategy = config.Strategy
	c.Macro = config.Macro

	c.StartTime = optional.None[time.Time]()
	if config.StartTime != nil {
		c.StartTime = optional.Some(config.StartTime.UTC())
	}

	c.EndTime = optional.None[time.Time]()
	if config.EndTime != nil {
		c.EndTime = optional.Some(config.EndTime.UTC())
	}

	return nil
}

// Validate checks the struct tags, the nested strategy config and the time range.
func (c BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	if err := c.Strategy.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeBacktestConfigError, "end_time is before start_time")
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t {
			case reflect.TypeOf(optional.Option[time.Time]{}):
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			case reflect.TypeOf(SizingMode("")):
				return &jsonschema.Schema{
					Type:    "string",
					Enum:    AllSizingModes,
					Default: SizingModeCashFraction,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// TestConfig is a zero-slippage config over a fixed window.
func TestConfig(symbol string, startTime time.Time, endTime time.Time) BacktestEngineV1Config {
	config := EmptyConfig()
	config.Symbol = symbol
	config.Slippage = 0
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		Benchmarks:       []string{"QQQ"},
		InitialCapital:   DefaultInitialCapital,
		Slippage:         DefaultSlippage,
		Warmup:           DefaultWarmup,
		BuyFraction:      DefaultBuyFraction,
		SizingMode:       SizingModeCashFraction,
		BaseRiskPct:      sizing.DefaultBaseRiskPct,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		NewsLookbackDays: DefaultNewsLookbackDays,
		Strategy:         strategy.DefaultConfig(),
		Macro:            macro.DefaultConfig(),
	}
}
