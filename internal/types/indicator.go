package types

type IndicatorType string

const (
	IndicatorTypeEMA IndicatorType = "ema"
	IndicatorTypeRSI IndicatorType = "rsi"
	IndicatorTypeATR IndicatorType = "atr"
)
