package types

// MarketRegime is the macro risk appetite used to scale position risk.
type MarketRegime string

const (
	RegimeRiskOn  MarketRegime = "RISK_ON"
	RegimeNeutral MarketRegime = "NEUTRAL"
	RegimeRiskOff MarketRegime = "RISK_OFF"
)
