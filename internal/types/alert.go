package types

// AlertKind names one anomaly the watchdog looks for.
type AlertKind string

const (
	AlertFlashCrash  AlertKind = "flash_crash"
	AlertVolumeSpike AlertKind = "volume_spike"
	AlertBreakout    AlertKind = "breakout"
	AlertOversold    AlertKind = "oversold"
)

// Alert lists the anomalies found on the last daily bar of a symbol.
type Alert struct {
	Symbol    string      `yaml:"symbol" json:"symbol"`
	Price     float64     `yaml:"price" json:"price"`
	ChangePct float64     `yaml:"change_pct" json:"change_pct"`
	Kinds     []AlertKind `yaml:"kinds" json:"kinds"`
	Messages  []string    `yaml:"messages" json:"messages"`
}

// Add records one anomaly.
func (a *Alert) Add(kind AlertKind, message string) {
	a.Kinds = append(a.Kinds, kind)
	a.Messages = append(a.Messages, message)
}
