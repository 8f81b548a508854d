package strategy

import (
	"fmt"

	"github.com/rxtech-lab/stock-sentinel/internal/indicator"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// WatchdogConfig holds the anomaly thresholds applied to daily bars.
type WatchdogConfig struct {
	CrashPct       float64
	BreakoutPct    float64
	VolumeRatio    float64
	VolumeLookback int
	OversoldRSI    float64
	RSIPeriod      int
	MinBars        int
}

func DefaultWatchdogConfig() WatchdogConfig {
	return WatchdogConfig{
		CrashPct:       -6.0,
		BreakoutPct:    6.0,
		VolumeRatio:    2.5,
		VolumeLookback: 5,
		OversoldRSI:    30,
		RSIPeriod:      14,
		MinBars:        14,
	}
}

// Watchdog flags abnormal daily moves between weekly signals.
type Watchdog struct {
	config WatchdogConfig
	rsi    indicator.Indicator
}

func NewWatchdog(config WatchdogConfig) (*Watchdog, error) {
	rsi := indicator.NewRSI()
	if err := rsi.Config(config.RSIPeriod); err != nil {
		return nil, err
	}

	return &Watchdog{config: config, rsi: rsi}, nil
}

// Check returns nil when the series is too short or nothing is abnormal.
func (w *Watchdog) Check(symbol string, bars []types.MarketData) *types.Alert {
	if len(bars) < w.config.MinBars || len(bars) < 2 {
		return nil
	}

	curr := bars[len(bars)-1]
	prev := bars[len(bars)-2]

	changePct := (curr.Close - prev.Close) / prev.Close * 100
	volRatio := w.volumeRatio(bars)
	rsi := w.rsi.Calculate(bars)[len(bars)-1]

	alert := &types.Alert{Symbol: symbol, Price: curr.Close, ChangePct: changePct}

	if changePct < w.config.CrashPct {
		alert.Add(types.AlertFlashCrash, fmt.Sprintf("Flash Crash Alert: dropped %.2f%%", changePct))
	}

	if volRatio > w.config.VolumeRatio {
		alert.Add(types.AlertVolumeSpike, fmt.Sprintf("Volume Spike: %.1fx average volume", volRatio))
	}

	if changePct > w.config.BreakoutPct {
		alert.Add(types.AlertBreakout, fmt.Sprintf("Breakout: gained %.2f%%", changePct))
	}

	if rsi < w.config.OversoldRSI {
		alert.Add(types.AlertOversold, fmt.Sprintf("Oversold Zone: RSI is %.1f", rsi))
	}

	if len(alert.Kinds) == 0 {
		return nil
	}

	return alert
}

// volumeRatio compares the last volume with the mean of the preceding
// VolumeLookback volumes. Zero when that mean is zero.
func (w *Watchdog) volumeRatio(bars []types.MarketData) float64 {
	last := len(bars) - 1
	from := max(last-w.config.VolumeLookback, 0)

	sum := 0.0
	for _, bar := range bars[from:last] {
		sum += bar.Volume
	}

	if last == from || sum == 0 {
		return 0
	}

	return bars[last].Volume / (sum / float64(last-from))
}
