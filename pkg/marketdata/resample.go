package marketdata

import (
	"time"

	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// WeekEnding returns the Friday that closes the week containing t, at
// midnight UTC. Saturdays and Sundays roll forward to the next Friday.
func WeekEnding(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(time.Friday) - int(day.Weekday()) + 7) % 7

	return day.AddDate(0, 0, offset)
}

// ResampleWeekly aggregates ascending daily bars into weeks ending on
// Friday: first open, highest high, lowest low, last close, summed volume.
// Each weekly bar is stamped with its Friday.
func ResampleWeekly(daily []types.MarketData) []types.MarketData {
	var weekly []types.MarketData

	for _, bar := range daily {
		label := WeekEnding(bar.Time)

		n := len(weekly)
		if n > 0 && weekly[n-1].Time.Equal(label) {
			w := &weekly[n-1]
			w.High = max(w.High, bar.High)
			w.Low = min(w.Low, bar.Low)
			w.Close = bar.Close
			w.Volume += bar.Volume

			continue
		}

		weekly = append(weekly, types.MarketData{
			Symbol: bar.Symbol,
			Time:   label,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}

	return weekly
}
