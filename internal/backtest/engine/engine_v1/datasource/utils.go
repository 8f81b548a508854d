package datasource

import (
	"fmt"
	"slices"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// filterRange returns the bars inside the optional inclusive bounds.
func filterRange(bars []types.MarketData, start optional.Option[time.Time], end optional.Option[time.Time]) []types.MarketData {
	filtered := make([]types.MarketData, 0, len(bars))

	for _, bar := range bars {
		if start.IsSome() && bar.Time.Before(start.Unwrap()) {
			continue
		}

		if end.IsSome() && bar.Time.After(end.Unwrap()) {
			continue
		}

		filtered = append(filtered, bar)
	}

	return filtered
}

func sortByTime(bars []types.MarketData) {
	slices.SortStableFunc(bars, func(a, b types.MarketData) int {
		return a.Time.Compare(b.Time)
	})
}

func formatBound(bound optional.Option[time.Time]) string {
	if bound.IsNone() {
		return "-"
	}

	return bound.Unwrap().UTC().Format(time.RFC3339)
}

func seriesKey(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) string {
	return fmt.Sprintf("%s|%s|%s", symbol, formatBound(start), formatBound(end))
}
