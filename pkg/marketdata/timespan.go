package marketdata

import "github.com/polygon-io/client-go/rest/models"

// Timespan is the bar size stored by the download command. Both sizes are
// fetched as daily bars; weekly files are resampled to Friday closes.
type Timespan string

const (
	TimespanOneDay  Timespan = "1d"
	TimespanOneWeek Timespan = "1w"
)

func (t Timespan) Multiplier() int {
	return 1
}

// Timespan returns the provider timespan to fetch.
func (t Timespan) Timespan() models.Timespan {
	return models.Day
}

// Weekly reports whether fetched bars must be resampled before storage.
func (t Timespan) Weekly() bool {
	return t == TimespanOneWeek
}

func (t Timespan) Valid() bool {
	return t == TimespanOneDay || t == TimespanOneWeek
}
