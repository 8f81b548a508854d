package engine

import (
	"fmt"
	"path/filepath"
)

// getResultFolder returns <results>/<symbol>/<start>_<end>, with "all" for an
// open bound, or <results>/<symbol> when neither bound is set.
func getResultFolder(b *BacktestEngineV1) string {
	symbolFolder := filepath.Join(b.resultsFolder, b.config.Symbol)

	if b.config.StartTime.IsNone() && b.config.EndTime.IsNone() {
		return symbolFolder
	}

	startTimeStr := "all"
	endTimeStr := "all"

	if b.config.StartTime.IsSome() {
		startTimeStr = b.config.StartTime.Unwrap().Format("20060102")
	}

	if b.config.EndTime.IsSome() {
		endTimeStr = b.config.EndTime.Unwrap().Format("20060102")
	}

	return filepath.Join(symbolFolder, fmt.Sprintf("%s_%s", startTimeStr, endTimeStr))
}
