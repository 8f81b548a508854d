package writer

import (
	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// MarketDataWriter persists downloaded bars.
type MarketDataWriter interface {
	// Initialize prepares the destination.
	Initialize() error
	// Write buffers a single bar.
	Write(data types.MarketData) error
	// Finalize flushes the buffered bars and returns where they were written.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	GetOutputPath() string
}
