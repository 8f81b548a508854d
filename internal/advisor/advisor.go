// Package advisor asks an external language model for a second opinion on
// a signal before the engine acts on it.
package advisor

import (
	"context"
	"time"

	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// AdvisoryContext is the point-in-time information handed to the advisor.
// News must be limited to items published on or before Date.
type AdvisoryContext struct {
	Date time.Time
	News []string
}

// Advisor evaluates a BUY, SELL or PROFIT signal. An error means the
// advisor could not answer; the engine then proceeds as if it agreed.
type Advisor interface {
	Evaluate(ctx context.Context, symbol string, signal types.Signal, advisoryCtx AdvisoryContext) (types.Advice, error)
}
