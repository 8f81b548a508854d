package strategy

import (
	"testing"
	"time"

	"github.com/rxtech-lab/stock-sentinel/internal/types"
	"github.com/rxtech-lab/stock-sentinel/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchdog(t *testing.T) {
	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	w, err := NewWatchdog(DefaultWatchdogConfig())
	require.NoError(t, err)

	t.Run("short series is ignored", func(t *testing.T) {
		assert.Nil(t, w.Check("ALAB", mocks.BarsFromCloses("ALAB", start, 1, 2, 3)))
	})

	t.Run("quiet series has no alert", func(t *testing.T) {
		closes := []float64{100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 101}
		assert.Nil(t, w.Check("ALAB", mocks.BarsFromCloses("ALAB", start, closes...)))
	})

	t.Run("crash with volume spike after a flat run", func(t *testing.T) {
		bars := mocks.ConstantBars("ALAB", start, 20, 100)
		bars[19].Close = 90
		bars[19].Volume = 5000

		alert := w.Check("ALAB", bars)
		require.NotNil(t, alert)
		// the only move is a loss, so RSI reads 0
		assert.Equal(t, []types.AlertKind{types.AlertFlashCrash, types.AlertVolumeSpike, types.AlertOversold}, alert.Kinds)
		assert.InDelta(t, -10.0, alert.ChangePct, 1e-9)
		assert.Len(t, alert.Messages, 3)
	})

	t.Run("breakout", func(t *testing.T) {
		bars := mocks.ConstantBars("ALAB", start, 20, 100)
		bars[19].Close = 110

		alert := w.Check("ALAB", bars)
		require.NotNil(t, alert)
		assert.Contains(t, alert.Kinds, types.AlertBreakout)
		assert.NotContains(t, alert.Kinds, types.AlertOversold)
	})

	t.Run("steady decline is oversold", func(t *testing.T) {
		closes := make([]float64, 20)
		for i := range closes {
			closes[i] = 100 - float64(i)
		}

		alert := w.Check("ALAB", mocks.BarsFromCloses("ALAB", start, closes...))
		require.NotNil(t, alert)
		assert.Equal(t, []types.AlertKind{types.AlertOversold}, alert.Kinds)
	})
}
