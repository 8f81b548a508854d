package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// DataGenerator produces reproducible bar series for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how market data is generated.
type GeneratorConfig struct {
	Symbol string
	// StartTime is the time of the first bar
	StartTime time.Time
	// Interval is the spacing of the bars
	Interval time.Duration
	Count    int
	// InitialPrice is the first open
	InitialPrice float64
	// Volatility is the standard deviation of the per-bar return
	Volatility float64
	// Drift is added to every per-bar return
	Drift          float64
	VolumeBase     float64
	VolumeVariance float64
}

// DefaultConfig is two years of weekly bars ending on Fridays.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "TEST",
		StartTime:      time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC),
		Interval:       7 * 24 * time.Hour,
		Count:          104,
		InitialPrice:   100.0,
		Volatility:     0.03,
		Drift:          0.0,
		VolumeBase:     1_000_000,
		VolumeVariance: 0.3,
	}
}

// Generate follows a geometric Brownian motion with a Box-Muller normal draw
// per bar.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.MarketData {
	data := make([]types.MarketData, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		close := open * (1 + config.Volatility*z + config.Drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension
		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		data[i] = types.MarketData{
			Symbol: config.Symbol,
			Time:   currentTime,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(close, 4),
			Volume: roundToDecimals(volume, 2),
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return data
}

// BarsFromCloses builds weekly bars from a close path. Open is the previous
// close, and high/low sit 1% outside the open-close range.
func BarsFromCloses(symbol string, start time.Time, closes ...float64) []types.MarketData {
	bars := make([]types.MarketData, len(closes))

	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}

		bars[i] = types.MarketData{
			Symbol: symbol,
			Time:   start.AddDate(0, 0, 7*i),
			Open:   open,
			High:   math.Max(open, c) * 1.01,
			Low:    math.Min(open, c) * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}

	return bars
}

// ConstantBars is a flat series where open, high, low and close all equal price.
func ConstantBars(symbol string, start time.Time, count int, price float64) []types.MarketData {
	bars := make([]types.MarketData, count)
	for i := range bars {
		bars[i] = types.MarketData{
			Symbol: symbol,
			Time:   start.AddDate(0, 0, 7*i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1000,
		}
	}

	return bars
}

func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
