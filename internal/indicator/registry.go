package indicator

import (
	"fmt"
	"sync"

	"github.com/rxtech-lab/stock-sentinel/internal/types"
)

// IndicatorRegistry manages configured indicators by name.
type IndicatorRegistry interface {
	RegisterIndicator(indicator Indicator) error
	GetIndicator(name types.IndicatorType) (Indicator, error)
	ListIndicators() []types.IndicatorType
}

// IndicatorRegistryV1 is a mutex guarded IndicatorRegistry.
type IndicatorRegistryV1 struct {
	indicators map[types.IndicatorType]Indicator
	mu         sync.RWMutex
}

func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		indicators: make(map[types.IndicatorType]Indicator),
	}
}

// NewDefaultRegistry returns a registry holding EMA, RSI and ATR configured
// with the periods in cfg.
func NewDefaultRegistry(cfg Config) (IndicatorRegistry, error) {
	registry := NewIndicatorRegistry()

	configured := []struct {
		indicator Indicator
		period    int
	}{
		{NewEMA(), cfg.EMAPeriod},
		{NewRSI(), cfg.RSIPeriod},
		{NewATR(), cfg.ATRPeriod},
	}

	for _, c := range configured {
		if err := c.indicator.Config(c.period); err != nil {
			return nil, fmt.Errorf("%s: %w", c.indicator.Name(), err)
		}

		if err := registry.RegisterIndicator(c.indicator); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

func (r *IndicatorRegistryV1) RegisterIndicator(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := indicator.Name()
	if _, exists := r.indicators[name]; exists {
		return fmt.Errorf("RegisterIndicator: indicator with name %s already registered", name)
	}

	r.indicators[name] = indicator

	return nil
}

func (r *IndicatorRegistryV1) GetIndicator(name types.IndicatorType) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[name]
	if !exists {
		return nil, fmt.Errorf("GetIndicator: indicator with name %s not found", name)
	}

	return indicator, nil
}

func (r *IndicatorRegistryV1) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.indicators))
	for name := range r.indicators {
		names = append(names, name)
	}

	return names
}
