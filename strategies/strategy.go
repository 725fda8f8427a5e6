// Package strategies holds sample trading policies for the simulator.
package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/daybook/sim"
)

// Config carries the knobs shared by the sample strategies. Each strategy
// reads only the fields it needs.
type Config struct {
	Name    string  `json:"name" yaml:"name"`
	Symbol  string  `json:"symbol" yaml:"symbol"`
	Size    float64 `json:"size" yaml:"size"`
	// Band widens limit prices around the last known price: buys at
	// price*(1+Band), sells at price*(1-Band).
	Band    float64 `json:"band" yaml:"band"`
	// ATR, when positive, measures Band in average true ranges over that
	// many days instead: buys at price+Band*ATR, sells at price-Band*ATR.
	ATR     int     `json:"atr" yaml:"atr"`
	Fast    int     `json:"fast" yaml:"fast"`
	Slow    int     `json:"slow" yaml:"slow"`
	// Average is the crossover average, "sma" (the default) or "ema".
	Average string  `json:"average" yaml:"average"`
	MinADX  float64 `json:"min_adx" yaml:"min_adx"`
}

// Factory builds a strategy from its configuration.
type Factory func(cfg Config) (sim.Strategy, error)

var registry = map[string]Factory{}

func Register(name string, f Factory) {
	registry[strings.ToLower(name)] = f
}

// Names lists registered strategy names.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func StrategyByName(cfg Config) (sim.Strategy, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", cfg.Name, strings.Join(Names(), ", "))
	}
	return f(cfg)
}

func init() {
	Register("noop", func(Config) (sim.Strategy, error) { return Noop{}, nil })
	Register("buy-and-hold", func(cfg Config) (sim.Strategy, error) { return NewBuyAndHold(cfg) })
	Register("sma-cross", func(cfg Config) (sim.Strategy, error) { return NewSMACross(cfg) })
}

func buyLimit(price, band float64) float64  { return price * (1 + band) }
func sellLimit(price, band float64) float64 { return price * (1 - band) }
