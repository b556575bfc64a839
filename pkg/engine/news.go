package engine

import (
	"math/rand"
	"time"
)

// NewsEvent is a market-moving headline. Impact maps symbols to a price
// multiplier delta: +0.25 means the price jumps 25%.
type NewsEvent struct {
	Headline string
	Impact   map[string]float64
}

// DefaultNewsEvents is the stock table of headlines the game ships with.
func DefaultNewsEvents() []NewsEvent {
	return []NewsEvent{
		{Headline: "Elon tweets about DOGE!", Impact: map[string]float64{"DOGE": 0.25}},
		{Headline: "Reddit buys GME", Impact: map[string]float64{"GME": 1.5}},
		{Headline: "NFT market crashes", Impact: map[string]float64{"SHIB": -0.4}},
	}
}

// newsChance is the per-tick probability of a headline firing.
const newsChance = 0.05

// NewsEngine randomly triggers headlines on the simulation clock.
type NewsEngine struct {
	rng    *rand.Rand
	events []NewsEvent
}

func NewNewsEngine(rng *rand.Rand, events []NewsEvent) *NewsEngine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &NewsEngine{rng: rng, events: events}
}

// Maybe rolls for a headline. Returns nil on the 95% of ticks where nothing
// happens, or when no events are configured.
func (n *NewsEngine) Maybe() *NewsEvent {
	if len(n.events) == 0 || n.rng.Float64() >= newsChance {
		return nil
	}
	ev := n.events[n.rng.Intn(len(n.events))]
	return &ev
}
