package engine

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/stonklabs/mememarket/pkg/util"
)

// Engine drives the simulation clock: on every tick it may fire a news
// event, walks every asset's price, then publishes a snapshot. All mutation
// happens on the single Run goroutine, so ticks are never reentrant.
type Engine struct {
	registry *Registry
	walk     *Walk
	news     *NewsEngine // nil disables headlines
	clock    util.Clock
	interval time.Duration
	logger   *zap.SugaredLogger

	// OnSnapshot receives the per-tick market snapshot. Delivery must be
	// fire-and-forget: the hub buffers per subscriber and drops on overflow,
	// so a slow consumer can never stall the clock.
	OnSnapshot func(Snapshot)

	// OnNews receives headlines after their impact is applied.
	OnNews func(NewsEvent)

	ticks atomic.Int64
}

func New(registry *Registry, walk *Walk, news *NewsEngine, clock util.Clock, interval time.Duration, logger *zap.SugaredLogger) *Engine {
	if clock == nil {
		clock = util.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Engine{
		registry: registry,
		walk:     walk,
		news:     news,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// Ticks reports how many ticks have completed.
func (e *Engine) Ticks() int64 { return e.ticks.Load() }

// Run ticks until the context is cancelled. The ticker is released on exit
// and an in-flight tick always completes, so subscribers never see a partial
// snapshot. Ticking does not depend on any subscriber being attached.
func (e *Engine) Run(ctx context.Context) error {
	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Infow("engine_started",
		"tick_interval_ms", e.interval.Milliseconds(),
		"assets", e.registry.Count(),
		"news_enabled", e.news != nil)

	for {
		select {
		case <-ctx.Done():
			e.logger.Infow("engine_stopped", "ticks", e.ticks.Load())
			return nil
		case <-ticker.Chan():
			e.step()
		}
	}
}

func (e *Engine) step() {
	e.ticks.Add(1)

	if e.news != nil {
		if ev := e.news.Maybe(); ev != nil {
			for sym, impact := range ev.Impact {
				// Impacts on delisted/unknown symbols are skipped, not fatal.
				if err := e.registry.ApplyImpact(sym, impact); err != nil {
					e.logger.Debugw("news_impact_skipped", "symbol", sym, "err", err)
				}
			}
			e.logger.Infow("news_event", "headline", ev.Headline)
			if e.OnNews != nil {
				e.OnNews(*ev)
			}
		}
	}

	for _, a := range e.registry.List() {
		next, pct := e.walk.Next(a.Price)
		if err := e.registry.ApplyTick(a.Symbol, next, pct); err != nil {
			e.logger.Errorw("tick_apply_failed", "symbol", a.Symbol, "err", err)
		}
	}

	if e.OnSnapshot != nil {
		e.OnSnapshot(e.registry.Snapshot(e.clock.Now()))
	}
}
