package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Asset is the live price state of one tradable symbol.
type Asset struct {
	Symbol string
	Price  decimal.Decimal
	// ChangePercent is the percentage delta applied on the last tick. When a
	// floor clamp fired it reports the drawn percent, not the realized move;
	// the feed has always displayed the raw draw.
	ChangePercent float64
}

// Registry holds the current price/change pair for every configured symbol.
// Assets are created at initialization and never delisted during a session;
// only the simulation loop mutates them.
type Registry struct {
	mu      sync.RWMutex
	assets  map[string]*Asset
	symbols []string // catalog order, stable across List/Snapshot
	floor   decimal.Decimal
}

// NewRegistry seeds one asset per catalog entry. Symbols are ordered
// alphabetically so snapshots and listings are deterministic.
func NewRegistry(catalog map[string]decimal.Decimal, floor decimal.Decimal) *Registry {
	r := &Registry{
		assets: make(map[string]*Asset, len(catalog)),
		floor:  floor,
	}
	for sym, seed := range catalog {
		price := seed
		if price.Sign() <= 0 {
			price = floor
		}
		r.assets[sym] = &Asset{Symbol: sym, Price: price}
		r.symbols = append(r.symbols, sym)
	}
	sort.Strings(r.symbols)
	return r
}

// Get returns a copy of the asset's current state.
func (r *Registry) Get(symbol string) (Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assets[symbol]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return *a, nil
}

// List returns copies of all assets in catalog order.
func (r *Registry) List() []Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Asset, 0, len(r.symbols))
	for _, sym := range r.symbols {
		out = append(out, *r.assets[sym])
	}
	return out
}

func (r *Registry) Exists(symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.assets[symbol]
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets)
}

// ApplyTick installs the next price for a symbol. It is the only price
// mutation path used by the simulation loop; the new value is visible to
// reads immediately. Prices at or below zero are clamped to the floor so no
// asset ever becomes untradeable.
func (r *Registry) ApplyTick(symbol string, newPrice decimal.Decimal, changePercent float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	if newPrice.Sign() <= 0 {
		newPrice = r.floor
	}
	a.Price = newPrice
	a.ChangePercent = changePercent
	return nil
}

// ApplyImpact multiplies a symbol's price by (1 + impact), used by news
// events. The last tick's change percent is left alone; the headline itself
// carries the impact to subscribers.
func (r *Registry) ApplyImpact(symbol string, impact float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	next := a.Price.Mul(decimal.NewFromFloat(1 + impact))
	if next.Sign() <= 0 {
		next = r.floor
	}
	a.Price = next
	return nil
}

// Snapshot projects the registry into an immutable per-tick view.
func (r *Registry) Snapshot(now time.Time) Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	quotes := make(map[string]Quote, len(r.assets))
	for sym, a := range r.assets {
		quotes[sym] = Quote{Price: a.Price, ChangePercent: a.ChangePercent}
	}
	return Snapshot{Time: now, Quotes: quotes}
}
