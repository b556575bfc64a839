package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Ledger owns a trader's cash balance and per-symbol holdings.
//
// Invariants: cash never goes negative and no holding ever goes negative.
// Rejected operations mutate nothing, so there is no rollback path. The
// ledger is not self-locking; the owning Session serializes access so the
// read-price-validate-mutate sequence is atomic as a whole.
type Ledger struct {
	cash     decimal.Decimal
	holdings map[string]int64
}

func NewLedger(initialCash decimal.Decimal) *Ledger {
	return &Ledger{
		cash:     initialCash,
		holdings: make(map[string]int64),
	}
}

func (l *Ledger) Balance() decimal.Decimal { return l.cash }

// Holding returns the position for a symbol; unknown symbols are zero, keys
// are never required to pre-exist.
func (l *Ledger) Holding(symbol string) int64 { return l.holdings[symbol] }

// Holdings returns a copy of all non-zero positions.
func (l *Ledger) Holdings() map[string]int64 {
	out := make(map[string]int64, len(l.holdings))
	for sym, qty := range l.holdings {
		if qty > 0 {
			out[sym] = qty
		}
	}
	return out
}

func (l *Ledger) CanAfford(cost decimal.Decimal) bool {
	return l.cash.GreaterThanOrEqual(cost)
}

// ApplyBuy debits quantity*pricePerUnit and credits the holding. Both fields
// move together or not at all.
func (l *Ledger) ApplyBuy(symbol string, quantity int64, pricePerUnit decimal.Decimal) error {
	cost := pricePerUnit.Mul(decimal.NewFromInt(quantity))
	if !l.CanAfford(cost) {
		return fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, cost, l.cash)
	}
	l.cash = l.cash.Sub(cost)
	l.holdings[symbol] += quantity
	return nil
}

// ApplySell credits quantity*pricePerUnit and debits the holding.
func (l *Ledger) ApplySell(symbol string, quantity int64, pricePerUnit decimal.Decimal) error {
	if l.holdings[symbol] < quantity {
		return fmt.Errorf("%w: want %d %s, have %d", ErrInsufficientHoldings, quantity, symbol, l.holdings[symbol])
	}
	proceeds := pricePerUnit.Mul(decimal.NewFromInt(quantity))
	l.cash = l.cash.Add(proceeds)
	l.holdings[symbol] -= quantity
	return nil
}

// Validate checks the ledger invariants. Used by tests after every operation.
func (l *Ledger) Validate() error {
	if l.cash.Sign() < 0 {
		return fmt.Errorf("negative balance: %s", l.cash)
	}
	for sym, qty := range l.holdings {
		if qty < 0 {
			return fmt.Errorf("negative holding for %s: %d", sym, qty)
		}
	}
	return nil
}
