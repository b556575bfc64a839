package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(map[string]decimal.Decimal{
		"DOGE": d(t, "4.20"),
		"GME":  d(t, "185.30"),
	}, decimal.NewFromInt(1))
}

func TestRegistryGet(t *testing.T) {
	r := newTestRegistry(t)

	a, err := r.Get("DOGE")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !a.Price.Equal(d(t, "4.20")) {
		t.Errorf("price = %s, want 4.20", a.Price)
	}
	if a.ChangePercent != 0 {
		t.Errorf("seed change = %f, want 0", a.ChangePercent)
	}
}

func TestRegistryUnknownSymbol(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Get("AMC")
	if !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("err = %v, want ErrUnknownSymbol", err)
	}
	if err := r.ApplyTick("AMC", d(t, "1"), 0); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("ApplyTick err = %v, want ErrUnknownSymbol", err)
	}
}

func TestRegistryApplyTickVisibleImmediately(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.ApplyTick("DOGE", d(t, "5.00"), 19.05); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	a, _ := r.Get("DOGE")
	if !a.Price.Equal(d(t, "5.00")) {
		t.Errorf("price = %s, want 5.00", a.Price)
	}
	if a.ChangePercent != 19.05 {
		t.Errorf("change = %f, want 19.05", a.ChangePercent)
	}
}

func TestRegistryApplyTickClampsToFloor(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.ApplyTick("DOGE", d(t, "-3"), -600); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	a, _ := r.Get("DOGE")
	if !a.Price.Equal(decimal.NewFromInt(1)) {
		t.Errorf("price = %s, want floor 1", a.Price)
	}
	// The quirk: the drawn percent survives even though the move was clamped.
	if a.ChangePercent != -600 {
		t.Errorf("change = %f, want -600", a.ChangePercent)
	}
}

func TestRegistryReadsAreIdempotentBetweenTicks(t *testing.T) {
	r := newTestRegistry(t)
	r.ApplyTick("GME", d(t, "200"), 7.93)

	first, _ := r.Get("GME")
	for i := 0; i < 5; i++ {
		again, _ := r.Get("GME")
		if !again.Price.Equal(first.Price) || again.ChangePercent != first.ChangePercent {
			t.Fatalf("read %d differs: %+v vs %+v", i, again, first)
		}
	}
}

func TestRegistrySnapshotDoesNotMutate(t *testing.T) {
	r := newTestRegistry(t)

	snap := r.Snapshot(time.Now())
	snap.Quotes["DOGE"] = Quote{Price: d(t, "999"), ChangePercent: 500}

	a, _ := r.Get("DOGE")
	if !a.Price.Equal(d(t, "4.20")) {
		t.Errorf("snapshot mutation leaked into registry: %s", a.Price)
	}

	// Emitting again yields the unmodified state.
	again := r.Snapshot(time.Now())
	if !again.Quotes["DOGE"].Price.Equal(d(t, "4.20")) {
		t.Errorf("second snapshot price = %s, want 4.20", again.Quotes["DOGE"].Price)
	}
}

func TestRegistryListIsStableAndOrdered(t *testing.T) {
	r := newTestRegistry(t)

	assets := r.List()
	if len(assets) != 2 {
		t.Fatalf("len = %d, want 2", len(assets))
	}
	if assets[0].Symbol != "DOGE" || assets[1].Symbol != "GME" {
		t.Errorf("order = [%s %s], want [DOGE GME]", assets[0].Symbol, assets[1].Symbol)
	}
}

func TestRegistryApplyImpact(t *testing.T) {
	r := newTestRegistry(t)

	if err := r.ApplyImpact("GME", 1.5); err != nil {
		t.Fatalf("impact failed: %v", err)
	}

	a, _ := r.Get("GME")
	if !a.Price.Equal(d(t, "463.25")) {
		t.Errorf("price = %s, want 463.25", a.Price)
	}

	// A wipeout impact clamps to the floor instead of zeroing the price.
	if err := r.ApplyImpact("GME", -1); err != nil {
		t.Fatalf("impact failed: %v", err)
	}
	a, _ = r.Get("GME")
	if !a.Price.Equal(decimal.NewFromInt(1)) {
		t.Errorf("price = %s, want floor 1", a.Price)
	}
}

func TestRegistryZeroSeedGetsFloor(t *testing.T) {
	r := NewRegistry(map[string]decimal.Decimal{"NIL": decimal.Zero}, decimal.NewFromInt(1))

	a, _ := r.Get("NIL")
	if !a.Price.Equal(decimal.NewFromInt(1)) {
		t.Errorf("price = %s, want floor 1", a.Price)
	}
}
