package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseSide accepts the wire spelling of a side, case-insensitively.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	default:
		return 0, fmt.Errorf("invalid side %q", s)
	}
}

// Order is an ephemeral value object: consumed by SubmitOrder, never stored.
type Order struct {
	Side     Side
	Symbol   string
	Quantity int64
}

// Receipt describes an applied order. Balance and Holding are the
// post-application values for the session and symbol.
type Receipt struct {
	OrderID  string
	Side     Side
	Symbol   string
	Quantity int64
	Price    decimal.Decimal
	Cost     decimal.Decimal
	Balance  decimal.Decimal
	Holding  int64
	Time     time.Time
}
