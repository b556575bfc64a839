package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is one symbol's entry in a snapshot.
type Quote struct {
	Price         decimal.Decimal
	ChangePercent float64
}

// ChangeString formats the tick delta the way the feed displays it: "+12.34%".
func (q Quote) ChangeString() string {
	return FormatChange(q.ChangePercent)
}

// Snapshot is a read-only projection of the registry at a point in time.
// It is rebuilt from scratch every tick; consumers may hold it as long as
// they like without observing later mutations.
type Snapshot struct {
	Time   time.Time
	Quotes map[string]Quote
}

func FormatChange(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}
