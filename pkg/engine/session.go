package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session bundles one trader's ledger with a handle on the shared registry.
// All order processing happens under the session mutex, so price resolution,
// validation and application are atomic with respect to each other. A price
// tick can land between two orders but never inside one.
type Session struct {
	id        string
	createdAt time.Time

	mu       sync.Mutex
	ledger   *Ledger
	registry *Registry

	maxQty    int64
	strictQty bool
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) Balance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Balance()
}

func (s *Session) Holding(symbol string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Holding(symbol)
}

func (s *Session) Holdings() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Holdings()
}

// PortfolioValue prices all holdings at current registry prices. Holdings in
// symbols the registry no longer knows are valued at zero, not treated as an
// integrity error.
func (s *Session) PortfolioValue() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for sym, qty := range s.ledger.Holdings() {
		a, err := s.registry.Get(sym)
		if err != nil {
			continue
		}
		total = total.Add(a.Price.Mul(decimal.NewFromInt(qty)))
	}
	return total
}

// SubmitOrder resolves the current price, normalizes the quantity and
// delegates to the ledger. Rejections leave the ledger untouched.
func (s *Session) SubmitOrder(o Order) (*Receipt, error) {
	qty, err := s.normalizeQuantity(o.Quantity)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	asset, err := s.registry.Get(o.Symbol)
	if err != nil {
		return nil, err
	}

	switch o.Side {
	case SideBuy:
		if err := s.ledger.ApplyBuy(o.Symbol, qty, asset.Price); err != nil {
			return nil, err
		}
	case SideSell:
		if err := s.ledger.ApplySell(o.Symbol, qty, asset.Price); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid side %d", o.Side)
	}

	return &Receipt{
		OrderID:  uuid.NewString(),
		Side:     o.Side,
		Symbol:   o.Symbol,
		Quantity: qty,
		Price:    asset.Price,
		Cost:     asset.Price.Mul(decimal.NewFromInt(qty)),
		Balance:  s.ledger.Balance(),
		Holding:  s.ledger.Holding(o.Symbol),
		Time:     time.Now(),
	}, nil
}

// normalizeQuantity clamps to [1, maxQty] in lenient mode: the browser UI
// sends whatever is in the input box, and a bad value should not block the
// trade. Strict mode rejects instead.
func (s *Session) normalizeQuantity(qty int64) (int64, error) {
	if qty >= 1 && qty <= s.maxQty {
		return qty, nil
	}
	if s.strictQty {
		return 0, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidQuantity, qty, s.maxQty)
	}
	if qty < 1 {
		return 1, nil
	}
	return s.maxQty, nil
}

// SessionManager issues and tracks sessions against one shared registry.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	registry    *Registry
	initialCash decimal.Decimal
	maxQty      int64
	strictQty   bool
}

func NewSessionManager(registry *Registry, initialCash decimal.Decimal, maxQty int64, strictQty bool) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		registry:    registry,
		initialCash: initialCash,
		maxQty:      maxQty,
		strictQty:   strictQty,
	}
}

// Create starts a fresh session with the configured initial stake.
func (m *SessionManager) Create() *Session {
	s := &Session{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		ledger:    NewLedger(m.initialCash),
		registry:  m.registry,
		maxQty:    m.maxQty,
		strictQty: m.strictQty,
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s
}

func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return s, nil
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
