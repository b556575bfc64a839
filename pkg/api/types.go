package api

// Wire types for REST endpoints and WebSocket messages

// ==============================
// REST Response Types
// ==============================

// AssetInfo is one symbol's current quote.
type AssetInfo struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Change string  `json:"change"` // "+X.XX%" since the previous tick
}

// SessionInfo is the bootstrap/read view of a trading session.
type SessionInfo struct {
	ID             string           `json:"id"`
	Balance        float64          `json:"balance"`
	Holdings       map[string]int64 `json:"holdings"`
	PortfolioValue float64          `json:"portfolioValue"`
	CreatedAt      int64            `json:"createdAt"` // Unix milliseconds
}

// Notice is a transient, user-facing message. The presentation layer is
// expected to hide it after TTLMs.
type Notice struct {
	Message string `json:"message"`
	TTLMs   int64  `json:"ttlMs"`
}

// OrderResponse is returned for every order submission: an applied
// confirmation or a rejection with a machine-readable reason.
type OrderResponse struct {
	Status   string  `json:"status"` // "filled" | "rejected"
	OrderID  string  `json:"orderId,omitempty"`
	Side     string  `json:"side"`
	Symbol   string  `json:"symbol"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price,omitempty"`
	Cost     float64 `json:"cost,omitempty"`
	Balance  float64 `json:"balance"`
	Holding  int64   `json:"holding"`
	Reason   string  `json:"reason,omitempty"` // insufficient_funds | insufficient_holdings | unknown_symbol | invalid_quantity
	Notice   *Notice `json:"notice,omitempty"`
}

// ErrorResponse is returned for all transport-level errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// REST Request Types
// ==============================

// SubmitOrderRequest is the payload for POST /api/v1/sessions/{id}/orders.
// Quantity is loosely typed: the browser UI sends whatever the input box
// holds, and lenient mode coerces garbage to 1 instead of blocking the trade.
type SubmitOrderRequest struct {
	Side     string      `json:"side"`
	Symbol   string      `json:"symbol"`
	Quantity interface{} `json:"quantity"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by clients to manage channel subscriptions.
// Channels: "market", "news", "session:<id>".
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// AssetQuote is one symbol's entry in a market update.
type AssetQuote struct {
	Price  float64 `json:"price"`
	Change string  `json:"change"`
}

// MarketUpdate is broadcast on every tick: the full snapshot, not a delta.
type MarketUpdate struct {
	Type      string                `json:"type"` // "market_update"
	Data      map[string]AssetQuote `json:"data"`
	Timestamp int64                 `json:"timestamp"` // Unix milliseconds
}

// NewsUpdate is broadcast when a headline fires.
type NewsUpdate struct {
	Type      string             `json:"type"` // "news"
	Headline  string             `json:"headline"`
	Impact    map[string]float64 `json:"impact"`
	Timestamp int64              `json:"timestamp"`
}

// OrderUpdate mirrors an order confirmation onto the session's channel so a
// second tab or device sees the trade.
type OrderUpdate struct {
	Type      string  `json:"type"` // "order"
	SessionID string  `json:"sessionId"`
	OrderID   string  `json:"orderId"`
	Side      string  `json:"side"`
	Symbol    string  `json:"symbol"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
	Balance   float64 `json:"balance"`
	Holding   int64   `json:"holding"`
	Timestamp int64   `json:"timestamp"`
}
