package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/stonklabs/mememarket/pkg/engine"
)

// noticeTTL is how long the UI shows an insufficient-funds notice.
const noticeTTL = 3 * time.Second

// Server exposes the engine over REST and WebSocket: quotes and session
// state are reads, order submission is the engine's single write entry
// point, and the hub feeds subscribed presentation layers every tick.
type Server struct {
	registry  *engine.Registry
	sessions  *engine.SessionManager
	router    *mux.Router
	hub       *Hub
	journal   *os.File // JSON-lines order journal
	strictQty bool
}

// NewServer wires routes and opens the order journal. A journal that cannot
// be opened disables journaling but never blocks trading.
func NewServer(registry *engine.Registry, sessions *engine.SessionManager, journalPath string, strictQty bool) *Server {
	var journal *os.File
	if journalPath != "" {
		os.MkdirAll(filepath.Dir(journalPath), 0755)
		f, err := os.OpenFile(journalPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[api] WARNING: failed to open order journal %s: %v", journalPath, err)
		} else {
			journal = f
			log.Printf("[api] order journal: %s", journalPath)
		}
	}

	s := &Server{
		registry:  registry,
		sessions:  sessions,
		router:    mux.NewRouter(),
		hub:       NewHub(),
		journal:   journal,
		strictQty: strictQty,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Market endpoints
	api.HandleFunc("/assets", s.handleListAssets).Methods("GET")
	api.HandleFunc("/assets/{symbol}", s.handleGetAsset).Methods("GET")

	// Session endpoints
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}/orders", s.handleSubmitOrder).Methods("POST")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the hub and blocks serving HTTP.
func (s *Server) Start(addr string, allowedOrigins []string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	log.Printf("[api] server starting on %s", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets := s.registry.List()

	response := make([]AssetInfo, len(assets))
	for i, a := range assets {
		response[i] = AssetInfo{
			Symbol: a.Symbol,
			Price:  a.Price.InexactFloat64(),
			Change: engine.FormatChange(a.ChangePercent),
		}
	}

	respondJSON(w, response)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	a, err := s.registry.Get(vars["symbol"])
	if err != nil {
		respondError(w, http.StatusNotFound, "asset not found", err.Error())
		return
	}

	respondJSON(w, AssetInfo{
		Symbol: a.Symbol,
		Price:  a.Price.InexactFloat64(),
		Change: engine.FormatChange(a.ChangePercent),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	log.Printf("[api] session created: %s (total: %d)", sess.ID(), s.sessions.Count())
	respondJSON(w, sessionInfo(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	sess, err := s.sessions.Get(vars["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found", err.Error())
		return
	}

	respondJSON(w, sessionInfo(sess))
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	sess, err := s.sessions.Get(vars["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found", err.Error())
		return
	}

	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	side, err := engine.ParseSide(req.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}

	qty, ok := coerceQuantity(req.Quantity)
	if !ok && s.strictQty {
		respondError(w, http.StatusBadRequest, "invalid quantity", "quantity must be a positive integer")
		return
	}

	order := engine.Order{Side: side, Symbol: req.Symbol, Quantity: qty}
	receipt, err := sess.SubmitOrder(order)
	if err != nil {
		s.respondRejection(w, sess, order, err)
		return
	}

	log.Printf("[api] order filled: session=%s %s %d %s @ %s",
		sess.ID(), receipt.Side, receipt.Quantity, receipt.Symbol, receipt.Price)

	s.logOrder("ORDER_FILLED", map[string]interface{}{
		"session":  sess.ID(),
		"order_id": receipt.OrderID,
		"side":     receipt.Side.String(),
		"symbol":   receipt.Symbol,
		"quantity": receipt.Quantity,
		"price":    receipt.Price.String(),
		"cost":     receipt.Cost.String(),
		"balance":  receipt.Balance.String(),
	})

	s.BroadcastReceipt(sess.ID(), receipt)

	respondJSON(w, OrderResponse{
		Status:   "filled",
		OrderID:  receipt.OrderID,
		Side:     receipt.Side.String(),
		Symbol:   receipt.Symbol,
		Quantity: receipt.Quantity,
		Price:    receipt.Price.InexactFloat64(),
		Cost:     receipt.Cost.InexactFloat64(),
		Balance:  receipt.Balance.InexactFloat64(),
		Holding:  receipt.Holding,
	})
}

// respondRejection maps engine errors onto order rejections. Unknown symbols
// and strict-mode quantity errors are transport failures; funds/holdings
// rejections are normal game outcomes and go out with status 200 so the UI
// treats them as state, not as errors.
func (s *Server) respondRejection(w http.ResponseWriter, sess *engine.Session, order engine.Order, err error) {
	resp := OrderResponse{
		Status:   "rejected",
		Side:     order.Side.String(),
		Symbol:   order.Symbol,
		Quantity: order.Quantity,
		Balance:  sess.Balance().InexactFloat64(),
		Holding:  sess.Holding(order.Symbol),
	}

	switch {
	case errors.Is(err, engine.ErrUnknownSymbol):
		respondError(w, http.StatusNotFound, "unknown symbol", err.Error())
		return
	case errors.Is(err, engine.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid quantity", err.Error())
		return
	case errors.Is(err, engine.ErrInsufficientFunds):
		resp.Reason = "insufficient_funds"
		resp.Notice = &Notice{
			Message: "Insufficient funds!",
			TTLMs:   noticeTTL.Milliseconds(),
		}
	case errors.Is(err, engine.ErrInsufficientHoldings):
		// The UI disables the sell button, so this stays quiet: no notice.
		resp.Reason = "insufficient_holdings"
	default:
		respondError(w, http.StatusInternalServerError, "order failed", err.Error())
		return
	}

	log.Printf("[api] order rejected: session=%s %s %d %s (%s)",
		sess.ID(), order.Side, order.Quantity, order.Symbol, resp.Reason)

	s.logOrder("ORDER_REJECTED", map[string]interface{}{
		"session":  sess.ID(),
		"side":     order.Side.String(),
		"symbol":   order.Symbol,
		"quantity": order.Quantity,
		"reason":   resp.Reason,
	})

	respondJSON(w, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Broadcast Methods (called from the engine loop)
// ==============================

// BroadcastSnapshot pushes the tick's full snapshot to "market" subscribers.
func (s *Server) BroadcastSnapshot(snap engine.Snapshot) {
	data := make(map[string]AssetQuote, len(snap.Quotes))
	for sym, q := range snap.Quotes {
		data[sym] = AssetQuote{
			Price:  q.Price.InexactFloat64(),
			Change: q.ChangeString(),
		}
	}

	s.hub.BroadcastToChannel("market", MarketUpdate{
		Type:      "market_update",
		Data:      data,
		Timestamp: snap.Time.UnixMilli(),
	})
}

// BroadcastNews pushes a fired headline to "news" subscribers.
func (s *Server) BroadcastNews(ev engine.NewsEvent) {
	s.hub.BroadcastToChannel("news", NewsUpdate{
		Type:      "news",
		Headline:  ev.Headline,
		Impact:    ev.Impact,
		Timestamp: time.Now().UnixMilli(),
	})
}

// BroadcastReceipt mirrors an order confirmation onto the session's channel.
func (s *Server) BroadcastReceipt(sessionID string, receipt *engine.Receipt) {
	s.hub.BroadcastToChannel("session:"+sessionID, OrderUpdate{
		Type:      "order",
		SessionID: sessionID,
		OrderID:   receipt.OrderID,
		Side:      receipt.Side.String(),
		Symbol:    receipt.Symbol,
		Quantity:  receipt.Quantity,
		Price:     receipt.Price.InexactFloat64(),
		Balance:   receipt.Balance.InexactFloat64(),
		Holding:   receipt.Holding,
		Timestamp: receipt.Time.UnixMilli(),
	})
}

// ==============================
// Helper Functions
// ==============================

func sessionInfo(sess *engine.Session) SessionInfo {
	return SessionInfo{
		ID:             sess.ID(),
		Balance:        sess.Balance().InexactFloat64(),
		Holdings:       sess.Holdings(),
		PortfolioValue: sess.PortfolioValue().InexactFloat64(),
		CreatedAt:      sess.CreatedAt().UnixMilli(),
	}
}

// coerceQuantity accepts whatever the UI put in the quantity field. Numbers
// are truncated to integers; strings are parsed; anything else reports !ok
// and falls back to 1, matching the UI's forgiving input handling.
func coerceQuantity(v interface{}) (int64, bool) {
	switch q := v.(type) {
	case float64:
		if q != float64(int64(q)) {
			return int64(q), false
		}
		return int64(q), true
	case string:
		n, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			return 1, false
		}
		return n, true
	case nil:
		return 1, false
	default:
		return 1, false
	}
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}

// logOrder writes one JSON line per processed order to the journal.
func (s *Server) logOrder(eventType string, data map[string]interface{}) {
	if s.journal == nil {
		return
	}

	entry := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"event":     eventType,
		"data":      data,
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		log.Printf("[api] failed to marshal journal entry: %v", err)
		return
	}

	s.journal.Write(jsonData)
	s.journal.Write([]byte("\n"))
}
