package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/stonklabs/mememarket/pkg/engine"
)

func newTestServer(t *testing.T, strict bool) (*Server, *httptest.Server) {
	t.Helper()

	registry := engine.NewRegistry(map[string]decimal.Decimal{
		"DOGE": decimal.NewFromFloat(4.20),
		"GME":  decimal.NewFromFloat(185.30),
	}, decimal.NewFromInt(1))
	sessions := engine.NewSessionManager(registry, decimal.NewFromInt(10000), 10000, strict)

	journal := filepath.Join(t.TempDir(), "orders.log")
	s := NewServer(registry, sessions, journal, strict)
	go s.hub.Run()

	ts := httptest.NewServer(s.router)
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func createSession(t *testing.T, ts *httptest.Server) SessionInfo {
	t.Helper()
	var info SessionInfo
	decode(t, postJSON(t, ts.URL+"/api/v1/sessions", nil), &info)
	if info.ID == "" {
		t.Fatalf("session has no id")
	}
	return info
}

func TestCreateSessionStartsWithConfiguredStake(t *testing.T) {
	_, ts := newTestServer(t, false)

	info := createSession(t, ts)
	if info.Balance != 10000 {
		t.Errorf("balance = %f, want 10000", info.Balance)
	}
	if len(info.Holdings) != 0 {
		t.Errorf("holdings = %v, want empty", info.Holdings)
	}
}

func TestListAssets(t *testing.T) {
	_, ts := newTestServer(t, false)

	resp, err := http.Get(ts.URL + "/api/v1/assets")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var assets []AssetInfo
	decode(t, resp, &assets)

	if len(assets) != 2 {
		t.Fatalf("assets = %d, want 2", len(assets))
	}
	if assets[0].Symbol != "DOGE" || assets[0].Price != 4.20 {
		t.Errorf("first asset = %+v", assets[0])
	}
	if assets[0].Change != "+0.00%" {
		t.Errorf("seed change = %q, want +0.00%%", assets[0].Change)
	}
}

func TestGetUnknownAssetIs404(t *testing.T) {
	_, ts := newTestServer(t, false)

	resp, err := http.Get(ts.URL + "/api/v1/assets/AMC")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSubmitOrderFillsAndUpdatesBalance(t *testing.T) {
	_, ts := newTestServer(t, false)
	info := createSession(t, ts)

	var order OrderResponse
	decode(t, postJSON(t, ts.URL+"/api/v1/sessions/"+info.ID+"/orders",
		SubmitOrderRequest{Side: "buy", Symbol: "DOGE", Quantity: 10}), &order)

	if order.Status != "filled" {
		t.Fatalf("status = %q, want filled", order.Status)
	}
	if order.Balance != 9958.00 {
		t.Errorf("balance = %f, want 9958.00", order.Balance)
	}
	if order.Holding != 10 {
		t.Errorf("holding = %d, want 10", order.Holding)
	}
	if order.OrderID == "" {
		t.Errorf("missing order id")
	}

	// The session read reflects the fill.
	var after SessionInfo
	resp, err := http.Get(ts.URL + "/api/v1/sessions/" + info.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	decode(t, resp, &after)
	if after.Holdings["DOGE"] != 10 {
		t.Errorf("holdings = %v, want DOGE:10", after.Holdings)
	}
}

func TestSubmitOrderInsufficientFundsCarriesNotice(t *testing.T) {
	_, ts := newTestServer(t, false)
	info := createSession(t, ts)

	var order OrderResponse
	decode(t, postJSON(t, ts.URL+"/api/v1/sessions/"+info.ID+"/orders",
		SubmitOrderRequest{Side: "buy", Symbol: "GME", Quantity: 10000}), &order)

	if order.Status != "rejected" || order.Reason != "insufficient_funds" {
		t.Fatalf("response = %+v", order)
	}
	if order.Notice == nil || order.Notice.TTLMs != 3000 {
		t.Errorf("notice = %+v, want 3000ms TTL", order.Notice)
	}
	if order.Balance != 10000 {
		t.Errorf("balance = %f, want unchanged 10000", order.Balance)
	}
}

func TestSubmitOrderInsufficientHoldingsIsQuiet(t *testing.T) {
	_, ts := newTestServer(t, false)
	info := createSession(t, ts)

	var order OrderResponse
	decode(t, postJSON(t, ts.URL+"/api/v1/sessions/"+info.ID+"/orders",
		SubmitOrderRequest{Side: "sell", Symbol: "DOGE", Quantity: 1}), &order)

	if order.Status != "rejected" || order.Reason != "insufficient_holdings" {
		t.Fatalf("response = %+v", order)
	}
	if order.Notice != nil {
		t.Errorf("holdings rejection should not carry a notice")
	}
}

func TestSubmitOrderUnknownSymbolIs404(t *testing.T) {
	_, ts := newTestServer(t, false)
	info := createSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/v1/sessions/"+info.ID+"/orders",
		SubmitOrderRequest{Side: "buy", Symbol: "AMC", Quantity: 1})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

// Lenient mode: garbage quantity coerces to 1 instead of failing the trade.
func TestSubmitOrderCoercesGarbageQuantity(t *testing.T) {
	_, ts := newTestServer(t, false)
	info := createSession(t, ts)

	var order OrderResponse
	decode(t, postJSON(t, ts.URL+"/api/v1/sessions/"+info.ID+"/orders",
		SubmitOrderRequest{Side: "buy", Symbol: "DOGE", Quantity: "not a number"}), &order)

	if order.Status != "filled" {
		t.Fatalf("status = %q, want filled", order.Status)
	}
	if order.Quantity != 1 {
		t.Errorf("quantity = %d, want coerced 1", order.Quantity)
	}
}

func TestSubmitOrderStrictModeRejectsGarbageQuantity(t *testing.T) {
	_, ts := newTestServer(t, true)
	info := createSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/v1/sessions/"+info.ID+"/orders",
		SubmitOrderRequest{Side: "buy", Symbol: "DOGE", Quantity: "not a number"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, false)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var body map[string]string
	decode(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

// End to end: a WebSocket client connects, is pre-subscribed to "market",
// and receives the snapshot broadcast.
func TestWebSocketReceivesSnapshotBroadcast(t *testing.T) {
	s, ts := newTestServer(t, false)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Wait for the hub to register the client before broadcasting.
	deadline := time.After(time.Second)
	for s.hub.ClientCount() == 0 {
		select {
		case <-deadline:
			t.Fatalf("client never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	s.BroadcastSnapshot(s.registry.Snapshot(time.Now()))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var update MarketUpdate
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("read: %v", err)
	}
	if update.Type != "market_update" {
		t.Errorf("type = %q, want market_update", update.Type)
	}
	if update.Data["DOGE"].Price != 4.20 {
		t.Errorf("DOGE price = %f, want 4.20", update.Data["DOGE"].Price)
	}
	if update.Data["DOGE"].Change != "+0.00%" {
		t.Errorf("DOGE change = %q, want +0.00%%", update.Data["DOGE"].Change)
	}
}
