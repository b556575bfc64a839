// Command watch is a terminal ticker: it subscribes to the market feed over
// WebSocket and renders live quotes and headlines.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"github.com/stonklabs/mememarket/pkg/api"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9FAFB"))
	symbolStyle = lipgloss.NewStyle().Bold(true).Width(8)
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")) // green
	downStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")) // red
	newsStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Italic(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

type snapshotMsg api.MarketUpdate

type newsMsg api.NewsUpdate

type disconnectMsg struct{ err error }

type model struct {
	quotes   map[string]api.AssetQuote
	headline string
	ticks    int
	err      error
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case snapshotMsg:
		m.quotes = msg.Data
		m.ticks++
	case newsMsg:
		m.headline = msg.Headline
	case disconnectMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	s := headerStyle.Render("MEME MARKET") + dimStyle.Render(fmt.Sprintf("  tick %d", m.ticks)) + "\n\n"

	symbols := make([]string, 0, len(m.quotes))
	for sym := range m.quotes {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	if len(symbols) == 0 {
		s += dimStyle.Render("waiting for market data...") + "\n"
	}
	for _, sym := range symbols {
		q := m.quotes[sym]
		style := upStyle
		if len(q.Change) > 0 && q.Change[0] == '-' {
			style = downStyle
		}
		s += fmt.Sprintf("%s %s  %s\n",
			symbolStyle.Render(sym),
			fmt.Sprintf("$%-14.6f", q.Price),
			style.Render(q.Change))
	}

	if m.headline != "" {
		s += "\n" + newsStyle.Render("NEWS: "+m.headline) + "\n"
	}
	s += "\n" + dimStyle.Render("q to quit") + "\n"
	return s
}

// readLoop forwards feed messages to the program until the connection drops.
func readLoop(conn *websocket.Conn, p *tea.Program) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			p.Send(disconnectMsg{err: err})
			return
		}

		var envelope struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			continue
		}

		switch envelope.Type {
		case "market_update":
			var update api.MarketUpdate
			if err := json.Unmarshal(data, &update); err == nil {
				p.Send(snapshotMsg(update))
			}
		case "news":
			var update api.NewsUpdate
			if err := json.Unmarshal(data, &update); err == nil {
				p.Send(newsMsg(update))
			}
		}
	}
}

func main() {
	url := flag.String("url", "ws://localhost:8000/ws", "market feed WebSocket URL")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", *url, err)
	}
	defer conn.Close()

	sub := api.WSSubscribeRequest{Op: "subscribe", Channels: []string{"market", "news"}}
	if err := conn.WriteJSON(sub); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	p := tea.NewProgram(model{quotes: make(map[string]api.AssetQuote)}, tea.WithAltScreen())
	go readLoop(conn, p)

	if _, err := p.Run(); err != nil {
		log.Fatalf("watch: %v", err)
	}
}
