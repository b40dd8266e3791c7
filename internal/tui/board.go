package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jonandersen/tradedesk/internal/config"
	"github.com/jonandersen/tradedesk/internal/desk"
	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

// BoardState represents whether the board has received data yet.
type BoardState int

const (
	BoardStateWaiting BoardState = iota
	BoardStateLive
)

// boardRow holds the rendered cells of one board row. It implements
// desk.RowView.
type boardRow struct {
	symbol   string
	name     string
	price    string
	change   string
	positive bool
	signal   string
	stopLoss string
	volume   string
	seen     bool
}

func newBoardRow(s config.Symbol) *boardRow {
	return &boardRow{
		symbol:   s.Symbol,
		name:     s.Name,
		price:    tradeapi.Placeholder,
		change:   tradeapi.Placeholder,
		positive: true,
		signal:   tradeapi.Placeholder,
		stopLoss: tradeapi.Placeholder,
		volume:   tradeapi.Placeholder,
	}
}

func (r *boardRow) SetPrice(text string) {
	r.price = text
	r.seen = true
}

func (r *boardRow) SetChange(text string, positive bool) {
	r.change = text
	r.positive = positive
}

func (r *boardRow) SetSignal(text string)   { r.signal = text }
func (r *boardRow) SetStopLoss(text string) { r.stopLoss = text }
func (r *boardRow) SetVolume(text string)   { r.volume = text }

// changeCell prefixes the change with a trend marker. Table cells are
// truncated by width, so colour is applied outside the table.
func (r *boardRow) changeCell() string {
	if !r.seen {
		return r.change
	}
	if r.positive {
		return "▲ " + r.change
	}
	return "▼ " + r.change
}

func (r *boardRow) cells() table.Row {
	return table.Row{r.symbol, r.name, r.price, r.changeCell(), r.signal, r.stopLoss, r.volume}
}

// BoardModel holds the state for the market board view.
type BoardModel struct {
	State       BoardState
	LastUpdated time.Time
	Table       table.Model

	order []string
	rows  map[string]*boardRow
}

// NewBoardModel creates a board showing symbols in the given order.
func NewBoardModel(symbols []config.Symbol) *BoardModel {
	cols := []table.Column{
		{Title: "Symbol", Width: 14},
		{Title: "Name", Width: 26},
		{Title: "Price", Width: 12},
		{Title: "Change", Width: 10},
		{Title: "Signal", Width: 8},
		{Title: "Stop Loss", Width: 12},
		{Title: "Volume", Width: 14},
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(TableStyles())

	m := &BoardModel{
		State: BoardStateWaiting,
		Table: t,
		order: make([]string, 0, len(symbols)),
		rows:  make(map[string]*boardRow, len(symbols)),
	}
	for _, s := range symbols {
		if _, dup := m.rows[s.Symbol]; dup {
			continue
		}
		m.order = append(m.order, s.Symbol)
		m.rows[s.Symbol] = newBoardRow(s)
	}
	m.Sync()
	return m
}

// SetHeight sets the table height.
func (m *BoardModel) SetHeight(height int) {
	m.Table.SetHeight(height)
}

// Row returns the row for symbol. Symbols the board was not created with have
// no row.
func (m *BoardModel) Row(symbol string) (desk.RowView, bool) {
	r, ok := m.rows[symbol]
	if !ok {
		return nil, false
	}
	return r, true
}

// Sync copies row cells into the table after the desk has written them.
func (m *BoardModel) Sync() {
	rows := make([]table.Row, 0, len(m.order))
	for _, sym := range m.order {
		rows = append(rows, m.rows[sym].cells())
	}
	m.Table.SetRows(rows)
}

// MarkUpdated records that a snapshot was applied.
func (m *BoardModel) MarkUpdated(at time.Time) {
	m.State = BoardStateLive
	m.LastUpdated = at
}

// SelectedSymbol returns the symbol and name of the highlighted row.
func (m *BoardModel) SelectedSymbol() (string, string) {
	selected := m.Table.SelectedRow()
	if len(selected) == 0 {
		return "", ""
	}
	r, ok := m.rows[selected[0]]
	if !ok {
		return "", ""
	}
	return r.symbol, r.name
}

// Update handles navigation keys for the board.
func (m *BoardModel) Update(msg tea.Msg) (*BoardModel, tea.Cmd) {
	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

// View renders the market board view.
func (m *BoardModel) View() string {
	var b strings.Builder

	b.WriteString(SummaryStyle.Render("Market"))
	b.WriteString(LabelStyle.Render(fmt.Sprintf(" (%d symbols)", len(m.order))))
	b.WriteString("\n\n")

	if len(m.order) == 0 {
		b.WriteString(LabelStyle.Render("No symbols configured"))
		return b.String()
	}

	b.WriteString(m.Table.View())
	b.WriteString("\n")

	if sym, _ := m.SelectedSymbol(); sym != "" {
		r := m.rows[sym]
		style := GreenStyle
		if !r.positive {
			style = RedStyle
		}
		b.WriteString(ValueStyle.Render(r.symbol))
		b.WriteString("  ")
		b.WriteString(r.price)
		b.WriteString("  ")
		b.WriteString(style.Render(r.change))
		b.WriteString("\n")
	}

	switch m.State {
	case BoardStateWaiting:
		b.WriteString(LabelStyle.Render("Waiting for market data..."))
	case BoardStateLive:
		b.WriteString(LabelStyle.Render(fmt.Sprintf("Updated: %s", m.LastUpdated.Format("3:04:05 PM"))))
	}

	return b.String()
}
