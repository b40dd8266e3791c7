package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jonandersen/tradedesk/internal/desk"
	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

// PortfolioState represents whether a portfolio has been received.
type PortfolioState int

const (
	PortfolioStateWaiting PortfolioState = iota
	PortfolioStateLoaded
)

// PortfolioModel holds the state for the portfolio view.
type PortfolioModel struct {
	State        PortfolioState
	Identity     string
	Balance      string
	Holdings     []desk.HoldingLine
	Message      string
	Transactions []desk.TransactionLine
	LastUpdated  time.Time
	Table        table.Model
}

// NewPortfolioModel creates a new portfolio model for identity.
func NewPortfolioModel(identity string) *PortfolioModel {
	cols := []table.Column{
		{Title: "Symbol", Width: 14},
		{Title: "Qty", Width: 8},
		{Title: "Avg Price", Width: 14},
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(TableStyles())

	return &PortfolioModel{
		State:    PortfolioStateWaiting,
		Identity: identity,
		Table:    t,
	}
}

// SetHeight sets the table height.
func (m *PortfolioModel) SetHeight(height int) {
	m.Table.SetHeight(height)
}

func (m *PortfolioModel) setBalance(text string) {
	m.State = PortfolioStateLoaded
	m.Balance = text
	m.LastUpdated = time.Now()
}

func (m *PortfolioModel) setHoldings(lines []desk.HoldingLine, message string) {
	m.Holdings = lines
	m.Message = message
	m.updateTable()
}

// updateTable updates the table rows from the holdings.
func (m *PortfolioModel) updateTable() {
	rows := make([]table.Row, 0, len(m.Holdings))
	for _, h := range m.Holdings {
		rows = append(rows, table.Row{h.Symbol, h.Quantity, h.AvgPrice})
	}
	m.Table.SetRows(rows)
}

// Update handles navigation keys for the holdings table.
func (m *PortfolioModel) Update(msg tea.Msg) (*PortfolioModel, tea.Cmd) {
	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

// View renders the portfolio view.
func (m *PortfolioModel) View() string {
	var b strings.Builder

	switch m.State {
	case PortfolioStateWaiting:
		if m.Identity == "" {
			b.WriteString(WarningStyle.Render("No email configured. Run: tradedesk configure"))
			return b.String()
		}
		b.WriteString(fmt.Sprintf("Waiting for portfolio update for %s...", m.Identity))
		b.WriteString("\n\n")
		b.WriteString(LabelStyle.Render("Your portfolio appears after your first trade."))
		return b.String()

	case PortfolioStateLoaded:
		b.WriteString(SummaryStyle.Render("Portfolio"))
		b.WriteString("\n")
		b.WriteString(ValueStyle.Render(m.Balance))
		b.WriteString("\n\n")

		if len(m.Holdings) == 0 {
			b.WriteString(LabelStyle.Render(m.Message))
		} else {
			b.WriteString(SummaryStyle.Render("Holdings"))
			b.WriteString(LabelStyle.Render(fmt.Sprintf(" (%d)", len(m.Holdings))))
			b.WriteString("\n")
			b.WriteString(m.Table.View())
		}

		if len(m.Transactions) > 0 {
			b.WriteString("\n\n")
			b.WriteString(SummaryStyle.Render("Recent Transactions"))
			b.WriteString("\n")
			for _, tx := range m.Transactions {
				style := GreenStyle
				if tx.Action == strings.ToUpper(tradeapi.ActionSell) {
					style = RedStyle
				}
				b.WriteString(style.Render(fmt.Sprintf("%-4s", tx.Action)))
				b.WriteString(fmt.Sprintf(" %-14s %6s @ %s", tx.Symbol, tx.Quantity, tx.Price))
				if tx.Timestamp != "" {
					b.WriteString(LabelStyle.Render("  " + tx.Timestamp))
				}
				b.WriteString("\n")
			}
		}

		b.WriteString("\n")
		b.WriteString(LabelStyle.Render(fmt.Sprintf("Updated: %s", m.LastUpdated.Format("3:04:05 PM"))))
	}

	return b.String()
}
