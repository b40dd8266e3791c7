package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

// TradeAction is what a key press in the dialog asks the parent to do.
type TradeAction int

const (
	TradeActionNone TradeAction = iota
	TradeActionClose
	TradeActionBuy
	TradeActionSell
	TradeActionQuantity
)

// TradeModel holds the state of the modal trade dialog. The desk decides
// what it shows; the model only renders and reports key presses.
type TradeModel struct {
	Visible    bool
	Title      string
	Price      string
	Signal     string
	StopLoss   string
	Total      string
	Err        string
	ShowErr    bool
	Submitting bool
	Input      textinput.Model
}

// NewTradeModel creates a hidden trade dialog.
func NewTradeModel() *TradeModel {
	ti := textinput.New()
	ti.Placeholder = "Quantity"
	ti.CharLimit = 9
	ti.Width = 12

	return &TradeModel{
		Price:    tradeapi.Placeholder,
		Signal:   tradeapi.Placeholder,
		StopLoss: tradeapi.Placeholder,
		Total:    tradeapi.Placeholder,
		Input:    ti,
	}
}

// Quantity returns the raw quantity text.
func (m *TradeModel) Quantity() string {
	return m.Input.Value()
}

// Update handles a key press while the dialog is visible.
func (m *TradeModel) Update(msg tea.KeyMsg) (TradeAction, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return TradeActionClose, nil
	case "ctrl+b":
		return TradeActionBuy, nil
	case "ctrl+s":
		return TradeActionSell, nil
	case "tab", "shift+tab", "enter":
		if m.Input.Focused() {
			m.Input.Blur()
			return TradeActionNone, nil
		}
		return TradeActionNone, m.Input.Focus()
	}

	if !m.Input.Focused() {
		switch msg.String() {
		case "b":
			return TradeActionBuy, nil
		case "s":
			return TradeActionSell, nil
		}
		return TradeActionNone, nil
	}

	before := m.Input.Value()
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	if m.Input.Value() != before {
		return TradeActionQuantity, cmd
	}
	return TradeActionNone, cmd
}

// View renders the dialog box.
func (m *TradeModel) View() string {
	var b strings.Builder

	b.WriteString(SummaryStyle.Render(m.Title))
	b.WriteString("\n\n")

	b.WriteString(LabelStyle.Render("Price: "))
	b.WriteString(ValueStyle.Render(m.Price))
	b.WriteString("  ")
	b.WriteString(LabelStyle.Render("Signal: "))
	b.WriteString(ValueStyle.Render(m.Signal))
	b.WriteString("  ")
	b.WriteString(LabelStyle.Render("Stop Loss: "))
	b.WriteString(ValueStyle.Render(m.StopLoss))
	b.WriteString("\n\n")

	b.WriteString(LabelStyle.Render("Quantity: "))
	b.WriteString(m.Input.View())
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Total: "))
	b.WriteString(ValueStyle.Render(m.Total))
	b.WriteString("\n")

	if m.ShowErr {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(m.Err))
		b.WriteString("\n")
	}
	if m.Submitting {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render("Submitting…"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.Input.Focused() {
		b.WriteString(LabelStyle.Render("ctrl+b buy  •  ctrl+s sell  •  tab actions  •  esc close"))
	} else {
		b.WriteString(LabelStyle.Render("b buy  •  s sell  •  tab quantity  •  esc close"))
	}

	return DialogStyle.Render(b.String())
}

// Place centres the dialog in a width x height area.
func (m *TradeModel) Place(width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.View())
}
