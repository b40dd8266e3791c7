package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestNewTradeModel(t *testing.T) {
	m := NewTradeModel()

	assert.False(t, m.Visible)
	assert.Equal(t, "-", m.Price)
	assert.Equal(t, "-", m.Total)
	assert.False(t, m.Input.Focused())
}

func TestTradeModelKeys(t *testing.T) {
	tests := []struct {
		name    string
		focused bool
		key     tea.KeyMsg
		want    TradeAction
	}{
		{"esc closes", true, tea.KeyMsg{Type: tea.KeyEsc}, TradeActionClose},
		{"ctrl+b buys from input", true, tea.KeyMsg{Type: tea.KeyCtrlB}, TradeActionBuy},
		{"ctrl+s sells from input", true, tea.KeyMsg{Type: tea.KeyCtrlS}, TradeActionSell},
		{"b types into input", true, keyRunes("b"), TradeActionQuantity},
		{"b buys outside input", false, keyRunes("b"), TradeActionBuy},
		{"s sells outside input", false, keyRunes("s"), TradeActionSell},
		{"digits ignored outside input", false, keyRunes("7"), TradeActionNone},
		{"digit edits quantity", true, keyRunes("7"), TradeActionQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewTradeModel()
			m.Visible = true
			if tt.focused {
				m.Input.Focus()
			}

			got, _ := m.Update(tt.key)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTradeModelTabTogglesFocus(t *testing.T) {
	m := NewTradeModel()
	m.Input.Focus()

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, m.Input.Focused())

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, m.Input.Focused())
}

func TestTradeModelCursorMoveIsNotAnEdit(t *testing.T) {
	m := NewTradeModel()
	m.Input.Focus()
	m.Input.SetValue("12")

	got, _ := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, TradeActionNone, got)
}

func TestTradeModelView(t *testing.T) {
	m := NewTradeModel()
	m.Visible = true
	m.Title = "Infosys (INFY.NS)"
	m.Price = "₹1500.00"
	m.Signal = "BUY"
	m.StopLoss = "₹1450.00"
	m.Total = "₹3000.00"

	view := m.View()
	assert.Contains(t, view, "Infosys (INFY.NS)")
	assert.Contains(t, view, "₹1500.00")
	assert.Contains(t, view, "BUY")
	assert.Contains(t, view, "₹1450.00")
	assert.Contains(t, view, "₹3000.00")
	assert.NotContains(t, view, "Submitting")

	m.Err = "Insufficient funds"
	m.ShowErr = true
	m.Submitting = true
	view = m.View()
	assert.Contains(t, view, "Insufficient funds")
	assert.Contains(t, view, "Submitting…")
}
