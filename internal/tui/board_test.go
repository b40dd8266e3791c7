package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/tradedesk/internal/config"
)

func TestNewBoardModel(t *testing.T) {
	m := NewBoardModel([]config.Symbol{
		{Symbol: "B", Name: "Beta"},
		{Symbol: "A", Name: "Alpha"},
		{Symbol: "B", Name: "Duplicate"},
	})

	rows := m.Table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0][0])
	assert.Equal(t, "A", rows[1][0])
	for _, cell := range rows[0][2:] {
		assert.Equal(t, "-", cell)
	}
}

func TestBoardModelRow(t *testing.T) {
	m := NewBoardModel([]config.Symbol{{Symbol: "A", Name: "Alpha"}})

	_, ok := m.Row("Z")
	assert.False(t, ok)

	row, ok := m.Row("A")
	require.True(t, ok)
	row.SetPrice("₹1.00")
	row.SetChange("-0.50%", false)
	row.SetSignal("SELL")
	row.SetStopLoss("₹0.90")
	row.SetVolume("1,000")
	m.Sync()

	assert.Equal(t, []string{"A", "Alpha", "₹1.00", "▼ -0.50%", "SELL", "₹0.90", "1,000"}, []string(m.Table.Rows()[0]))
}

func TestBoardModelPositiveMarker(t *testing.T) {
	m := NewBoardModel([]config.Symbol{{Symbol: "A", Name: "Alpha"}})
	row, _ := m.Row("A")
	row.SetPrice("₹1.00")
	row.SetChange("0.00%", true)
	m.Sync()

	assert.Equal(t, "▲ 0.00%", m.Table.Rows()[0][3])
}

func TestBoardModelSelectedSymbol(t *testing.T) {
	m := NewBoardModel([]config.Symbol{{Symbol: "A", Name: "Alpha"}, {Symbol: "B", Name: "Beta"}})

	sym, name := m.SelectedSymbol()
	assert.Equal(t, "A", sym)
	assert.Equal(t, "Alpha", name)

	m.Table.MoveDown(1)
	sym, name = m.SelectedSymbol()
	assert.Equal(t, "B", sym)
	assert.Equal(t, "Beta", name)
}

func TestBoardModelEmpty(t *testing.T) {
	m := NewBoardModel(nil)

	sym, _ := m.SelectedSymbol()
	assert.Empty(t, sym)
	assert.Contains(t, m.View(), "No symbols configured")
}
