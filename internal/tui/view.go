package tui

import (
	"github.com/jonandersen/tradedesk/internal/desk"
)

// deskView binds the desk to the TUI's child models.
type deskView struct {
	board     *BoardModel
	portfolio *PortfolioModel
	trade     *TradeModel
}

var _ desk.View = (*deskView)(nil)

func (v *deskView) Row(symbol string) (desk.RowView, bool) {
	return v.board.Row(symbol)
}

func (v *deskView) SetBalance(text string) {
	v.portfolio.setBalance(text)
}

func (v *deskView) SetHoldings(lines []desk.HoldingLine, message string) {
	v.portfolio.setHoldings(lines, message)
}

func (v *deskView) SetTransactions(lines []desk.TransactionLine) {
	v.portfolio.Transactions = lines
}

func (v *deskView) ShowDialog(title string) {
	v.trade.Visible = true
	v.trade.Title = title
}

func (v *deskView) HideDialog() {
	v.trade.Visible = false
	v.trade.Input.Blur()
}

func (v *deskView) SetDialogQuote(price, signal, stopLoss string) {
	v.trade.Price = price
	v.trade.Signal = signal
	v.trade.StopLoss = stopLoss
}

func (v *deskView) SetTotal(text string) {
	v.trade.Total = text
}

func (v *deskView) ResetForm() {
	v.trade.Input.Reset()
	v.trade.Input.Focus()
}

func (v *deskView) ShowError(message string) {
	v.trade.Err = message
	v.trade.ShowErr = true
}

func (v *deskView) HideError() {
	v.trade.ShowErr = false
}

func (v *deskView) SetSubmitting(submitting bool) {
	v.trade.Submitting = submitting
}
