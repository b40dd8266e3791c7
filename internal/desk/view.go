package desk

// RowView is one row of the stock board.
type RowView interface {
	SetPrice(text string)
	SetChange(text string, positive bool)
	SetSignal(text string)
	SetStopLoss(text string)
	SetVolume(text string)
}

// HoldingLine is a rendered holding.
type HoldingLine struct {
	Symbol   string
	Quantity string
	AvgPrice string
}

// TransactionLine is a rendered transaction.
type TransactionLine struct {
	Action    string
	Symbol    string
	Quantity  string
	Price     string
	Timestamp string
}

// View is everything the desk writes to. Implementations only display; all
// state lives in the Desk.
type View interface {
	// Row returns the board row for symbol, or false when the board was not
	// started with that symbol.
	Row(symbol string) (RowView, bool)

	SetBalance(text string)
	// SetHoldings shows holdings, or message in their place when lines is empty.
	SetHoldings(lines []HoldingLine, message string)
	SetTransactions(lines []TransactionLine)

	ShowDialog(title string)
	HideDialog()
	SetDialogQuote(price, signal, stopLoss string)
	SetTotal(text string)
	ResetForm()
	ShowError(message string)
	HideError()
	SetSubmitting(submitting bool)
}
