package desk

import "github.com/jonandersen/tradedesk/pkg/tradeapi"

type fakeRow struct {
	price, change, signal, stopLoss, volume string
	positive                                bool
	writes                                  int
}

func (r *fakeRow) SetPrice(text string) { r.price = text; r.writes++ }
func (r *fakeRow) SetChange(text string, positive bool) {
	r.change, r.positive = text, positive
	r.writes++
}
func (r *fakeRow) SetSignal(text string)   { r.signal = text; r.writes++ }
func (r *fakeRow) SetStopLoss(text string) { r.stopLoss = text; r.writes++ }
func (r *fakeRow) SetVolume(text string)   { r.volume = text; r.writes++ }

// fakeView records the last value written to every fragment.
type fakeView struct {
	rows map[string]*fakeRow

	balance         string
	holdings        []HoldingLine
	holdingsMessage string
	transactions    []TransactionLine
	portfolioWrites int

	dialogOpen bool
	title      string
	price      string
	signal     string
	stopLoss   string
	total      string
	errorText  string
	errorShown bool
	submitting bool
	formResets int
}

func newFakeView(symbols ...string) *fakeView {
	v := &fakeView{rows: map[string]*fakeRow{}}
	for _, s := range symbols {
		v.rows[s] = &fakeRow{}
	}
	return v
}

func (v *fakeView) Row(symbol string) (RowView, bool) {
	r, ok := v.rows[symbol]
	if !ok {
		return nil, false
	}
	return r, true
}

func (v *fakeView) SetBalance(text string) { v.balance = text; v.portfolioWrites++ }
func (v *fakeView) SetHoldings(lines []HoldingLine, message string) {
	v.holdings, v.holdingsMessage = lines, message
	v.portfolioWrites++
}
func (v *fakeView) SetTransactions(lines []TransactionLine) {
	v.transactions = lines
	v.portfolioWrites++
}

func (v *fakeView) ShowDialog(title string) { v.dialogOpen, v.title = true, title }
func (v *fakeView) HideDialog()             { v.dialogOpen = false }
func (v *fakeView) SetDialogQuote(price, signal, stopLoss string) {
	v.price, v.signal, v.stopLoss = price, signal, stopLoss
}
func (v *fakeView) SetTotal(text string) { v.total = text }
func (v *fakeView) ResetForm()           { v.formResets++ }
func (v *fakeView) ShowError(message string) {
	v.errorText, v.errorShown = message, true
}
func (v *fakeView) HideError()                    { v.errorShown = false }
func (v *fakeView) SetSubmitting(submitting bool) { v.submitting = submitting }

var _ View = (*fakeView)(nil)

func quote(price, change string) tradeapi.Quote {
	return tradeapi.Quote{Price: dec(price), Change: dec(change)}
}
