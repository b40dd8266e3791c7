// Package desk holds the trading desk's client state: the latest board
// snapshot, the bound viewer identity and the trade dialog. It renders into a
// View and is not safe for concurrent use.
package desk

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

// Messages shown in the dialog's error banner.
const (
	MsgInvalidQuantity = "Please enter a valid quantity"
	MsgTradeFailed     = "An error occurred while processing your trade"
	MsgOrderInFlight   = "Order already in progress"
	MsgNoHoldings      = "No holdings yet. Start trading!"
)

// MaxTransactions is how many recent transactions the portfolio shows.
const MaxTransactions = 5

var (
	// ErrInvalidQuantity is returned by BeginSubmit when the quantity is zero
	// or missing or no symbol is selected.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrOrderInFlight is returned by BeginSubmit while an earlier order has
	// not completed.
	ErrOrderInFlight = errors.New("order already in progress")

	// ErrDialogClosed is returned by BeginSubmit when no dialog is open.
	ErrDialogClosed = errors.New("trade dialog is not open")

	// ErrInvalidAction is returned by BeginSubmit for actions other than buy and sell.
	ErrInvalidAction = errors.New("invalid action")
)

// Submission is an order ready to send. Generation ties its result back to
// the dialog that produced it.
type Submission struct {
	Order      tradeapi.OrderRequest
	Generation uint64
}

// DialogState is a read-only view of the trade dialog.
type DialogState struct {
	Open       bool
	Symbol     string
	Name       string
	Quantity   string
	InFlight   bool
	Generation uint64
}

// Desk owns the board cache, the viewer identity and the dialog state.
type Desk struct {
	identity string
	currency string
	view     View
	logger   *zap.Logger

	stocks map[string]tradeapi.Quote
	dialog DialogState
}

// New creates a Desk bound to identity. The identity cannot change later.
func New(identity, currency string, view View, logger *zap.Logger) *Desk {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Desk{
		identity: identity,
		currency: currency,
		view:     view,
		logger:   logger,
		stocks:   map[string]tradeapi.Quote{},
	}
}

// Identity returns the bound viewer identity.
func (d *Desk) Identity() string { return d.identity }

// Dialog returns the current dialog state.
func (d *Desk) Dialog() DialogState { return d.dialog }

// Quote returns the cached snapshot for symbol.
func (d *Desk) Quote(symbol string) (tradeapi.Quote, bool) {
	q, ok := d.stocks[symbol]
	return q, ok
}

// ApplyUpdates replaces the cache with stocks and re-renders every board row
// it mentions. Symbols the board does not show are cached but not rendered.
func (d *Desk) ApplyUpdates(stocks map[string]tradeapi.Quote) {
	if stocks == nil {
		stocks = map[string]tradeapi.Quote{}
	}
	d.stocks = stocks

	for symbol, q := range stocks {
		if row, ok := d.view.Row(symbol); ok {
			d.renderRow(row, q)
		}
		if d.dialog.Open && d.dialog.Symbol == symbol {
			d.renderDialogQuote()
			d.renderTotal()
		}
	}
}

func (d *Desk) renderRow(row RowView, q tradeapi.Quote) {
	row.SetPrice(tradeapi.FormatCurrency(d.currency, q.Price))
	row.SetChange(tradeapi.FormatPercent(q.Change), !q.Change.IsNegative())
	row.SetSignal(d.signalText(q))
	row.SetStopLoss(d.stopLossText(q))
	row.SetVolume(tradeapi.FormatVolume(int64(q.Volume)))
}

func (d *Desk) signalText(q tradeapi.Quote) string {
	if q.TradeSignal == "" {
		return tradeapi.Placeholder
	}
	return q.TradeSignal
}

func (d *Desk) stopLossText(q tradeapi.Quote) string {
	if !q.StopLoss.Valid || q.StopLoss.Decimal.IsZero() {
		return tradeapi.Placeholder
	}
	return tradeapi.FormatCurrency(d.currency, q.StopLoss.Decimal)
}

// ApplyPortfolio renders ev if it belongs to the bound identity and reports
// whether it did. Portfolios for anyone else leave the view untouched.
func (d *Desk) ApplyPortfolio(ev tradeapi.PortfolioEvent) bool {
	if d.identity == "" || ev.Email != d.identity {
		d.logger.Debug("ignoring portfolio for another viewer", zap.String("email", ev.Email))
		return false
	}

	p := ev.Portfolio
	d.view.SetBalance("Balance: " + tradeapi.FormatCurrency(d.currency, p.Balance))

	if len(p.Holdings) == 0 {
		d.view.SetHoldings(nil, MsgNoHoldings)
	} else {
		lines := make([]HoldingLine, 0, len(p.Holdings))
		for _, h := range p.Holdings {
			lines = append(lines, HoldingLine{
				Symbol:   h.Symbol,
				Quantity: strconv.FormatInt(h.Quantity, 10),
				AvgPrice: tradeapi.FormatCurrency(d.currency, h.AvgPrice),
			})
		}
		d.view.SetHoldings(lines, "")
	}

	txs := p.Transactions
	if len(txs) > MaxTransactions {
		txs = txs[len(txs)-MaxTransactions:]
	}
	lines := make([]TransactionLine, 0, len(txs))
	for _, tx := range txs {
		lines = append(lines, TransactionLine{
			Action:    strings.ToUpper(tx.Action),
			Symbol:    tx.Symbol,
			Quantity:  strconv.FormatInt(tx.Quantity, 10),
			Price:     tradeapi.FormatCurrency(d.currency, tx.Price),
			Timestamp: tx.Timestamp,
		})
	}
	d.view.SetTransactions(lines)
	return true
}

// OpenDialog opens the trade dialog for symbol. Symbol and name come from the
// board row that triggered it; the quote comes from the cache.
func (d *Desk) OpenDialog(symbol, name string) {
	d.dialog = DialogState{
		Open:       true,
		Symbol:     symbol,
		Name:       name,
		Generation: d.dialog.Generation + 1,
	}

	d.view.ShowDialog(name + " (" + symbol + ")")
	d.renderDialogQuote()
	d.view.ResetForm()
	d.view.HideError()
	d.view.SetSubmitting(false)
	d.view.SetTotal(tradeapi.Placeholder)
}

func (d *Desk) renderDialogQuote() {
	q, ok := d.stocks[d.dialog.Symbol]
	if !ok {
		d.view.SetDialogQuote(tradeapi.Placeholder, tradeapi.Placeholder, tradeapi.Placeholder)
		return
	}
	d.view.SetDialogQuote(tradeapi.FormatCurrency(d.currency, q.Price), d.signalText(q), d.stopLossText(q))
}

// SetQuantity records the raw quantity text and recomputes the total.
func (d *Desk) SetQuantity(raw string) {
	if !d.dialog.Open {
		return
	}
	d.dialog.Quantity = raw
	d.renderTotal()
}

func (d *Desk) renderTotal() {
	d.view.SetTotal(d.total())
}

func (d *Desk) total() string {
	q, ok := d.stocks[d.dialog.Symbol]
	qty := ParseQuantity(d.dialog.Quantity)
	if !ok || qty <= 0 {
		return tradeapi.Placeholder
	}
	return tradeapi.FormatCurrency(d.currency, q.Price.Mul(decimal.NewFromInt(int64(qty))))
}

// BeginSubmit validates the dialog and returns the order to send. On error
// the dialog stays open with the problem shown, and nothing must be sent.
func (d *Desk) BeginSubmit(action string) (Submission, error) {
	if !d.dialog.Open {
		return Submission{}, ErrDialogClosed
	}
	if action != tradeapi.ActionBuy && action != tradeapi.ActionSell {
		return Submission{}, ErrInvalidAction
	}
	if d.dialog.InFlight {
		d.view.ShowError(MsgOrderInFlight)
		return Submission{}, ErrOrderInFlight
	}

	qty := ParseQuantity(d.dialog.Quantity)
	if qty == 0 || d.dialog.Symbol == "" {
		d.view.ShowError(MsgInvalidQuantity)
		return Submission{}, ErrInvalidQuantity
	}

	d.dialog.InFlight = true
	d.view.HideError()
	d.view.SetSubmitting(true)

	d.logger.Info("submitting order",
		zap.String("action", action),
		zap.String("symbol", d.dialog.Symbol),
		zap.Int("quantity", qty),
	)
	return Submission{
		Order: tradeapi.OrderRequest{
			Action:   action,
			Symbol:   d.dialog.Symbol,
			Quantity: qty,
		},
		Generation: d.dialog.Generation,
	}, nil
}

// CompleteSubmit applies the result of the submission made in generation.
// Success closes the dialog; a rejection shows the server's message; any
// other error shows a generic failure. Results for a dialog that has since
// closed or reopened are dropped and false is returned.
func (d *Desk) CompleteSubmit(generation uint64, err error) bool {
	if !d.dialog.Open || d.dialog.Generation != generation {
		d.logger.Debug("dropping stale order result", zap.Uint64("generation", generation), zap.Error(err))
		return false
	}

	d.dialog.InFlight = false
	d.view.SetSubmitting(false)

	if err == nil {
		d.logger.Info("order accepted", zap.String("symbol", d.dialog.Symbol))
		d.CloseDialog()
		return true
	}

	if msg, ok := tradeapi.RejectionMessage(err); ok {
		d.logger.Info("order rejected", zap.String("symbol", d.dialog.Symbol), zap.String("reason", msg))
		d.view.ShowError(msg)
		return true
	}

	d.logger.Error("order failed", zap.String("symbol", d.dialog.Symbol), zap.Error(err))
	d.view.ShowError(MsgTradeFailed)
	return true
}

// CloseDialog hides the dialog. Any in-flight result becomes stale.
func (d *Desk) CloseDialog() {
	d.dialog.Open = false
	d.dialog.InFlight = false
	d.view.HideDialog()
}

// ParseQuantity reads a leading integer the way a lenient form field would:
// leading whitespace and an optional sign are accepted, parsing stops at the
// first non-digit, and anything without digits is 0. Values too large for an
// int are clamped rather than dropped.
func ParseQuantity(raw string) int {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	// Out-of-range input saturates at the int bounds; Atoi reports that as
	// ErrRange alongside the clamped value.
	n, _ := strconv.Atoi(sign + s[:end])
	return n
}
