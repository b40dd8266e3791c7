package tui

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jonandersen/tradedesk/internal/config"
	"github.com/jonandersen/tradedesk/internal/desk"
	"github.com/jonandersen/tradedesk/internal/feed"
	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

// View represents the current active view in the TUI.
type View int

const (
	ViewMarket View = iota
	ViewPortfolio
)

// Model is the main bubbletea model for the TUI.
type Model struct {
	currentView View
	width       int
	height      int
	ready       bool

	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time

	// Async sources
	events <-chan feed.Event
	orders OrderPlacer
	status feed.Status

	desk *desk.Desk

	// Child view models
	board     *BoardModel
	portfolio *PortfolioModel
	trade     *TradeModel
}

// New creates a new TUI model. events may be nil when no feed is running.
func New(cfg *config.Config, events <-chan feed.Event, orders OrderPlacer, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}

	board := NewBoardModel(cfg.Symbols)
	portfolio := NewPortfolioModel(cfg.Email)
	trade := NewTradeModel()
	view := &deskView{board: board, portfolio: portfolio, trade: trade}

	return Model{
		currentView: ViewMarket,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
		events:      events,
		orders:      orders,
		status:      feed.StatusConnecting,
		desk:        desk.New(cfg.Email, cfg.CurrencySymbol, view, logger),
		board:       board,
		portfolio:   portfolio,
		trade:       trade,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return WaitForFeed(m.events)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		// The dialog is modal and consumes all keys
		if m.trade.Visible {
			return m, m.handleTradeKey(msg)
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc":
			// Esc doesn't quit in normal mode
			return m, nil
		case "1":
			m.currentView = ViewMarket
		case "2":
			m.currentView = ViewPortfolio
		case "enter", "t":
			if m.currentView == ViewMarket {
				symbol, name := m.board.SelectedSymbol()
				if symbol != "" {
					m.desk.OpenDialog(symbol, name)
					return m, m.trade.Input.Focus()
				}
			}
		default:
			switch m.currentView {
			case ViewMarket:
				m.board, cmd = m.board.Update(msg)
			case ViewPortfolio:
				m.portfolio, cmd = m.portfolio.Update(msg)
			}
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		// Resize tables to fit content area
		headerHeight := 1
		footerHeight := 1
		summaryHeight := 5
		tableHeight := m.height - headerHeight - footerHeight - summaryHeight - 4
		if tableHeight < 3 {
			tableHeight = 3
		}
		m.board.SetHeight(tableHeight)
		m.portfolio.SetHeight(tableHeight)

	case FeedMsg:
		m.handleFeedEvent(msg.Event)
		cmds = append(cmds, WaitForFeed(m.events))

	case FeedClosedMsg:
		m.status = feed.StatusClosed

	case OrderResultMsg:
		if msg.Err == nil && msg.Result != nil && msg.Result.StatusCode >= http.StatusMultipleChoices {
			m.logger.Warn("order accepted with non-2xx status",
				zap.Int("status", msg.Result.StatusCode),
				zap.String("request_id", msg.Result.RequestID),
			)
		}
		m.desk.CompleteSubmit(msg.Generation, msg.Err)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleFeedEvent(ev feed.Event) {
	switch ev := ev.(type) {
	case feed.Updates:
		m.desk.ApplyUpdates(ev.Stocks)
		m.board.Sync()
		m.board.MarkUpdated(m.now())
	case feed.PortfolioUpdate:
		m.desk.ApplyPortfolio(ev.PortfolioEvent)
	case feed.StatusChange:
		m.status = ev.Status
	}
}

func (m *Model) handleTradeKey(msg tea.KeyMsg) tea.Cmd {
	action, cmd := m.trade.Update(msg)

	switch action {
	case TradeActionClose:
		m.desk.CloseDialog()
	case TradeActionQuantity:
		m.desk.SetQuantity(m.trade.Quantity())
	case TradeActionBuy:
		return tea.Batch(cmd, m.submit(tradeapi.ActionBuy))
	case TradeActionSell:
		return tea.Batch(cmd, m.submit(tradeapi.ActionSell))
	}
	return cmd
}

func (m *Model) submit(action string) tea.Cmd {
	if !m.cfg.IsTradingEnabled() {
		m.trade.Err = "Trading is disabled"
		m.trade.ShowErr = true
		return nil
	}

	sub, err := m.desk.BeginSubmit(action)
	if err != nil {
		if !errors.Is(err, desk.ErrInvalidQuantity) && !errors.Is(err, desk.ErrOrderInFlight) {
			m.logger.Warn("order not submitted", zap.Error(err))
		}
		return nil
	}
	if m.orders == nil {
		m.desk.CompleteSubmit(sub.Generation, fmt.Errorf("%w: no order client", tradeapi.ErrTransport))
		return nil
	}
	return SubmitOrder(m.orders, sub)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	// Calculate content height
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight

	var content string
	if m.trade.Visible {
		content = m.trade.Place(m.width, contentHeight)
	} else {
		content = m.renderContent()
	}

	// Pad content to fill available space
	contentLines := strings.Split(content, "\n")
	for len(contentLines) < contentHeight {
		contentLines = append(contentLines, "")
	}
	if len(contentLines) > contentHeight {
		contentLines = contentLines[:contentHeight]
	}
	content = strings.Join(contentLines, "\n")

	return header + "\n" + content + "\n" + footer
}

// renderHeader renders the header bar.
func (m Model) renderHeader() string {
	title := HeaderStyle.Render("tradedesk")

	tabs := []struct {
		name   string
		key    string
		active bool
	}{
		{"Market", "1", m.currentView == ViewMarket},
		{"Portfolio", "2", m.currentView == ViewPortfolio},
	}

	var tabStrs []string
	for _, tab := range tabs {
		style := lipgloss.NewStyle().Padding(0, 1)
		if tab.active {
			style = style.Bold(true).Foreground(ColorPrimary)
		} else {
			style = style.Foreground(ColorMuted)
		}
		tabStrs = append(tabStrs, style.Render(fmt.Sprintf("[%s] %s", tab.key, tab.name)))
	}

	tabBar := strings.Join(tabStrs, " ")
	headerContent := title + "  " + tabBar + "  " + StatusStyle(m.status).Render("● "+m.status.String())

	identity := m.desk.Identity()
	if identity == "" {
		identity = "no email"
	}
	right := LabelStyle.Render(identity) + " "

	// Pad to full width
	padding := m.width - lipgloss.Width(headerContent) - lipgloss.Width(right)
	if padding > 0 {
		headerContent += strings.Repeat(" ", padding) + right
	}

	return lipgloss.NewStyle().
		Background(ColorBackground).
		Width(m.width).
		Render(headerContent)
}

// renderContent renders the main content area.
func (m Model) renderContent() string {
	var content string
	switch m.currentView {
	case ViewMarket:
		content = m.board.View()
	case ViewPortfolio:
		content = m.portfolio.View()
	}
	return ContentStyle.Render(content)
}

// renderFooter renders the footer bar with key hints.
func (m Model) renderFooter() string {
	keys := []struct {
		key  string
		desc string
	}{
		{"1-2", "switch view"},
	}

	switch {
	case m.trade.Visible:
		if m.trade.Input.Focused() {
			keys = []struct{ key, desc string }{
				{"ctrl+b", "buy"},
				{"ctrl+s", "sell"},
			}
		} else {
			keys = []struct{ key, desc string }{
				{"b", "buy"},
				{"s", "sell"},
			}
		}
		keys = append(keys, struct{ key, desc string }{"tab", "focus"})
		keys = append(keys, struct{ key, desc string }{"esc", "close"})
	case m.currentView == ViewMarket:
		keys = append(keys, struct{ key, desc string }{"↑/↓", "navigate"})
		keys = append(keys, struct{ key, desc string }{"enter/t", "trade"})
	case m.currentView == ViewPortfolio:
		keys = append(keys, struct{ key, desc string }{"↑/↓", "navigate"})
	}

	if !m.trade.Visible {
		keys = append(keys, struct{ key, desc string }{"q", "quit"})
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, KeyStyle.Render(k.key)+" "+DescStyle.Render(k.desc))
	}

	footerContent := strings.Join(parts, "  •  ")

	// Pad to full width
	padding := m.width - lipgloss.Width(footerContent)
	if padding > 0 {
		footerContent += strings.Repeat(" ", padding)
	}

	return lipgloss.NewStyle().
		Background(ColorBackground).
		Width(m.width).
		Render(footerContent)
}
