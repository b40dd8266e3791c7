package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jonandersen/tradedesk/internal/api"
	"github.com/jonandersen/tradedesk/internal/desk"
	"github.com/jonandersen/tradedesk/internal/feed"
	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

// OrderPlacer submits orders. *api.Client implements it.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order tradeapi.OrderRequest) (*api.OrderResult, error)
}

// WaitForFeed returns a command that blocks until the next feed event.
// The model re-issues it after every FeedMsg.
func WaitForFeed(events <-chan feed.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return FeedClosedMsg{}
		}
		return FeedMsg{Event: ev}
	}
}

// SubmitOrder returns a command that places sub's order and reports the
// outcome as an OrderResultMsg.
func SubmitOrder(placer OrderPlacer, sub desk.Submission) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
		defer cancel()

		res, err := placer.PlaceOrder(ctx, sub.Order)
		return OrderResultMsg{Generation: sub.Generation, Result: res, Err: err}
	}
}
