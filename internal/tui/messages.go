package tui

import (
	"github.com/jonandersen/tradedesk/internal/api"
	"github.com/jonandersen/tradedesk/internal/feed"
)

// Message types for async operations

// FeedMsg is sent for every event read from the push feed.
type FeedMsg struct {
	Event feed.Event
}

// FeedClosedMsg is sent once the feed's event channel is closed.
type FeedClosedMsg struct{}

// OrderResultMsg is sent when an order submission finishes. Generation is the
// dialog generation the order was submitted from.
type OrderResultMsg struct {
	Generation uint64
	Result     *api.OrderResult
	Err        error
}
