package feed

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonandersen/tradedesk/pkg/tradeapi"
)

// ErrUnknownEvent is returned by Decode for envelopes with an event name it
// does not handle.
var ErrUnknownEvent = errors.New("unknown event")

// Event is anything the feed delivers on its channel.
type Event interface {
	feedEvent()
}

// Updates carries a full board snapshot keyed by symbol.
type Updates struct {
	Stocks map[string]tradeapi.Quote
}

// PortfolioUpdate carries a portfolio push. It is addressed to Email and
// broadcast to every viewer.
type PortfolioUpdate struct {
	tradeapi.PortfolioEvent
}

// StatusChange reports a connection state transition. Err is the cause for
// StatusReconnecting.
type StatusChange struct {
	Status Status
	Err    error
}

func (Updates) feedEvent()         {}
func (PortfolioUpdate) feedEvent() {}
func (StatusChange) feedEvent()    {}

// Status is the state of the feed connection.
type Status int

const (
	StatusConnecting Status = iota
	StatusLive
	StatusReconnecting
	StatusClosed
)

// String returns a short human label.
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusLive:
		return "live"
	case StatusReconnecting:
		return "reconnecting"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Decode parses one push frame.
func Decode(frame []byte) (Event, error) {
	var env tradeapi.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Event {
	case tradeapi.EventUpdates:
		var data tradeapi.UpdatesEvent
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", env.Event, err)
		}
		if data.Stocks == nil {
			return nil, fmt.Errorf("invalid %s payload: missing stocks", env.Event)
		}
		return Updates{Stocks: data.Stocks}, nil

	case tradeapi.EventPortfolioUpdate:
		var data tradeapi.PortfolioEvent
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", env.Event, err)
		}
		return PortfolioUpdate{PortfolioEvent: data}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}
