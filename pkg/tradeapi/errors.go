package tradeapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTransport marks failures where no usable answer came back from the
// server: network errors, timeouts and unparseable bodies.
var ErrTransport = errors.New("transport failure")

// APIError represents an HTTP-level error from the trading server.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, msg)
}

// IsNotFound returns true if the error is a 404 Not Found.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401 Unauthorized.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// OrderRejectedError is returned when the server answers an order with an
// error message. Message is shown to the user verbatim.
type OrderRejectedError struct {
	StatusCode int
	Message    string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("order rejected (%d): %s", e.StatusCode, e.Message)
}

// RejectionMessage returns the server's message if err is an order
// rejection.
func RejectionMessage(err error) (string, bool) {
	var rej *OrderRejectedError
	if errors.As(err, &rej) {
		return rej.Message, true
	}
	return "", false
}
