package entity

import (
	"errors"
	"fmt"
	"net/http"
)

type DeliveryErrorKind int

const (
	DeliveryOther DeliveryErrorKind = iota
	DeliveryHTTPStatus
	DeliveryConnection
)

func (k DeliveryErrorKind) String() string {
	switch k {
	case DeliveryHTTPStatus:
		return "HTTPStatusError"
	case DeliveryConnection:
		return "ConnectionError"
	default:
		return "DeliveryError"
	}
}

// DeliveryError is a failed call to the catalog, classified where it happened.
type DeliveryError struct {
	Kind       DeliveryErrorKind
	StatusCode int
	Body       string
	Message    string
	Err        error
}

func NewHTTPStatusError(statusCode int, body string) *DeliveryError {
	return &DeliveryError{
		Kind:       DeliveryHTTPStatus,
		StatusCode: statusCode,
		Body:       body,
		Message:    fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
	}
}

func NewConnectionError(err error) *DeliveryError {
	return &DeliveryError{Kind: DeliveryConnection, Message: err.Error(), Err: err}
}

func NewDeliveryError(message string, err error) *DeliveryError {
	return &DeliveryError{Kind: DeliveryOther, Message: message, Err: err}
}

func (e *DeliveryError) Error() string {
	switch e.Kind {
	case DeliveryHTTPStatus:
		return fmt.Sprintf("catalog responded with %s", e.Message)
	case DeliveryConnection:
		return fmt.Sprintf("catalog unreachable: %s", e.Message)
	default:
		return e.Message
	}
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// AsDeliveryError returns the first DeliveryError in err's chain.
func AsDeliveryError(err error) (*DeliveryError, bool) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de, true
	}

	return nil, false
}
