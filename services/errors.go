package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrClientNotFound     = errors.New("client not found")
	ErrQuotaExceeded      = errors.New("monthly SMS quota exceeded")
	ErrRunInProgress      = errors.New("run already in progress")
	ErrUnsupportedMethod  = errors.New("unsupported delivery method")
	ErrMissingDestination = errors.New("client has no destination for delivery method")
	ErrNoClients          = errors.New("no clients selected")
	ErrNoReceipt          = errors.New("transport returned no receipt")
)

// DeliveryError is returned by a Channel when its transport rejects a message.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
