package subscription

import (
	"errors"
	"fmt"
)

// ErrInvalidToken is returned when a confirmation token cannot be resolved
// to a subscriber. Unknown and malformed tokens are deliberately
// indistinguishable here, so responses leak nothing about what issued
// tokens look like.
var ErrInvalidToken = errors.New("invalid confirmation token")

// ValidationError reports malformed subscriber input. Always client-caused;
// nothing was written and no email was sent.
type ValidationError struct {
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid subscriber data: %v", e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// StorageError reports a storage-layer failure: constraint violation,
// connection failure or transaction failure. Never retried here.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// DeliveryError reports that the confirmation email could not be dispatched.
// The subscriber and token were already stored and remain pending, so a
// later resend can recover without the user re-subscribing.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("could not deliver confirmation email: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
