// internal/services/errors.go
package services

import "errors"

// Sentinel errors shared by the purchase core. Handlers map these onto
// HTTP status codes; services wrap them with fmt.Errorf("...: %w", err)
// when adding context.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrPriceMismatch      = errors.New("price mismatch")
	ErrAlreadyOwned       = errors.New("already owned")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrUnknownReference   = errors.New("unknown provider reference")
	ErrForbidden          = errors.New("forbidden")
	ErrMethodNotSupported = errors.New("payment method not supported")
	ErrDownloadLimit      = errors.New("download limit reached")
)

// InputError marks a request-level fault the caller can correct, such
// as a state-machine violation or a rejected field value. Handlers
// render these as 400s with the message intact; any other non-sentinel
// service error is reported as an opaque 500.
type InputError struct {
	Msg string
	Err error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *InputError) Unwrap() error { return e.Err }

func errInput(msg string) error {
	return &InputError{Msg: msg}
}
