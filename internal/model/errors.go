package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three failure kinds.
// Use errors.Is() to check against these.
var (
	ErrValidation  = errors.New("validation failed")
	ErrRejected    = errors.New("rejected by backend")
	ErrUnreachable = errors.New("backend unreachable")
)

// Validation reason codes.
const (
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeNoAddress           = "NO_ADDRESS"
	CodeNoSelection         = "NO_SELECTION"
	CodeDuplicateItem       = "DUPLICATE_ITEM"
	CodeInvalidQuantity     = "INVALID_QUANTITY"
	CodeNotLoggedIn         = "NOT_LOGGED_IN"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeCartIncomplete      = "CART_INCOMPLETE"
)

// Codes for the non-validation kinds.
const (
	CodeBackendRejected    = "BACKEND_REJECTED"
	CodeBackendUnreachable = "BACKEND_UNREACHABLE"
	CodeInternal           = "INTERNAL_ERROR"
	CodeInvalidRequest     = "INVALID_REQUEST"
)

// UnreachableMessage is shown for every transport-level failure.
const UnreachableMessage = "Something went wrong. Check that the backend is running, reachable and returns valid JSON."

var validationMessages = map[string]string{
	CodeInsufficientBalance: "You do not have enough balance in your wallet for this purchase",
	CodeNoAddress:           "Please add a new address before proceeding.",
	CodeNoSelection:         "Please select one shipping address to proceed.",
	CodeDuplicateItem:       "Item already in cart. Use the cart sidebar to update quantity or remove item.",
	CodeInvalidQuantity:     "Quantity must be at least 1.",
	CodeNotLoggedIn:         "Login to continue.",
	CodeCartIncomplete:      "Some products in your cart are no longer available. Review your cart before checking out.",
}

// APIError is the single structured error type surfaced to callers.
// StatusCode is the HTTP status the daemon answers with; Body keeps the raw
// backend payload for rejections so callers can recover fallback data.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Body       []byte `json:"-"`
	Err        error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a local precondition failure. No network call
// has been made when one of these is returned.
func NewValidationError(code string) *APIError {
	msg, ok := validationMessages[code]
	if !ok {
		msg = "invalid request"
	}
	return &APIError{
		Code:       code,
		Message:    msg,
		StatusCode: 422,
		Err:        ErrValidation,
	}
}

// NewCredentialsError creates a validation error for login/register form input.
func NewCredentialsError(reason string) *APIError {
	return &APIError{
		Code:       CodeInvalidCredentials,
		Message:    reason,
		StatusCode: 422,
		Err:        ErrValidation,
	}
}

// NewBadRequestError creates a 400 for malformed daemon requests.
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Code:       CodeInvalidRequest,
		Message:    message,
		StatusCode: 400,
		Err:        ErrValidation,
	}
}

// NewRejectionError creates an error for a structured non-2xx backend answer.
// message is the backend's own text and is surfaced verbatim.
func NewRejectionError(status int, message string, body []byte) *APIError {
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &APIError{
		Code:       CodeBackendRejected,
		Message:    message,
		StatusCode: status,
		Body:       body,
		Err:        ErrRejected,
	}
}

// NewUnreachableError creates a 502 error for transport failures and
// responses that could not be decoded.
func NewUnreachableError(err error) *APIError {
	return &APIError{
		Code:       CodeBackendUnreachable,
		Message:    UnreachableMessage,
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrUnreachable, err),
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       CodeInternal,
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}

// ReasonCode returns the machine-readable code carried by err, or
// CodeInternal when err is not an *APIError.
func ReasonCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return CodeInternal
}

// UserMessage returns the text that should be shown to a person.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
