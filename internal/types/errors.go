// internal/types/errors.go
package types

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation covers address, percentage, amount, count and duplicate failures.
	ErrValidation = errors.New("validation failed")

	// ErrNetworkUnavailable is returned when the ledger cannot be reached.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrUserRejected is returned when the wallet declines to sign.
	ErrUserRejected = errors.New("user rejected the request")

	// ErrProvider is an unexpected wallet or network failure.
	ErrProvider = errors.New("provider error")

	// ErrParse covers malformed CSV rows and unreadable input.
	ErrParse = errors.New("parse error")
)

// ErrorKind classifies failures at the workflow boundary.
type ErrorKind int

const (
	KindProvider ErrorKind = iota
	KindValidation
	KindNetworkUnavailable
	KindUserRejected
	KindParse
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetworkUnavailable:
		return "network_unavailable"
	case KindUserRejected:
		return "user_rejected"
	case KindParse:
		return "parse"
	case KindCancelled:
		return "cancelled"
	case KindProvider:
		return "provider"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ValidationError carries every applicable validation message, in check order.
type ValidationError struct {
	Messages []string
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ". ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ParseError describes a single rejected input row. Line is 1-based; 0 means the whole input.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line <= 0 {
		return e.Reason
	}
	return fmt.Sprintf("Line %d: %s", e.Line, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// NetworkError wraps a transport failure with the operation that hit it.
func NetworkError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrNetworkUnavailable, err)
}

// ProviderError wraps an unexpected wallet/network failure.
func ProviderError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrProvider, err)
}

// KindOf maps any error onto the taxonomy. Unknown errors are provider errors.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindProvider
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUserRejected):
		return KindUserRejected
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrNetworkUnavailable), errors.Is(err, context.DeadlineExceeded):
		return KindNetworkUnavailable
	case errors.Is(err, ErrParse):
		return KindParse
	default:
		return KindProvider
	}
}

// UserMessage renders err for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindValidation, KindParse:
		var ve *ValidationError
		if errors.As(err, &ve) {
			return ve.Error()
		}
		var pe *ParseError
		if errors.As(err, &pe) {
			return pe.Error()
		}
		return err.Error()
	case KindUserRejected:
		return "Transaction was rejected in the wallet. You can submit it again."
	case KindCancelled:
		return "Payment cancelled"
	case KindNetworkUnavailable:
		return "Network unavailable: " + err.Error()
	case KindProvider:
		return err.Error()
	}
	return err.Error()
}
