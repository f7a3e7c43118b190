package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MapExternal maps errors returned by AI provider SDKs to the chorus taxonomy.
// Context cancellation propagates as-is so callers can distinguish an aborted
// turn from a failed backend.
func MapExternal(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timeout: %w", ErrExternalCall)
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "rate limit"), strings.Contains(errStr, "quota"), strings.Contains(errStr, "too many requests"):
		return fmt.Errorf("rate limited: %w", ErrExternalCall)

	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return fmt.Errorf("request timeout: %w", ErrExternalCall)

	case strings.Contains(errStr, "network"), strings.Contains(errStr, "connection"), strings.Contains(errStr, "unreachable"):
		return fmt.Errorf("network error: %w", ErrExternalCall)

	case strings.Contains(errStr, "unauthorized"), strings.Contains(errStr, "forbidden"), strings.Contains(errStr, "api key"):
		return fmt.Errorf("authentication rejected: %w", ErrExternalCall)

	default:
		return fmt.Errorf("%s: %w", err.Error(), ErrExternalCall)
	}
}

// Category returns the taxonomy name for an error, for structured reporting
// upward (the web/CLI layer never sees raw internal errors).
func Category(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return "StoreUnavailable"
	case errors.Is(err, ErrInvalidEventType):
		return "InvalidEventType"
	case errors.Is(err, ErrUnknownRole):
		return "UnknownRole"
	case errors.Is(err, ErrUnknownProviderModel):
		return "UnknownProviderModel"
	case errors.Is(err, ErrExternalCall):
		return "ExternalCallFailure"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrTransient):
		return "Transient"
	case errors.Is(err, ErrInternal):
		return "Internal"
	default:
		return "Unknown"
	}
}

// IsRetryable reports whether the caller may retry the operation without
// risking duplicate history. Validation errors and store failures leave no
// partial events, so everything except a core bug is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrExternalCall) ||
		errors.Is(err, ErrTransient)
}

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// StoreUnavailable wraps a storage failure.
func StoreUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%v: %w", err, ErrStoreUnavailable)
}

// InvalidInput wraps error as invalid input.
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// NotFound wraps error as not found.
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// Internal wraps error as internal.
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}
