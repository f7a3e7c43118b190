package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrStoreUnavailable - the durable medium could not be written; the operation
	// left no trace and the caller may retry
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidEventType - an event draft carried a type outside the closed set;
	// indicates a core bug, never user input
	ErrInvalidEventType = errors.New("invalid event type")

	// ErrUnknownRole - the requested role is not in the catalog (rejected before any append)
	ErrUnknownRole = errors.New("unknown role")

	// ErrUnknownProviderModel - the requested provider/model pair is not in the catalog
	ErrUnknownProviderModel = errors.New("unknown provider/model")

	// ErrExternalCall - the AI backend failed or timed out; no event was recorded,
	// safe to retry
	ErrExternalCall = errors.New("external call failed")

	// ErrInvalidInput - malformed user input (empty prompt, bad query range)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound - referenced resource does not exist (e.g. correction target id)
	ErrNotFound = errors.New("not found")

	// ErrTransient - transient failure, retry with backoff
	ErrTransient = errors.New("transient error")

	// ErrInternal - internal error, generic message plus trace id for the caller
	ErrInternal = errors.New("internal error")
)
