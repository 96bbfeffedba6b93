package storage

import "errors"

// Failure classes for the storage pipeline. Callers match with errors.Is
// instead of inspecting message text.
var (
	// ErrPayment marks deposit/approval failures (revert, insufficient
	// funds). These block the upload and never degrade to local-only
	// storage silently; the user must retry payment explicitly.
	ErrPayment = errors.New("storage payment failed")

	// ErrSignerTiming marks the race between wallet connection and signer
	// availability. The pipeline waits and retries before giving up.
	ErrSignerTiming = errors.New("signer not available")

	// ErrLocalFallback marks a transient storage failure that degraded to
	// local-only persistence of the prompt.
	ErrLocalFallback = errors.New("stored locally only")
)
