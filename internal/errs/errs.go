// SPDX-License-Identifier: MIT
package errs

import "errors"

// Sentinel errors shared by the engine components.
// Callers classify them with errors.Is; components wrap them with context.

// Lifecycle errors.
var (
	// ErrNotInitialized indicates a command that needs a live graph was issued
	// before Initialize.
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrAlreadyInitialized indicates Initialize was called twice without a
	// Shutdown in between.
	ErrAlreadyInitialized = errors.New("engine already initialized")

	// ErrSourceUnavailable indicates the input device is missing or access to
	// it was denied.
	ErrSourceUnavailable = errors.New("audio source unavailable")
)

// Command errors.
var (
	// ErrInvalidVariant indicates an unknown processing variant identifier.
	ErrInvalidVariant = errors.New("invalid processing variant")

	// ErrInvalidState indicates a command that the current state forbids.
	ErrInvalidState = errors.New("invalid state")

	// ErrDecodeFailed indicates the captured audio could not be decoded.
	ErrDecodeFailed = errors.New("decode failed")
)

// Message maps an error to the short status line shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotInitialized):
		return "Start the lab first"
	case errors.Is(err, ErrAlreadyInitialized):
		return "Lab is already running"
	case errors.Is(err, ErrSourceUnavailable):
		return "Microphone unavailable or permission denied"
	case errors.Is(err, ErrInvalidVariant):
		return "Unknown codec"
	case errors.Is(err, ErrInvalidState):
		return "Not available right now"
	case errors.Is(err, ErrDecodeFailed):
		return "Recording could not be decoded"
	default:
		return "Unexpected error"
	}
}
