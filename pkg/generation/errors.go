package generation

import "errors"

var (
	// ErrRunNotActive indicates the run exists but is no longer driving an engine.
	ErrRunNotActive = errors.New("generation run is not active")

	// ErrCancelNotConfirmed indicates a cancellation was requested without the
	// user's confirming acknowledgment.
	ErrCancelNotConfirmed = errors.New("cancellation requires confirmation")
)
