package assistant

import "errors"

var (
	// ErrEmptyInput rejects a submission with nothing to analyze.
	ErrEmptyInput = errors.New("please enter symptoms or upload an image")

	// ErrOutOfDomain rejects free text with no recognized symptom term.
	ErrOutOfDomain = errors.New("please enter valid symptoms")

	// ErrBusy enforces the single-flight policy: one in-flight
	// submission (or capture session) at a time.
	ErrBusy = errors.New("another request is already in progress")

	// ErrCapabilityUnavailable means the runtime has no speech support.
	ErrCapabilityUnavailable = errors.New("speech capability not available")

	// ErrSessionClosed rejects operations on a closed session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrSuperseded marks a result that settled after the session was
	// reset; the stale reply is discarded, never appended.
	ErrSuperseded = errors.New("session was reset before the result arrived")

	// ErrNoImage rejects image analysis with no pending upload.
	ErrNoImage = errors.New("no image selected")
)
