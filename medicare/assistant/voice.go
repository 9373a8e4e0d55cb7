package assistant

import (
	"context"
	"sync"
)

// Recognizer is the speech recognition boundary. Recognize runs one
// capture session and returns the first transcript or an error; no
// partial results, no retry.
type Recognizer interface {
	Recognize(ctx context.Context, lang string) (string, error)
}

// VoiceInputController performs one-shot speech-to-text capture.
// Capture sessions are single-flight: a second call while one is
// active is rejected with ErrBusy.
type VoiceInputController struct {
	rec  Recognizer
	lang string

	mu        sync.Mutex
	capturing bool
}

func NewVoiceInputController(rec Recognizer, lang string) *VoiceInputController {
	return &VoiceInputController{rec: rec, lang: lang}
}

// CaptureOnce starts exactly one recognition session and waits for its
// single outcome. With no recognizer configured it fails immediately
// with ErrCapabilityUnavailable and leaves no partial state.
func (c *VoiceInputController) CaptureOnce(ctx context.Context) (string, error) {
	if c.rec == nil {
		return "", ErrCapabilityUnavailable
	}
	c.mu.Lock()
	if c.capturing {
		c.mu.Unlock()
		return "", ErrBusy
	}
	c.capturing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.capturing = false
		c.mu.Unlock()
	}()
	return c.rec.Recognize(ctx, c.lang)
}
