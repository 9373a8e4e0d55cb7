package assistant

import "sync"

// Synthesizer is the speech synthesis boundary. Cancel silences any
// in-progress utterance immediately and is a no-op when idle.
type Synthesizer interface {
	Speak(text, lang string) error
	Cancel()
}

// SpeechOutputController owns at most one active utterance for its
// session. Policy is latest-wins: a new Speak preempts whatever is
// playing instead of queuing behind it.
type SpeechOutputController struct {
	mu     sync.Mutex
	synth  Synthesizer
	lang   string
	active bool
}

func NewSpeechOutputController(synth Synthesizer, lang string) *SpeechOutputController {
	return &SpeechOutputController{synth: synth, lang: lang}
}

// Speak cancels any active utterance and starts a new one for text.
// With no synthesizer configured it reports ErrCapabilityUnavailable.
func (c *SpeechOutputController) Speak(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.synth == nil {
		return ErrCapabilityUnavailable
	}
	if c.active {
		c.synth.Cancel()
		c.active = false
	}
	if err := c.synth.Speak(text, c.lang); err != nil {
		return err
	}
	c.active = true
	return nil
}

// Stop cancels the active utterance, if any.
func (c *SpeechOutputController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.synth == nil || !c.active {
		return
	}
	c.synth.Cancel()
	c.active = false
}
