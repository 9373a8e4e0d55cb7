package assistant

import (
	"context"
	"time"
)

// simulatedImageFinding is the canned reply returned for every
// analyzed image until a real inference backend replaces the
// simulator.
const simulatedImageFinding = "The uploaded image may show signs of a potential skin condition (possibly skin cancer). Please consult a certified Medicare doctor for a professional diagnosis."

const defaultAnalysisDelay = 2500 * time.Millisecond

// ImageAnalysisSimulator stands in for a future image classification
// backend. It satisfies Responder, the same shape as the AI gateway,
// so the submission path never has to change when a genuine inference
// call is wired in.
type ImageAnalysisSimulator struct {
	delay time.Duration
}

func NewImageAnalysisSimulator(delay time.Duration) *ImageAnalysisSimulator {
	if delay <= 0 {
		delay = defaultAnalysisDelay
	}
	return &ImageAnalysisSimulator{delay: delay}
}

// Respond waits the fixed analysis delay and returns the canned
// suggestion regardless of image content.
func (s *ImageAnalysisSimulator) Respond(ctx context.Context, _ string) string {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return simulatedImageFinding
}
