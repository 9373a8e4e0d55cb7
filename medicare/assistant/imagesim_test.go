package assistant

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestSimulatorCannedReply(t *testing.T) {
	sim := NewImageAnalysisSimulator(10 * time.Millisecond)
	start := time.Now()
	got := sim.Respond(context.Background(), "uploads/s1/key")
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("returned before the analysis delay (%v)", elapsed)
	}
	if got != simulatedImageFinding {
		t.Errorf("reply = %q", got)
	}
	if !strings.Contains(got, "Please consult a certified Medicare doctor") {
		t.Error("reply must carry the referral disclaimer")
	}
}

func TestSimulatorIgnoresImageContent(t *testing.T) {
	sim := NewImageAnalysisSimulator(time.Millisecond)
	a := sim.Respond(context.Background(), "one")
	b := sim.Respond(context.Background(), "two")
	if a != b {
		t.Error("simulator must answer identically for any image")
	}
}

func TestSimulatorContextCancel(t *testing.T) {
	sim := NewImageAnalysisSimulator(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan string, 1)
	go func() { done <- sim.Respond(ctx, "key") }()
	select {
	case got := <-done:
		if got != simulatedImageFinding {
			t.Errorf("reply = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled analysis did not return")
	}
}
