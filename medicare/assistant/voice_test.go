package assistant

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRecognizer struct {
	transcript string
	err        error
	block      chan struct{}
	started    chan struct{}
}

func (f *fakeRecognizer) Recognize(ctx context.Context, lang string) (string, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.transcript, f.err
}

func TestCaptureOnce(t *testing.T) {
	c := NewVoiceInputController(&fakeRecognizer{transcript: "I have a cough"}, DefaultLang)
	got, err := c.CaptureOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "I have a cough" {
		t.Errorf("transcript = %q", got)
	}
}

func TestCaptureUnavailable(t *testing.T) {
	c := NewVoiceInputController(nil, DefaultLang)
	if _, err := c.CaptureOnce(context.Background()); !errors.Is(err, ErrCapabilityUnavailable) {
		t.Errorf("err = %v, want ErrCapabilityUnavailable", err)
	}
}

func TestCaptureError(t *testing.T) {
	wantErr := errors.New("no speech detected")
	c := NewVoiceInputController(&fakeRecognizer{err: wantErr}, DefaultLang)
	if _, err := c.CaptureOnce(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestCaptureSingleFlight(t *testing.T) {
	rec := &fakeRecognizer{
		transcript: "fever",
		block:      make(chan struct{}),
		started:    make(chan struct{}, 1),
	}
	c := NewVoiceInputController(rec, DefaultLang)

	done := make(chan error, 1)
	go func() {
		_, err := c.CaptureOnce(context.Background())
		done <- err
	}()
	<-rec.started

	if _, err := c.CaptureOnce(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent capture err = %v, want ErrBusy", err)
	}

	close(rec.block)
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("first capture failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first capture never finished")
	}

	// single-flight releases after completion
	if _, err := c.CaptureOnce(context.Background()); err != nil {
		t.Errorf("capture after release failed: %v", err)
	}
}
