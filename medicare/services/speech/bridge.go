package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"medicare/medicare/utils/logging"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// ErrNotConnected means no browser client is attached, so the speech
// capabilities are unavailable.
var ErrNotConnected = errors.New("no speech client connected")

// Event is one message on the speech channel. The browser owns the
// actual Web Speech API calls; the server only relays commands and
// consumes results.
type Event struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Lang   string `json:"lang,omitempty"`
	Reason string `json:"reason,omitempty"`
}

const (
	EventSpeak      = "speak"
	EventCancel     = "cancel"
	EventListen     = "listen"
	EventTranscript = "transcript"
	EventError      = "error"
)

// Bridge relays speech synthesis and recognition over one websocket to
// the browser client. It satisfies the session's Synthesizer and
// Recognizer boundaries; with no client attached both capabilities
// report ErrNotConnected.
type Bridge struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	capture chan Event
}

func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach takes ownership of conn, superseding any previous client.
func (b *Bridge) Attach(conn *websocket.Conn) {
	b.mu.Lock()
	old := b.conn
	b.conn = conn
	b.mu.Unlock()
	if old != nil {
		old.Close(websocket.StatusNormalClosure, "superseded")
	}
}

// Detach drops conn if it is still the active client.
func (b *Bridge) Detach(conn *websocket.Conn) {
	b.mu.Lock()
	if b.conn == conn {
		b.conn = nil
	}
	b.mu.Unlock()
}

func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

func (b *Bridge) send(ev Event) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

// Speak relays one utterance to the client.
func (b *Bridge) Speak(text, lang string) error {
	return b.send(Event{Type: EventSpeak, Text: text, Lang: lang})
}

// Cancel silences the client immediately. Best effort: a no-op when
// idle or disconnected.
func (b *Bridge) Cancel() {
	if err := b.send(Event{Type: EventCancel}); err != nil && !errors.Is(err, ErrNotConnected) {
		logging.AppLogger.Info("speech cancel not delivered", zap.Error(err))
	}
}

// Recognize asks the client to run one capture session and waits for
// its single transcript or error event.
func (b *Bridge) Recognize(ctx context.Context, lang string) (string, error) {
	b.mu.Lock()
	if b.conn == nil {
		b.mu.Unlock()
		return "", ErrNotConnected
	}
	if b.capture != nil {
		b.mu.Unlock()
		return "", errors.New("capture session already active")
	}
	ch := make(chan Event, 1)
	b.capture = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.capture = nil
		b.mu.Unlock()
	}()

	if err := b.send(Event{Type: EventListen, Lang: lang}); err != nil {
		return "", err
	}
	select {
	case ev := <-ch:
		if ev.Type == EventError {
			return "", fmt.Errorf("speech recognition error: %s", ev.Reason)
		}
		return ev.Text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Serve reads client events until conn closes. Transcript and error
// events feed the active capture session; anything else is ignored.
func (b *Bridge) Serve(ctx context.Context, conn *websocket.Conn) {
	b.Attach(conn)
	defer b.Detach(conn)
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			logging.ErrorLogger.Error("bad speech event", zap.Error(err))
			continue
		}
		if ev.Type != EventTranscript && ev.Type != EventError {
			continue
		}
		b.mu.Lock()
		ch := b.capture
		b.mu.Unlock()
		if ch != nil {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
