package controllers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"medicare/medicare/assistant"
	"medicare/medicare/config"
	"medicare/medicare/sources/psql/dao"
	"medicare/medicare/sources/psql/models"
	"medicare/medicare/utils/types"
)

type stubGateway struct {
	reply string
}

func (s *stubGateway) Respond(ctx context.Context, input string) string {
	return s.reply
}

type memTranscripts struct {
	mu   sync.Mutex
	rows []models.TranscriptMessage
}

func (m *memTranscripts) SaveMessage(ctx context.Context, sessionID string, userID int, role, content string, sequence int) (*models.TranscriptMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := models.TranscriptMessage{
		SessionID: sessionID, UserID: userID,
		Role: role, Content: content, Sequence: sequence,
	}
	m.rows = append(m.rows, row)
	return &row, nil
}

func (m *memTranscripts) GetBySession(ctx context.Context, userID int, sessionID string) ([]models.TranscriptMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TranscriptMessage
	for _, r := range m.rows {
		if r.SessionID == sessionID && r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memTranscripts) DeleteSession(ctx context.Context, userID int, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	deleted := 0
	for _, r := range m.rows {
		if r.SessionID == sessionID && r.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	if deleted == 0 {
		return dao.ErrSessionNotFound
	}
	return nil
}

func newTestController() *AssistantController {
	gw := &stubGateway{reply: "Possibly a cold. Please consult a certified Medicare doctor. I am not a licensed medical professional."}
	return NewAssistantController(gw, nil, nil, config.Config{})
}

func TestSubmitCreatesSession(t *testing.T) {
	ctrl := newTestController()
	resp, err := ctrl.Submit(context.Background(), 1, types.ChatRequest{Content: "I have a sore throat"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.SessionID == "" {
		t.Error("missing generated session id")
	}
	if !strings.HasPrefix(resp.Response, "Possibly a cold.") {
		t.Errorf("response = %q", resp.Response)
	}

	msgs, err := ctrl.Messages(1, resp.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 { // welcome + user + assistant
		t.Errorf("log length = %d", len(msgs))
	}
}

func TestSubmitReusesSession(t *testing.T) {
	ctrl := newTestController()
	first, err := ctrl.Submit(context.Background(), 1, types.ChatRequest{Content: "headache"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := ctrl.Submit(context.Background(), 1, types.ChatRequest{
		SessionID: first.SessionID, Content: "still have the headache",
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.SessionID != first.SessionID {
		t.Error("session id changed between turns")
	}
	msgs, _ := ctrl.Messages(1, first.SessionID)
	if len(msgs) != 5 {
		t.Errorf("log length = %d, want 5", len(msgs))
	}
}

func TestSubmitRejectsOtherUsersSession(t *testing.T) {
	ctrl := newTestController()
	resp, err := ctrl.Submit(context.Background(), 1, types.ChatRequest{Content: "fever"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = ctrl.Submit(context.Background(), 2, types.ChatRequest{
		SessionID: resp.SessionID, Content: "fever",
	})
	if !errors.Is(err, ErrSessionUnknown) {
		t.Errorf("err = %v, want ErrSessionUnknown", err)
	}
}

func TestSubmitValidationSurfaced(t *testing.T) {
	ctrl := newTestController()
	_, err := ctrl.Submit(context.Background(), 1, types.ChatRequest{Content: "buy me groceries"})
	if !errors.Is(err, assistant.ErrOutOfDomain) {
		t.Errorf("err = %v, want ErrOutOfDomain", err)
	}
}

func TestResetRestartsConversation(t *testing.T) {
	ctrl := newTestController()
	resp, err := ctrl.Submit(context.Background(), 1, types.ChatRequest{Content: "fever"})
	if err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Reset(context.Background(), 1, resp.SessionID); err != nil {
		t.Fatal(err)
	}
	msgs, err := ctrl.Messages(1, resp.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Sequence != 0 {
		t.Errorf("log after reset = %+v", msgs)
	}
}

func TestEndSessionForgetsIt(t *testing.T) {
	ctrl := newTestController()
	resp, err := ctrl.Submit(context.Background(), 1, types.ChatRequest{Content: "fever"})
	if err != nil {
		t.Fatal(err)
	}
	if err := ctrl.EndSession(context.Background(), 1, resp.SessionID); err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.Messages(1, resp.SessionID); !errors.Is(err, ErrSessionUnknown) {
		t.Errorf("err = %v, want ErrSessionUnknown", err)
	}
}

func TestHistoryOutlivesSession(t *testing.T) {
	store := &memTranscripts{}
	gw := &stubGateway{reply: "Possibly a cold. Please consult a certified Medicare doctor. I am not a licensed medical professional."}
	ctrl := NewAssistantController(gw, store, nil, config.Config{})

	resp, err := ctrl.Submit(context.Background(), 1, types.ChatRequest{Content: "fever"})
	if err != nil {
		t.Fatal(err)
	}
	if err := ctrl.EndSession(context.Background(), 1, resp.SessionID); err != nil {
		t.Fatal(err)
	}

	rows, err := ctrl.History(context.Background(), 1, resp.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 { // user + assistant turn
		t.Fatalf("persisted rows = %d, want 2", len(rows))
	}
	if rows[0].Role != "user" || rows[1].Role != "assistant" {
		t.Errorf("persisted order = %s, %s", rows[0].Role, rows[1].Role)
	}

	// another user cannot read it
	other, err := ctrl.History(context.Background(), 2, resp.SessionID)
	if err != nil || len(other) != 0 {
		t.Errorf("cross-user history = %v, %v", other, err)
	}
}

func TestDeleteHistory(t *testing.T) {
	store := &memTranscripts{}
	ctrl := NewAssistantController(&stubGateway{reply: "r"}, store, nil, config.Config{})

	resp, err := ctrl.Submit(context.Background(), 1, types.ChatRequest{Content: "fever"})
	if err != nil {
		t.Fatal(err)
	}
	if err := ctrl.DeleteHistory(context.Background(), 1, resp.SessionID); err != nil {
		t.Fatal(err)
	}
	rows, err := ctrl.History(context.Background(), 1, resp.SessionID)
	if err != nil || len(rows) != 0 {
		t.Errorf("history after delete = %v, %v", rows, err)
	}
	if err := ctrl.DeleteHistory(context.Background(), 1, resp.SessionID); !errors.Is(err, dao.ErrSessionNotFound) {
		t.Errorf("second delete err = %v, want ErrSessionNotFound", err)
	}
}

func TestHistoryWithoutTranscriptStore(t *testing.T) {
	ctrl := newTestController()
	if _, err := ctrl.History(context.Background(), 1, "s-1"); !errors.Is(err, ErrNoTranscriptStore) {
		t.Errorf("history err = %v, want ErrNoTranscriptStore", err)
	}
	if err := ctrl.DeleteHistory(context.Background(), 1, "s-1"); !errors.Is(err, ErrNoTranscriptStore) {
		t.Errorf("delete err = %v, want ErrNoTranscriptStore", err)
	}
}

func TestUploadWithoutImageStore(t *testing.T) {
	ctrl := newTestController()
	_, err := ctrl.UploadImage(context.Background(), 1, "", strings.NewReader("img"), 3, "image/png")
	if !errors.Is(err, ErrNoImageStore) {
		t.Errorf("err = %v, want ErrNoImageStore", err)
	}
}

func TestVoiceWithoutBridgeClient(t *testing.T) {
	ctrl := newTestController()
	resp, err := ctrl.Submit(context.Background(), 1, types.ChatRequest{Content: "fever"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = ctrl.SubmitVoice(context.Background(), 1, resp.SessionID)
	if err == nil {
		t.Error("voice capture must fail with no speech client attached")
	}
}
