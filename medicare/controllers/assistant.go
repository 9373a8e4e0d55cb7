package controllers

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"medicare/medicare/assistant"
	"medicare/medicare/config"
	"medicare/medicare/services/speech"
	"medicare/medicare/sources/psql/models"
	"medicare/medicare/sources/storage"
	"medicare/medicare/utils/logging"
	"medicare/medicare/utils/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionUnknown    = errors.New("session not found or forbidden")
	ErrNoImageStore      = errors.New("image storage not configured")
	ErrNoTranscriptStore = errors.New("transcript storage not configured")
)

// TranscriptStore is the persistence surface the controller needs:
// append rows as turns complete, read a session's transcript back,
// drop it on request.
type TranscriptStore interface {
	SaveMessage(ctx context.Context, sessionID string, userID int, role, content string, sequence int) (*models.TranscriptMessage, error)
	GetBySession(ctx context.Context, userID int, sessionID string) ([]models.TranscriptMessage, error)
	DeleteSession(ctx context.Context, userID int, sessionID string) error
}

// sessionEntry pairs a live session with its browser speech bridge.
type sessionEntry struct {
	session *assistant.Session
	bridge  *speech.Bridge
	userID  int
}

// AssistantController owns the live sessions and exposes them to the
// HTTP surface. Transcript persistence and image storage degrade to
// no-ops when their backends are absent.
type AssistantController struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry

	gateway     assistant.Responder
	classifier  *assistant.InputClassifier
	transcripts TranscriptStore
	images      *storage.ImageStore
	cfg         config.Config
}

func NewAssistantController(gateway assistant.Responder, transcripts TranscriptStore, images *storage.ImageStore, cfg config.Config) *AssistantController {
	classifier := assistant.NewInputClassifier()
	if cfg.VocabularyFile != "" {
		c, err := assistant.NewInputClassifierFromFile(cfg.VocabularyFile)
		if err != nil {
			logging.ErrorLogger.Error("vocabulary load failed",
				zap.String("path", cfg.VocabularyFile), zap.Error(err))
		} else {
			classifier = c
		}
	}
	return &AssistantController{
		sessions:    make(map[string]*sessionEntry),
		gateway:     gateway,
		classifier:  classifier,
		transcripts: transcripts,
		images:      images,
		cfg:         cfg,
	}
}

func (c *AssistantController) get(sessionID string, userID int) (*sessionEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.sessions[sessionID]
	if !ok || e.userID != userID {
		return nil, ErrSessionUnknown
	}
	return e, nil
}

func (c *AssistantController) getOrCreate(sessionID string, userID int) (*sessionEntry, string, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.sessions[sessionID]; ok {
		if e.userID != userID {
			return nil, "", ErrSessionUnknown
		}
		return e, sessionID, nil
	}

	bridge := speech.NewBridge()
	var releaser assistant.ImageReleaser
	if c.images != nil {
		releaser = c.images
	}
	sess := assistant.NewSession(sessionID, assistant.Config{}, assistant.Deps{
		Classifier: c.classifier,
		Gateway:    c.gateway,
		Synth:      bridge,
		Recognizer: bridge,
		Releaser:   releaser,
	})
	if c.transcripts != nil {
		sess.SetObserver(func(msg assistant.ChatMessage) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := c.transcripts.SaveMessage(ctx, sessionID, userID, string(msg.Role), msg.Content, msg.Sequence); err != nil {
				logging.ErrorLogger.Error("transcript save failed",
					zap.String("session_id", sessionID), zap.Error(err))
			}
		})
	}
	e := &sessionEntry{session: sess, bridge: bridge, userID: userID}
	c.sessions[sessionID] = e
	return e, sessionID, nil
}

// Submit runs one text turn. A missing session id starts a new session.
func (c *AssistantController) Submit(ctx context.Context, userID int, req types.ChatRequest) (*types.SubmitResponse, error) {
	e, sessionID, err := c.getOrCreate(req.SessionID, userID)
	if err != nil {
		return nil, err
	}
	msg, err := e.session.SubmitText(ctx, req.Content)
	if err != nil {
		return nil, err
	}
	return &types.SubmitResponse{SessionID: sessionID, Response: msg.Content}, nil
}

// SubmitVoice captures one utterance through the session's speech
// bridge and feeds the transcript into the text path.
func (c *AssistantController) SubmitVoice(ctx context.Context, userID int, sessionID string) (*types.SubmitResponse, error) {
	e, sessionID, err := c.getOrCreate(sessionID, userID)
	if err != nil {
		return nil, err
	}
	transcript, msg, err := e.session.SubmitVoice(ctx)
	if err != nil {
		return nil, err
	}
	return &types.SubmitResponse{SessionID: sessionID, Response: msg.Content, Transcript: transcript}, nil
}

// UploadImage stores the file and attaches its handle to the session.
func (c *AssistantController) UploadImage(ctx context.Context, userID int, sessionID string, r io.Reader, size int64, contentType string) (*types.UploadResponse, error) {
	if c.images == nil {
		return nil, ErrNoImageStore
	}
	e, sessionID, err := c.getOrCreate(sessionID, userID)
	if err != nil {
		return nil, err
	}
	key, err := c.images.Upload(ctx, sessionID, r, size, contentType)
	if err != nil {
		return nil, err
	}
	if err := e.session.AttachImage(ctx, key); err != nil {
		if rerr := c.images.Release(ctx, key); rerr != nil {
			logging.ErrorLogger.Error("orphan upload cleanup failed", zap.Error(rerr))
		}
		return nil, err
	}
	url, err := c.images.PreviewURL(ctx, key)
	if err != nil {
		logging.ErrorLogger.Error("preview url failed", zap.Error(err))
		url = ""
	}
	return &types.UploadResponse{SessionID: sessionID, PreviewURL: url}, nil
}

// AnalyzeImage runs the pending upload through the analysis pipeline.
func (c *AssistantController) AnalyzeImage(ctx context.Context, userID int, sessionID string) (*types.SubmitResponse, error) {
	e, err := c.get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	msg, err := e.session.SubmitImage(ctx)
	if err != nil {
		return nil, err
	}
	return &types.SubmitResponse{SessionID: sessionID, Response: msg.Content}, nil
}

// Messages returns the live conversation log for a session.
func (c *AssistantController) Messages(userID int, sessionID string) ([]assistant.ChatMessage, error) {
	e, err := c.get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return e.session.Messages(), nil
}

func (c *AssistantController) Flags(userID int, sessionID string) (assistant.Flags, error) {
	e, err := c.get(sessionID, userID)
	if err != nil {
		return assistant.Flags{}, err
	}
	return e.session.Flags(), nil
}

func (c *AssistantController) Reset(ctx context.Context, userID int, sessionID string) error {
	e, err := c.get(sessionID, userID)
	if err != nil {
		return err
	}
	e.session.Reset(ctx)
	return nil
}

func (c *AssistantController) StopSpeech(userID int, sessionID string) error {
	e, err := c.get(sessionID, userID)
	if err != nil {
		return err
	}
	e.session.StopSpeaking()
	return nil
}

// History returns the persisted transcript for a session. Unlike
// Messages it works for sessions that are no longer live.
func (c *AssistantController) History(ctx context.Context, userID int, sessionID string) ([]models.TranscriptMessage, error) {
	if c.transcripts == nil {
		return nil, ErrNoTranscriptStore
	}
	return c.transcripts.GetBySession(ctx, userID, sessionID)
}

// DeleteHistory removes a session's persisted transcript rows.
func (c *AssistantController) DeleteHistory(ctx context.Context, userID int, sessionID string) error {
	if c.transcripts == nil {
		return ErrNoTranscriptStore
	}
	return c.transcripts.DeleteSession(ctx, userID, sessionID)
}

// EndSession closes the session and drops it from the registry. The
// persisted transcript stays until DeleteHistory.
func (c *AssistantController) EndSession(ctx context.Context, userID int, sessionID string) error {
	e, err := c.get(sessionID, userID)
	if err != nil {
		return err
	}
	e.session.Close(ctx)
	c.mu.Lock()
	delete(c.sessions, sessionID)
	c.mu.Unlock()
	return nil
}

// Bridge exposes the session's speech bridge to the websocket route.
func (c *AssistantController) Bridge(userID int, sessionID string) (*speech.Bridge, error) {
	if sessionID == "" {
		return nil, ErrSessionUnknown
	}
	e, _, err := c.getOrCreate(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return e.bridge, nil
}
