package assistant

import (
	"context"
	"sync"

	"medicare/medicare/utils/logging"

	"go.uber.org/zap"
)

// Responder produces one assistant reply for one user input. By
// contract implementations never fail past their boundary: transport
// errors are folded into fallback text before returning.
type Responder interface {
	Respond(ctx context.Context, input string) string
}

// ImageReleaser invalidates ephemeral image handles once analysis
// completes, the handle is superseded, or the session ends.
type ImageReleaser interface {
	Release(ctx context.Context, handle string) error
}

// Flags is the transient per-session UI state. ErrorText never enters
// the conversation log.
type Flags struct {
	Loading      bool   `json:"loading"`
	ErrorText    string `json:"error_text,omitempty"`
	PendingImage string `json:"pending_image,omitempty"`
}

type Config struct {
	Lang           string
	WelcomeMessage string
}

const (
	DefaultLang = "en-US"

	// DefaultWelcome seeds the conversation after construction and
	// after every reset.
	DefaultWelcome = "Hello! I'm the Medicare-AI health assistant. Describe your symptoms and I'll suggest what they could mean."

	uploadedImagePlaceholder = "Uploaded Image"
	emptyInputNotice         = "Please enter symptoms or upload an image."
	outOfDomainNotice        = "Please enter valid symptoms so I can help."
)

// Deps are the collaborators a session orchestrates. Gateway is
// required; the rest degrade gracefully when absent (nil Synth and
// Recognizer mean the speech capabilities are unavailable).
type Deps struct {
	Classifier *InputClassifier
	Gateway    Responder
	Imaging    Responder
	Synth      Synthesizer
	Recognizer Recognizer
	Releaser   ImageReleaser
}

// Session owns one conversation: the message log, the transient flags
// and the speech controllers. All state mutation funnels through its
// methods; async results re-enter via settle so ordering invariants
// hold. Submissions are single-flight: while one is in flight every
// new submit is rejected with ErrBusy.
type Session struct {
	ID string

	mu     sync.Mutex
	flags  Flags
	epoch  int
	closed bool

	cfg        Config
	store      *ConversationStore
	classifier *InputClassifier
	gateway    Responder
	imaging    Responder
	speech     *SpeechOutputController
	voice      *VoiceInputController
	releaser   ImageReleaser
	observer   func(ChatMessage)
}

func NewSession(id string, cfg Config, deps Deps) *Session {
	if cfg.Lang == "" {
		cfg.Lang = DefaultLang
	}
	if cfg.WelcomeMessage == "" {
		cfg.WelcomeMessage = DefaultWelcome
	}
	if deps.Classifier == nil {
		deps.Classifier = NewInputClassifier()
	}
	if deps.Imaging == nil {
		deps.Imaging = NewImageAnalysisSimulator(0)
	}
	store := NewConversationStore()
	store.Reset(cfg.WelcomeMessage)
	return &Session{
		ID:         id,
		cfg:        cfg,
		store:      store,
		classifier: deps.Classifier,
		gateway:    deps.Gateway,
		imaging:    deps.Imaging,
		speech:     NewSpeechOutputController(deps.Synth, cfg.Lang),
		voice:      NewVoiceInputController(deps.Recognizer, cfg.Lang),
		releaser:   deps.Releaser,
	}
}

// SetObserver registers a callback invoked after every append, outside
// the session lock. Used for transcript persistence.
func (s *Session) SetObserver(fn func(ChatMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

func (s *Session) Messages() []ChatMessage {
	return s.store.Messages()
}

func (s *Session) Flags() Flags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags
}

// SubmitText runs free text through the submission path: classify,
// append the user turn, dispatch to the gateway, append and speak the
// reply. Rejected input never reaches the gateway and never enters
// the log.
func (s *Session) SubmitText(ctx context.Context, text string) (ChatMessage, error) {
	epoch, err := s.beginText(text)
	if err != nil {
		return ChatMessage{}, err
	}
	reply := s.gateway.Respond(ctx, text)
	return s.settle(epoch, reply)
}

func (s *Session) beginText(text string) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSessionClosed
	}
	if s.flags.Loading {
		s.mu.Unlock()
		return 0, ErrBusy
	}
	switch s.classifier.Classify(text) {
	case Empty:
		s.flags.ErrorText = emptyInputNotice
		s.mu.Unlock()
		return 0, ErrEmptyInput
	case OutOfDomain:
		s.flags.ErrorText = outOfDomainNotice
		s.mu.Unlock()
		return 0, ErrOutOfDomain
	}
	s.flags.ErrorText = ""
	s.flags.Loading = true
	epoch := s.epoch
	user := s.store.Append(RoleUser, text)
	s.mu.Unlock()
	s.notify(user)
	return epoch, nil
}

// SubmitImage runs the pending upload through the analysis pipeline.
// The image path skips classification: any selected image is accepted.
// The handle is released once analysis settles.
func (s *Session) SubmitImage(ctx context.Context) (ChatMessage, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ChatMessage{}, ErrSessionClosed
	}
	if s.flags.Loading {
		s.mu.Unlock()
		return ChatMessage{}, ErrBusy
	}
	handle := s.flags.PendingImage
	if handle == "" {
		s.flags.ErrorText = emptyInputNotice
		s.mu.Unlock()
		return ChatMessage{}, ErrNoImage
	}
	s.flags.ErrorText = ""
	s.flags.Loading = true
	epoch := s.epoch
	user := s.store.Append(RoleUser, uploadedImagePlaceholder)
	s.mu.Unlock()
	s.notify(user)

	reply := s.imaging.Respond(ctx, handle)

	// a reset or close during analysis already released the handle
	s.mu.Lock()
	owned := s.flags.PendingImage == handle
	if owned {
		s.flags.PendingImage = ""
	}
	s.mu.Unlock()
	if owned {
		s.release(ctx, handle)
	}

	return s.settle(epoch, reply)
}

// SubmitVoice captures one utterance and feeds the transcript through
// the same text submission path; voice never bypasses classification.
func (s *Session) SubmitVoice(ctx context.Context) (string, ChatMessage, error) {
	transcript, err := s.voice.CaptureOnce(ctx)
	if err != nil {
		return "", ChatMessage{}, err
	}
	msg, err := s.SubmitText(ctx, transcript)
	return transcript, msg, err
}

// AttachImage records a freshly uploaded image handle, releasing any
// previous one it supersedes.
func (s *Session) AttachImage(ctx context.Context, handle string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.flags.Loading {
		s.mu.Unlock()
		return ErrBusy
	}
	old := s.flags.PendingImage
	s.flags.PendingImage = handle
	s.flags.ErrorText = ""
	s.mu.Unlock()
	if old != "" {
		s.release(ctx, old)
	}
	return nil
}

// settle applies the outcome of a dispatched call: append the reply,
// drop the loading flag, vocalize. A result that arrives after a
// reset or close is discarded so a stale reply never leaks into a
// newer conversation.
func (s *Session) settle(epoch int, reply string) (ChatMessage, error) {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return ChatMessage{}, ErrSuperseded
	}
	msg := s.store.Append(RoleAssistant, reply)
	s.flags.Loading = false
	s.mu.Unlock()
	s.notify(msg)
	if err := s.speech.Speak(reply); err != nil {
		// degraded turn, not a failure: the reply is already in the log
		logging.AppLogger.Info("speech output unavailable",
			zap.String("session_id", s.ID), zap.Error(err))
	}
	return msg, nil
}

// StopSpeaking cancels the active utterance, if any.
func (s *Session) StopSpeaking() {
	s.speech.Stop()
}

// Reset clears the conversation, reseeds the welcome message and
// restarts sequence numbering. Any in-flight result is discarded when
// it settles.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	s.epoch++
	s.store.Reset(s.cfg.WelcomeMessage)
	pending := s.flags.PendingImage
	s.flags = Flags{}
	s.mu.Unlock()
	s.speech.Stop()
	if pending != "" {
		s.release(ctx, pending)
	}
}

// Close tears the session down: silences speech, releases the pending
// image handle and rejects all further submissions.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.epoch++
	pending := s.flags.PendingImage
	s.flags = Flags{}
	s.mu.Unlock()
	s.speech.Stop()
	if pending != "" {
		s.release(ctx, pending)
	}
}

func (s *Session) notify(msg ChatMessage) {
	s.mu.Lock()
	fn := s.observer
	s.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

func (s *Session) release(ctx context.Context, handle string) {
	if s.releaser == nil {
		return
	}
	if err := s.releaser.Release(ctx, handle); err != nil {
		logging.ErrorLogger.Error("image handle release failed",
			zap.String("handle", handle), zap.Error(err))
	}
}
