package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"medicare/medicare/assistant"
	"medicare/medicare/config"
	"medicare/medicare/controllers"
	"medicare/medicare/middlewares"
	"medicare/medicare/services/speech"
	"medicare/medicare/sources/psql/dao"
	"medicare/medicare/utils/types"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

const maxImageUpload = 10 << 20 // 10 MiB

func writeAssistantError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assistant.ErrEmptyInput),
		errors.Is(err, assistant.ErrOutOfDomain),
		errors.Is(err, assistant.ErrNoImage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, assistant.ErrBusy),
		errors.Is(err, assistant.ErrSuperseded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, assistant.ErrCapabilityUnavailable),
		errors.Is(err, speech.ErrNotConnected),
		errors.Is(err, controllers.ErrNoImageStore),
		errors.Is(err, controllers.ErrNoTranscriptStore):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, controllers.ErrSessionUnknown),
		errors.Is(err, assistant.ErrSessionClosed),
		errors.Is(err, dao.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func AssistantRoutes(ctrl *controllers.AssistantController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// POST /assistant/ : submit symptom text
		gr.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var req types.ChatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			resp, err := ctrl.Submit(r.Context(), userID, req)
			if err != nil {
				writeAssistantError(w, err)
				return
			}
			json.NewEncoder(w).Encode(resp)
		})

		// POST /assistant/session/{session_id}/voice : one-shot capture
		gr.Post("/session/{session_id}/voice", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			sessionID := chi.URLParam(r, "session_id")
			resp, err := ctrl.SubmitVoice(r.Context(), userID, sessionID)
			if err != nil {
				writeAssistantError(w, err)
				return
			}
			json.NewEncoder(w).Encode(resp)
		})

		// POST /assistant/session/{session_id}/image : upload for analysis
		gr.Post("/session/{session_id}/image", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			sessionID := chi.URLParam(r, "session_id")
			r.Body = http.MaxBytesReader(w, r.Body, maxImageUpload)
			file, header, err := r.FormFile("image")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			defer file.Close()
			resp, err := ctrl.UploadImage(r.Context(), userID, sessionID, file,
				header.Size, header.Header.Get("Content-Type"))
			if err != nil {
				writeAssistantError(w, err)
				return
			}
			json.NewEncoder(w).Encode(resp)
		})

		// POST /assistant/session/{session_id}/image/analyze
		gr.Post("/session/{session_id}/image/analyze", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			sessionID := chi.URLParam(r, "session_id")
			resp, err := ctrl.AnalyzeImage(r.Context(), userID, sessionID)
			if err != nil {
				writeAssistantError(w, err)
				return
			}
			json.NewEncoder(w).Encode(resp)
		})

		// GET /assistant/session/{session_id}/messages
		gr.Get("/session/{session_id}/messages", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			sessionID := chi.URLParam(r, "session_id")
			msgs, err := ctrl.Messages(userID, sessionID)
			if err != nil {
				writeAssistantError(w, err)
				return
			}
			json.NewEncoder(w).Encode(msgs)
		})

		// GET /assistant/session/{session_id}/flags
		gr.Get("/session/{session_id}/flags", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			sessionID := chi.URLParam(r, "session_id")
			flags, err := ctrl.Flags(userID, sessionID)
			if err != nil {
				writeAssistantError(w, err)
				return
			}
			json.NewEncoder(w).Encode(flags)
		})

		// GET /assistant/session/{session_id}/history : persisted
		// transcript, available after the live session is gone
		gr.Get("/session/{session_id}/history", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			sessionID := chi.URLParam(r, "session_id")
			rows, err := ctrl.History(r.Context(), userID, sessionID)
			if err != nil {
				writeAssistantError(w, err)
				return
			}
			json.NewEncoder(w).Encode(rows)
		})

		// DELETE /assistant/session/{session_id}/history
		gr.Delete("/session/{session_id}/history", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			sessionID := chi.URLParam(r, "session_id")
			if err := ctrl.DeleteHistory(r.Context(), userID, sessionID); err != nil {
				writeAssistantError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		// POST /assistant/session/{session_id}/reset
		gr.Post("/session/{session_id}/reset", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			sessionID := chi.URLParam(r, "session_id")
			if err := ctrl.Reset(r.Context(), userID, sessionID); err != nil {
				writeAssistantError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		// POST /assistant/session/{session_id}/speech/stop
		gr.Post("/session/{session_id}/speech/stop", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			sessionID := chi.URLParam(r, "session_id")
			if err := ctrl.StopSpeech(userID, sessionID); err != nil {
				writeAssistantError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		// DELETE /assistant/session/{session_id} : end session
		gr.Delete("/session/{session_id}", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			sessionID := chi.URLParam(r, "session_id")
			if err := ctrl.EndSession(r.Context(), userID, sessionID); err != nil {
				writeAssistantError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	// Speech bridge websocket. The first client message carries the
	// JWT and session id; afterwards the connection belongs to the
	// session's bridge.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var input struct {
			Token     string `json:"token"`
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal(data, &input); err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid json"}`))
			return
		}

		userID, err := middlewares.VerifyToken(cfg, input.Token)
		if err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid token"}`))
			conn.Close(websocket.StatusPolicyViolation, "invalid token")
			return
		}

		bridge, err := ctrl.Bridge(userID, input.SessionID)
		if err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"unknown session"}`))
			conn.Close(websocket.StatusPolicyViolation, "unknown session")
			return
		}
		bridge.Serve(ctx, conn)
		conn.Close(websocket.StatusNormalClosure, "")
	})
	return r
}
