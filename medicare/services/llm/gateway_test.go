package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func geminiStub(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestGatewaySuccess(t *testing.T) {
	var gotPrompt string
	srv := geminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Contents) == 1 && len(req.Contents[0].Parts) == 1 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Possibly influenza. Please consult a certified Medicare doctor. I am not a licensed medical professional."}],"role":"model"},"finishReason":"STOP"}]}`))
	})

	gw := NewGateway(NewGeminiClientAt(srv.URL, "test-key"))
	reply := gw.Respond(context.Background(), "fever and cough")

	if !strings.HasPrefix(reply, "Possibly influenza.") {
		t.Errorf("reply = %q, want model text verbatim", reply)
	}
	if !strings.Contains(gotPrompt, "fever and cough") {
		t.Errorf("prompt = %q, must embed the user text", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "Please consult a certified Medicare doctor") {
		t.Errorf("prompt = %q, must demand the referral notice", gotPrompt)
	}
}

func TestGatewayServerError(t *testing.T) {
	srv := geminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	gw := NewGateway(NewGeminiClientAt(srv.URL, "test-key"))
	if reply := gw.Respond(context.Background(), "fever"); reply != FallbackReply {
		t.Errorf("reply = %q, want fallback", reply)
	}
}

func TestGatewayMalformedResponse(t *testing.T) {
	srv := geminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [`))
	})
	gw := NewGateway(NewGeminiClientAt(srv.URL, "test-key"))
	if reply := gw.Respond(context.Background(), "fever"); reply != FallbackReply {
		t.Errorf("reply = %q, want fallback", reply)
	}
}

func TestGatewayEmptyCandidates(t *testing.T) {
	srv := geminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})
	gw := NewGateway(NewGeminiClientAt(srv.URL, "test-key"))
	if reply := gw.Respond(context.Background(), "fever"); reply != FallbackReply {
		t.Errorf("reply = %q, want fallback", reply)
	}
}

func TestGatewayUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	gw := NewGateway(NewGeminiClientAt(srv.URL, "test-key"))
	if reply := gw.Respond(context.Background(), "fever"); reply != FallbackReply {
		t.Errorf("reply = %q, want fallback", reply)
	}
}
