package llm

import (
	"context"
	"fmt"

	"medicare/medicare/utils/logging"

	"go.uber.org/zap"
)

// promptTemplate embeds the user's symptoms and instructs the model to
// close with the professional-referral notice.
const promptTemplate = `User symptoms: %s. Briefly suggest possible disease(s) only. End with: "Please consult a certified Medicare doctor. I am not a licensed medical professional."`

// FallbackReply substitutes for the model's answer whenever the
// external call fails, so the user always sees some answer.
const FallbackReply = "Sorry, I couldn't process your request."

// TextGenerator is the external text-generation boundary. Treated as
// unreliable; the gateway absorbs every error it returns.
type TextGenerator interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// Gateway turns raw symptom text into exactly one assistant reply per
// call. It never fails: transport, timeout and parsing errors all
// collapse into FallbackReply here, giving the submission path a
// uniform outcome either way.
type Gateway struct {
	gen TextGenerator
}

func NewGateway(gen TextGenerator) *Gateway {
	return &Gateway{gen: gen}
}

func (g *Gateway) Respond(ctx context.Context, userText string) string {
	prompt := fmt.Sprintf(promptTemplate, userText)
	reply, err := g.gen.Run(ctx, prompt)
	if err != nil {
		logging.ErrorLogger.Error("text generation failed", zap.Error(err))
		return FallbackReply
	}
	return reply
}
