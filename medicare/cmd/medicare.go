// Command-line client for the Medicare symptom assistant. Runs a
// session directly against the Gemini gateway, no server required.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"medicare/medicare/assistant"
	"medicare/medicare/config"
	"medicare/medicare/services/llm"
	"medicare/medicare/utils/color"
	"medicare/medicare/utils/logging"

	"github.com/google/uuid"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	if cfg.GeminiAPIKey == "" {
		fmt.Println(color.ColorError("GEMINI_API_KEY is not set"))
		os.Exit(1)
	}

	sessionID := fmt.Sprintf("cli-%s", uuid.New().String()[:8])
	gateway := llm.NewGateway(llm.NewGeminiClient(cfg.GeminiAPIKey))
	sess := assistant.NewSession(sessionID, assistant.Config{}, assistant.Deps{
		Gateway: gateway,
	})

	fmt.Println(color.ColorInfo("Medicare-AI health assistant"))
	fmt.Println("Session:", sessionID)
	for _, msg := range sess.Messages() {
		fmt.Println(color.ColorAssistantResponse(msg.Content))
	}
	fmt.Println("Describe your symptoms, or type 'reset' / 'exit'.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.ColorPrompt("you> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "exit", "quit":
			sess.Close(context.Background())
			fmt.Println("Take care!")
			return
		case "reset":
			sess.Reset(context.Background())
			for _, msg := range sess.Messages() {
				fmt.Println(color.ColorAssistantResponse(msg.Content))
			}
			continue
		case "":
			continue
		}

		reply, err := sess.SubmitText(context.Background(), line)
		if err != nil {
			switch {
			case errors.Is(err, assistant.ErrEmptyInput),
				errors.Is(err, assistant.ErrOutOfDomain):
				fmt.Println(color.ColorWarning(sess.Flags().ErrorText))
			default:
				fmt.Println(color.ColorError(err.Error()))
			}
			continue
		}
		fmt.Println(color.ColorAssistantResponse(reply.Content))
	}
}
