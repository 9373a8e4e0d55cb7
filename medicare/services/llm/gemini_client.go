package llm

import (
	"context"
	"fmt"
	"strings"

	httputils "medicare/medicare/utils/http"
	"medicare/medicare/utils/logging"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-1.5-flash"
)

// GeminiClient calls the Gemini generateContent endpoint. The API key
// travels as a query parameter per the Gemini REST convention.
type GeminiClient struct {
	baseURL string
	model   string
	apiKey  string
}

func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		baseURL: defaultGeminiBaseURL,
		model:   defaultGeminiModel,
		apiKey:  apiKey,
	}
}

// NewGeminiClientAt points the client at a custom endpoint. Used by
// tests and local proxies.
func NewGeminiClientAt(baseURL, apiKey string) *GeminiClient {
	c := NewGeminiClient(apiKey)
	c.baseURL = baseURL
	return c
}

// Run sends one prompt and returns the concatenated candidate text.
func (c *GeminiClient) Run(ctx context.Context, prompt string) (string, error) {
	defer logging.LogDuration(ctx, "gemini_generate_content")()

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req := GenerateRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
	}

	var resp GenerateResponse
	if err := httputils.PostJSON(url, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in Gemini response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no content in Gemini response")
	}
	return sb.String(), nil
}
