package types

type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Content   string `json:"content"`
}

type SubmitResponse struct {
	SessionID  string `json:"session_id"`
	Response   string `json:"response"`
	Transcript string `json:"transcript,omitempty"`
}

type UploadResponse struct {
	SessionID  string `json:"session_id"`
	PreviewURL string `json:"preview_url,omitempty"`
}
