package assistant

// Role identifies who produced a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn in the conversation. Immutable once created;
// Sequence is strictly increasing and defines display and playback order.
type ChatMessage struct {
	Role     Role   `json:"role"`
	Content  string `json:"content"`
	Sequence int    `json:"sequence"`
}
