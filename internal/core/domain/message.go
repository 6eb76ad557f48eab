package domain

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of a conversation handed to the retrieval path.
type Message struct {
	Role    string
	Content string
}
