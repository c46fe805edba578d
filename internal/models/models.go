package models

// Chunk represents an ordered, immutable segment of an uploaded document.
// Index is the chunk's stable position within its document.
type Chunk struct {
	Content string
	Index   int
}

// ChatTurn is one entry in a session's conversation history.
type ChatTurn struct {
	Role string
	Text string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
