package core

import (
	"time"

	"github.com/google/uuid"
)

// Message roles. The window replays messages to the model in append order, so
// the role determines how a message is rendered into provider requests.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a model-issued request to invoke a named capability with
// concrete argument values. It is transient: it exists only for the duration
// of one dispatch and is never persisted to the memory window.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Message is one entry of a conversation. Messages are immutable once
// appended to a window; constructors stamp ID and timestamp.
type Message struct {
	ID         string     `json:"id"`
	Role       string     `json:"role"`
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on tool-result messages
	ToolName   string     `json:"tool_name,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewID returns a new unique identifier (UUID v4 string).
func NewID() string { return uuid.NewString() }

func newMessage(role, text string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(text string) Message { return newMessage(RoleUser, text) }

// NewAssistantMessage creates an assistant text message.
func NewAssistantMessage(text string) Message { return newMessage(RoleAssistant, text) }

// NewToolCallMessage creates an assistant message carrying tool call
// requests. Text may be empty when the model emits calls without prose.
func NewToolCallMessage(text string, calls []ToolCall) Message {
	m := newMessage(RoleAssistant, text)
	m.ToolCalls = calls
	return m
}

// NewToolResultMessage creates a tool-result message correlated to the
// originating call via callID. Both success payloads and failure fallback
// strings travel through this constructor; the orchestration loop treats them
// uniformly.
func NewToolResultMessage(callID, toolName, text string) Message {
	m := newMessage(RoleTool, text)
	m.ToolCallID = callID
	m.ToolName = toolName
	return m
}

// IsToolCall reports whether the message requests at least one tool
// invocation.
func (m Message) IsToolCall() bool { return len(m.ToolCalls) > 0 }
