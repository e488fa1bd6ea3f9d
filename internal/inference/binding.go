package inference

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnexpectedOutput = errors.New("unexpected response format from AI model")
	ErrUnsupportedKind  = errors.New("model kind not supported by provider")
	ErrUnknownProvider  = errors.New("unknown inference provider")
)

type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const (
	DefaultNumSteps = 8
	MaxNumSteps     = 8
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Inputs struct {
	Kind     Kind
	Messages []Message
	Prompt   string
	NumSteps int
}

type Output struct {
	Text  string
	Image []byte
}

// Result is returned per call so concurrent requests never observe each
// other's request ids or logs.
type Result struct {
	Output    Output
	RequestID string
	Logs      []string
}

type Binding interface {
	Run(ctx context.Context, model string, inputs Inputs) (Result, error)
}

// NormalizeRole maps the roles sent by clients onto the three roles every
// provider understands. The UI uses "ai" for assistant turns.
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "ai", "assistant":
		return RoleAssistant
	case "system":
		return RoleSystem
	default:
		return RoleUser
	}
}

func NormalizeMessages(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, Message{Role: NormalizeRole(m.Role), Content: m.Content})
	}
	return out
}

// ClampSteps returns DefaultNumSteps for a zero value and otherwise bounds
// steps to [1, MaxNumSteps].
func ClampSteps(steps int) int {
	if steps == 0 {
		return DefaultNumSteps
	}
	if steps < 1 {
		return 1
	}
	if steps > MaxNumSteps {
		return MaxNumSteps
	}
	return steps
}

// LastUserPrompt returns the content of the newest user turn, or "" when the
// conversation has none.
func LastUserPrompt(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if NormalizeRole(messages[i].Role) == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
