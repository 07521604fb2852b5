package provider

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System and User build the two-message conversations the pipeline sends.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: RoleUser, Content: content} }

// Provider wraps one LM backend's wire protocol behind a uniform call.
// Complete translates the message sequence into the backend's request shape
// and returns the first completion's text. A 2xx response with a missing or
// empty completion is an error, never an empty string.
type Provider interface {
	Name() string
	Complete(ctx context.Context, apiKey string, msgs []Message) (string, error)
}
