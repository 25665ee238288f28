package model

import "time"

// Role of the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is a single line shown in the chat widget.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Text    string `json:"text"`
	IsError bool   `json:"is_error,omitempty"`
}

// Transcript records one exchange between a visitor and the assistant.
type Transcript struct {
	ID          string    `json:"id" bson:"_id"`
	SessionID   string    `json:"session_id,omitempty" bson:"session_id,omitempty"`
	UserText    string    `json:"user_text" bson:"user_text"`
	Reply       string    `json:"reply" bson:"reply"`
	FailureKind string    `json:"failure_kind" bson:"failure_kind"`
	LatencyMS   int64     `json:"latency_ms" bson:"latency_ms"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Failed reports whether the reply is a fallback rather than a model answer.
func (t Transcript) Failed() bool {
	return t.FailureKind != "" && t.FailureKind != "none"
}
