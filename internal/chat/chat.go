// Package chat runs the support assistant's conversation.
//
// A SessionManager owns the single conversation with the remote model and
// creates it on first use. An Exchanger forwards visitor messages through
// that conversation and always answers with display text: remote failures
// become one of the fallback strings below and are reported only through
// logs and transcripts.
package chat

import (
	"context"
	"errors"
)

// Fallback replies. Each failure mode has its own wording so they can be
// told apart on screen and in tests.
const (
	// FallbackUnconfigured is returned when no API key is configured.
	FallbackUnconfigured = "Solar systems offline. (Missing API Key)"
	// FallbackUnavailable is returned when the remote call fails.
	FallbackUnavailable = "Sunlight blocked. Try again later."
	// FallbackEmptyReply is returned when the model answers with no text.
	FallbackEmptyReply = "Connection cloudy."
)

// ErrSessionUnavailable wraps failures to create the conversation.
var ErrSessionUnavailable = errors.New("chat: session unavailable")

// Conversation is a stateful remote chat. The remote side keeps the turns,
// so every message is sent as the next turn of the same conversation.
type Conversation interface {
	SendMessage(ctx context.Context, text string) (string, error)
}

// Provider creates conversations bound to a model and system instruction.
type Provider interface {
	CreateConversation(ctx context.Context, model, systemInstruction string) (Conversation, error)
}

// IsFallback reports whether text is one of the fallback replies.
func IsFallback(text string) bool {
	switch text {
	case FallbackUnconfigured, FallbackUnavailable, FallbackEmptyReply:
		return true
	}
	return false
}
