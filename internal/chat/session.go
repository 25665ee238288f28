package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// SessionConfig is bound to the conversation when it is created.
type SessionConfig struct {
	Model             string
	SystemInstruction string
}

// SessionManager owns at most one conversation and creates it lazily.
// Failed creations are not remembered; the next call tries again.
type SessionManager struct {
	provider Provider
	config   SessionConfig
	logger   *slog.Logger

	mu      sync.RWMutex
	session Conversation
	id      string
}

func NewSessionManager(provider Provider, config SessionConfig, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		provider: provider,
		config:   config,
		logger:   logger,
	}
}

// GetOrCreateSession returns the conversation, creating it on the first
// call. Every later call returns the same conversation.
func (m *SessionManager) GetOrCreateSession(ctx context.Context) (Conversation, error) {
	m.mu.RLock()
	session := m.session
	m.mu.RUnlock()

	if session != nil {
		return session, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return m.session, nil
	}

	conv, err := m.provider.CreateConversation(ctx, m.config.Model, m.config.SystemInstruction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: provider returned no conversation", ErrSessionUnavailable)
	}

	m.session = conv
	m.id = uuid.NewString()

	m.logger.InfoContext(ctx, "chat.session.created",
		slog.String("session_id", m.id),
		slog.String("model", m.config.Model),
	)

	return conv, nil
}

// SessionID identifies the current conversation in logs and transcripts.
// It is empty until the conversation exists.
func (m *SessionManager) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.id
}

// Model returns the model the conversation is bound to.
func (m *SessionManager) Model() string {
	return m.config.Model
}
