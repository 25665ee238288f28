package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m2tx/solarshine/internal/model"
	"github.com/m2tx/solarshine/internal/repository"
)

// DefaultTimeout bounds one exchange, including the wait for the
// submission slot.
const DefaultTimeout = 30 * time.Second

// Exchanger delivers visitor messages to the shared conversation.
//
// Submissions are serialized: one message is in flight at a time and turns
// reach the conversation in the order callers acquired the slot.
type Exchanger struct {
	sessions    *SessionManager
	configured  bool
	timeout     time.Duration
	transcripts repository.TranscriptRepository
	logger      *slog.Logger
	now         func() time.Time

	slot chan struct{}
}

type Option func(*Exchanger)

// WithTimeout sets the per-exchange timeout. Non-positive values are
// ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Exchanger) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithTranscripts records every exchange to repo.
func WithTranscripts(repo repository.TranscriptRepository) Option {
	return func(e *Exchanger) {
		e.transcripts = repo
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Exchanger) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExchanger creates an Exchanger. When configured is false, no API key
// is available and every exchange answers FallbackUnconfigured without
// touching sessions.
func NewExchanger(sessions *SessionManager, configured bool, opts ...Option) *Exchanger {
	e := &Exchanger{
		sessions:   sessions,
		configured: configured && sessions != nil,
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
		now:        time.Now,
		slot:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Configured reports whether exchanges reach the remote model.
func (e *Exchanger) Configured() bool {
	return e.configured
}

// Model returns the model exchanges are sent to, or "" without a session
// manager.
func (e *Exchanger) Model() string {
	if e.sessions == nil {
		return ""
	}
	return e.sessions.Model()
}

// Exchange sends message as the next turn and returns the text to display.
// It never fails: every error is logged and replaced by a fallback string.
func (e *Exchanger) Exchange(ctx context.Context, message string) string {
	started := e.now()

	if !e.configured {
		e.logger.DebugContext(ctx, "chat.exchange.unconfigured")
		e.record(ctx, message, FallbackUnconfigured, FailureUnconfigured, started)
		return FallbackUnconfigured
	}

	text, err := e.submit(ctx, message)
	if err != nil {
		kind := Classify(err)
		e.logger.ErrorContext(ctx, "chat.exchange.failed",
			slog.String("failure_kind", string(kind)),
			slog.String("session_id", e.sessions.SessionID()),
			slog.String("error", err.Error()),
		)
		e.record(ctx, message, FallbackUnavailable, kind, started)
		return FallbackUnavailable
	}

	if strings.TrimSpace(text) == "" {
		e.logger.WarnContext(ctx, "chat.exchange.empty",
			slog.String("failure_kind", string(FailureEmptyReply)),
			slog.String("session_id", e.sessions.SessionID()),
		)
		e.record(ctx, message, FallbackEmptyReply, FailureEmptyReply, started)
		return FallbackEmptyReply
	}

	e.logger.DebugContext(ctx, "chat.exchange",
		slog.String("session_id", e.sessions.SessionID()),
		slog.Duration("latency", e.now().Sub(started)),
	)
	e.record(ctx, message, text, FailureNone, started)
	return text
}

func (e *Exchanger) submit(ctx context.Context, message string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chat: provider panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		return "", fmt.Errorf("chat: waiting for conversation: %w", ctx.Err())
	}
	defer func() { <-e.slot }()

	conv, err := e.sessions.GetOrCreateSession(ctx)
	if err != nil {
		return "", err
	}

	text, err = conv.SendMessage(ctx, message)
	if err != nil {
		return "", fmt.Errorf("chat: send message: %w", err)
	}

	return text, nil
}

// record saves the exchange. A failing store never changes the reply.
func (e *Exchanger) record(ctx context.Context, message, reply string, kind FailureKind, started time.Time) {
	if e.transcripts == nil {
		return
	}

	t := model.Transcript{
		ID:          uuid.NewString(),
		UserText:    message,
		Reply:       reply,
		FailureKind: string(kind),
		LatencyMS:   e.now().Sub(started).Milliseconds(),
		CreatedAt:   started.UTC(),
	}
	if e.sessions != nil {
		t.SessionID = e.sessions.SessionID()
	}

	// The caller's context may already be done after a timeout.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := e.transcripts.Save(saveCtx, t); err != nil {
		e.logger.WarnContext(ctx, "chat.transcript.save_failed",
			slog.String("transcript_id", t.ID),
			slog.String("error", err.Error()),
		)
	}
}
