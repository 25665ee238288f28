package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/m2tx/solarshine/internal/model"
	"github.com/m2tx/solarshine/internal/repository"
)

type fakeConversation struct {
	mu       sync.Mutex
	send     func(ctx context.Context, text string) (string, error)
	messages []string
}

func replying(reply string, err error) *fakeConversation {
	return &fakeConversation{send: func(context.Context, string) (string, error) {
		return reply, err
	}}
}

func (c *fakeConversation) SendMessage(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	c.messages = append(c.messages, text)
	c.mu.Unlock()

	return c.send(ctx, text)
}

func (c *fakeConversation) sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.messages...)
}

type fakeProvider struct {
	mu      sync.Mutex
	conv    Conversation
	errs    []error
	creates int
	model   string
	system  string
}

func (p *fakeProvider) CreateConversation(_ context.Context, model, systemInstruction string) (Conversation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.creates++
	p.model = model
	p.system = systemInstruction

	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return nil, err
		}
	}

	return p.conv, nil
}

func (p *fakeProvider) createCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.creates
}

type failingTranscripts struct{}

func (failingTranscripts) Save(context.Context, model.Transcript) error {
	return errors.New("disk full")
}

func (failingTranscripts) Recent(context.Context, repository.RecentQuery) ([]model.Transcript, error) {
	return nil, errors.New("disk full")
}

// logCapture collects JSON log records.
type logCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.buf.Write(p)
}

func newLogCapture() (*logCapture, *slog.Logger) {
	c := &logCapture{}
	return c, slog.New(slog.NewJSONHandler(c, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (c *logCapture) records(t *testing.T, msg string) []map[string]any {
	t.Helper()

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(c.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		if rec["msg"] == msg {
			out = append(out, rec)
		}
	}
	return out
}
