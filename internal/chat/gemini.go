package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

// maxFunctionRounds bounds how many rounds of function calls one message
// may trigger.
const maxFunctionRounds = 5

type GeminiConfig struct {
	APIKey  string
	Timeout time.Duration
	// BaseURL overrides the API endpoint. Empty uses the default.
	BaseURL string
}

// GeminiProvider creates conversations on the Gemini API. The client is
// built on first use, so a bad configuration shows up as a session failure
// rather than a startup crash.
type GeminiProvider struct {
	config GeminiConfig
	tools  *Toolset
	logger *slog.Logger

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiProvider(config GeminiConfig, tools *Toolset, logger *slog.Logger) *GeminiProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiProvider{
		config: config,
		tools:  tools,
		logger: logger,
	}
}

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  p.config.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: p.config.BaseURL,
		},
	}
	if p.config.Timeout > 0 {
		timeout := p.config.Timeout
		cc.HTTPOptions.Timeout = &timeout
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	p.client = client
	return client, nil
}

func (p *GeminiProvider) CreateConversation(ctx context.Context, model, systemInstruction string) (Conversation, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		Tools: p.tools.genaiTools(),
	}
	if systemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		}
	}

	chat, err := client.Chats.Create(ctx, model, config, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: create chat: %w", err)
	}

	return &geminiConversation{chat: chat, tools: p.tools, logger: p.logger}, nil
}

type geminiConversation struct {
	chat   *genai.Chat
	tools  *Toolset
	logger *slog.Logger
}

func (c *geminiConversation) SendMessage(ctx context.Context, text string) (string, error) {
	resp, err := c.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", fmt.Errorf("gemini: send message: %w", err)
	}

	for round := 0; ; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			break
		}
		if round == maxFunctionRounds {
			return "", fmt.Errorf("gemini: model kept calling functions after %d rounds", maxFunctionRounds)
		}

		responses := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			responses = append(responses, genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       call.ID,
					Name:     call.Name,
					Response: c.callFunction(ctx, call),
				},
			})
		}

		resp, err = c.chat.SendMessage(ctx, responses...)
		if err != nil {
			return "", fmt.Errorf("gemini: send function responses: %w", err)
		}
	}

	return responseText(resp), nil
}

// callFunction runs a requested function. Errors go back to the model as
// the function's response so it can still answer the visitor.
func (c *geminiConversation) callFunction(ctx context.Context, call *genai.FunctionCall) map[string]any {
	if c.tools == nil {
		return map[string]any{"error": fmt.Sprintf("function %s not found", call.Name)}
	}

	result, err := c.tools.Call(ctx, call.Name, call.Args)
	if err != nil {
		c.logger.WarnContext(ctx, "chat.function.failed",
			slog.String("function", call.Name),
			slog.String("error", err.Error()),
		)
		return map[string]any{"error": err.Error()}
	}

	c.logger.DebugContext(ctx, "chat.function.called", slog.String("function", call.Name))
	return result
}

func functionCalls(resp *genai.GenerateContentResponse) []*genai.FunctionCall {
	if resp == nil {
		return nil
	}

	calls := []*genai.FunctionCall{}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			if part != nil && part.FunctionCall != nil {
				calls = append(calls, part.FunctionCall)
			}
		}
	}

	return calls
}

// responseText joins the text parts of the first candidate, skipping
// thoughts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		b.WriteString(part.Text)
	}

	return b.String()
}
