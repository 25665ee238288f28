package chat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// fakeGemini answers generateContent calls with canned JSON bodies, one per
// request, and keeps the request bodies.
type fakeGemini struct {
	t         *testing.T
	mu        sync.Mutex
	status    int
	responses []string
	requests  []string
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, ":generateContent") {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		f.t.Errorf("read body: %v", err)
	}

	f.mu.Lock()
	f.requests = append(f.requests, string(body))
	var resp string
	if len(f.responses) > 0 {
		resp, f.responses = f.responses[0], f.responses[1:]
	}
	status := f.status
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, resp)
}

func (f *fakeGemini) bodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.requests...)
}

func newGeminiTest(t *testing.T, fake *fakeGemini, tools *Toolset) *GeminiProvider {
	t.Helper()
	fake.t = t

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	_, logger := newLogCapture()
	return NewGeminiProvider(GeminiConfig{
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
		BaseURL: srv.URL,
	}, tools, logger)
}

const textResponse = `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello! ☀️"}]},"finishReason":"STOP"}]}`

func TestGeminiConversation_TextReply(t *testing.T) {
	fake := &fakeGemini{responses: []string{textResponse}}
	p := newGeminiTest(t, fake, nil)

	conv, err := p.CreateConversation(context.Background(), "gemini-test", "You are SolarBot.")
	require.NoError(t, err)

	reply, err := conv.SendMessage(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello! ☀️", reply)

	bodies := fake.bodies()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "You are SolarBot.")
	assert.Contains(t, bodies[0], `"hi"`)
	assert.NotContains(t, bodies[0], "functionDeclarations")
}

func TestGeminiConversation_KeepsHistory(t *testing.T) {
	fake := &fakeGemini{responses: []string{textResponse, textResponse}}
	p := newGeminiTest(t, fake, nil)

	conv, err := p.CreateConversation(context.Background(), "gemini-test", "")
	require.NoError(t, err)

	_, err = conv.SendMessage(context.Background(), "first question")
	require.NoError(t, err)
	_, err = conv.SendMessage(context.Background(), "second question")
	require.NoError(t, err)

	bodies := fake.bodies()
	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[1], "first question")
	assert.Contains(t, bodies[1], "second question")
}

func TestGeminiConversation_ResolvesFunctionCalls(t *testing.T) {
	tools := NewToolset()
	require.NoError(t, tools.AddFunctionCall(&FunctionDeclaration{
		Name:        "get_contact_details",
		Description: "contact details",
		FunctionCall: func(context.Context, map[string]any) (map[string]any, error) {
			return map[string]any{"phone": "084 826 3153"}, nil
		},
	}))
	require.NoError(t, tools.AddFunctionCall(&FunctionDeclaration{
		Name:        "broken",
		Description: "always fails",
		FunctionCall: func(context.Context, map[string]any) (map[string]any, error) {
			return nil, errors.New("catalog missing")
		},
	}))

	fake := &fakeGemini{responses: []string{
		`{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"get_contact_details","args":{}}},{"functionCall":{"name":"broken","args":{}}}]}}]}`,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Call us on 084 826 3153 ☀️"}]}}]}`,
	}}
	p := newGeminiTest(t, fake, tools)

	conv, err := p.CreateConversation(context.Background(), "gemini-test", "")
	require.NoError(t, err)

	reply, err := conv.SendMessage(context.Background(), "how do I book?")
	require.NoError(t, err)
	assert.Equal(t, "Call us on 084 826 3153 ☀️", reply)

	bodies := fake.bodies()
	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[0], "get_contact_details")
	assert.Contains(t, bodies[1], "functionResponse")
	assert.Contains(t, bodies[1], "084 826 3153")
	assert.Contains(t, bodies[1], "catalog missing")
}

func TestGeminiConversation_StopsEndlessFunctionCalls(t *testing.T) {
	tools := NewToolset()
	require.NoError(t, tools.AddFunctionCall(echoFunction("loop")))

	call := `{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"loop","args":{}}}]}}]}`
	responses := make([]string, maxFunctionRounds+1)
	for i := range responses {
		responses[i] = call
	}
	p := newGeminiTest(t, &fakeGemini{responses: responses}, tools)

	conv, err := p.CreateConversation(context.Background(), "gemini-test", "")
	require.NoError(t, err)

	_, err = conv.SendMessage(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kept calling functions")
}

func TestGeminiConversation_APIErrorIsClassified(t *testing.T) {
	fake := &fakeGemini{
		status:    http.StatusUnauthorized,
		responses: []string{`{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`},
	}
	p := newGeminiTest(t, fake, nil)

	logs, logger := newLogCapture()
	e := NewExchanger(NewSessionManager(p, testSessionConfig, logger), true, WithLogger(logger))

	assert.Equal(t, FallbackUnavailable, e.Exchange(context.Background(), "hi"))

	recs := logs.records(t, "chat.exchange.failed")
	require.Len(t, recs, 1)
	assert.Equal(t, "auth", recs[0]["failure_kind"])
	assert.Contains(t, recs[0]["error"], "API key not valid")
}

func TestGeminiExchange_EndToEnd(t *testing.T) {
	p := newGeminiTest(t, &fakeGemini{responses: []string{textResponse}}, nil)

	_, logger := newLogCapture()
	e := NewExchanger(NewSessionManager(p, testSessionConfig, logger), true, WithLogger(logger))

	assert.Equal(t, "Hello! ☀️", e.Exchange(context.Background(), "hi"))
}

func TestResponseText(t *testing.T) {
	assert.Empty(t, responseText(nil))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "thinking...", Thought: true},
			{Text: "Clean panels "},
			nil,
			{Text: "make more power 🔋"},
		}},
	}}}
	assert.Equal(t, "Clean panels make more power 🔋", responseText(resp))
}

func TestFunctionCalls(t *testing.T) {
	assert.Nil(t, functionCalls(nil))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		nil,
		{Content: &genai.Content{Parts: []*genai.Part{
			{Text: "let me check"},
			{FunctionCall: &genai.FunctionCall{Name: "search_faq"}},
		}}},
	}}
	calls := functionCalls(resp)
	require.Len(t, calls, 1)
	assert.Equal(t, "search_faq", calls[0].Name)
}
