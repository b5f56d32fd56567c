package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	memstore "github.com/Rafi99769/ai-agent-development-course/store/memory"
)

// scriptedLLM replays canned responses and records every prompt it saw.
type scriptedLLM struct {
	responses []llms.ContentResponse
	prompts   [][]llms.MessageContent
}

func (m *scriptedLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.prompts = append(m.prompts, append([]llms.MessageContent(nil), messages...))
	if len(m.prompts) > len(m.responses) {
		return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "No more responses"}}}, nil
	}
	resp := m.responses[len(m.prompts)-1]
	return &resp, nil
}

func (m *scriptedLLM) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", nil
}

func textResponse(text string) llms.ContentResponse {
	return llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}
}

func newTestServer(t *testing.T, model llms.Model) *Server {
	t.Helper()
	agent, err := buildAssistant(model, nil)
	require.NoError(t, err)
	return NewServer(agent, memstore.NewMemoryCheckpointStore())
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGreet(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &scriptedLLM{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Hello, World! Welcome to the API!", body["message"])
}

func TestChat_ThreadHistoryAccumulates(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llms.ContentResponse{
		textResponse("Hi there!"),
		textResponse("You already said hi."),
	}}
	server := newTestServer(t, model)
	handler := server.Handler()

	rec := postJSON(t, handler, "/api/chat/thread-1", `{"query": "hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Hi there!", resp.AIAssistant)

	rec = postJSON(t, handler, "/api/chat/thread-1", `{"query": "hi again"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "You already said hi.", resp.AIAssistant)

	// Second turn runs on the stored thread history: system prompt, first
	// exchange, then the new question.
	require.Len(t, model.prompts, 2)
	assert.Len(t, model.prompts[0], 2)
	assert.Len(t, model.prompts[1], 4)
}

func TestChat_Validation(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, &scriptedLLM{})
	handler := server.Handler()

	rec := postJSON(t, handler, "/api/chat/t1", `{"query": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "query cannot be empty")

	long := strings.Repeat("a", maxQueryLength+1)
	rec = postJSON(t, handler, "/api/chat/t1", `{"query": "`+long+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "exceeds 256 characters")

	rec = postJSON(t, handler, "/api/chat/t1", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatStream_SSE(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llms.ContentResponse{
		textResponse("Hello streaming world"),
	}}
	server := newTestServer(t, model)

	rec := postJSON(t, server.Handler(), "/api/chat/ws/t1", `{"query": "hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `event: message`)
	assert.Contains(t, body, `data: {"content":"Hello"}`)
	assert.Contains(t, body, `data: {"content":" streaming"}`)
	assert.Contains(t, body, "event: done")
}

func TestNewCheckpointStore_Redis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := Config{RedisAddr: mr.Addr()}

	cs, err := newCheckpointStore(context.Background(), cfg)
	require.NoError(t, err)

	model := &scriptedLLM{responses: []llms.ContentResponse{
		textResponse("Hi from redis-backed thread!"),
		textResponse("You already said hi."),
	}}
	agent, err := buildAssistant(model, nil)
	require.NoError(t, err)
	server := NewServer(agent, cs)
	handler := server.Handler()

	rec := postJSON(t, handler, "/api/chat/r1", `{"query": "hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hi from redis-backed thread!")

	latest, err := cs.Latest(context.Background(), "r1")
	require.NoError(t, err)
	require.NotNil(t, latest)

	// Redis hands the state back as generic JSON, so the second turn must
	// rebuild the typed history before the model sees it.
	rec = postJSON(t, handler, "/api/chat/r1", `{"query": "hi again"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You already said hi.")

	require.Len(t, model.prompts, 2)
	assert.Len(t, model.prompts[0], 2)
	require.Len(t, model.prompts[1], 4, "second turn should carry the stored thread history")
	assert.Equal(t, llms.ChatMessageTypeHuman, model.prompts[1][1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, model.prompts[1][2].Role)
}
