package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedLLM replies with canned content and records the prompts it saw.
type scriptedLLM struct {
	replies []string
	calls   int
	prompts []string
}

func (m *scriptedLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if len(messages) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			m.prompts = append(m.prompts, text.Text)
		}
	}
	reply := "No more responses"
	if m.calls < len(m.replies) {
		reply = m.replies[m.calls]
	}
	m.calls++
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (m *scriptedLLM) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", nil
}

func newTestServer(replies ...string) (*Server, *scriptedLLM) {
	model := &scriptedLLM{replies: replies}
	agent := NewChatAgent("Test Agent", "test-model", model)
	return NewServer(Config{}, agent), model
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRootEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer()
	rec := doRequest(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["message"], "running")
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer()
	rec := doRequest(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestChatEndpoint(t *testing.T) {
	t.Parallel()

	srv, model := newTestServer("Hello there!")
	rec := doRequest(t, srv, http.MethodPost, "/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Hello there!", resp.Response)

	// First turn has no history so the prompt is the raw message.
	require.Len(t, model.prompts, 1)
	assert.Equal(t, "hi", model.prompts[0])
}

func TestChatEndpoint_IncludesHistoryWindow(t *testing.T) {
	t.Parallel()

	srv, model := newTestServer("first", "second")
	doRequest(t, srv, http.MethodPost, "/chat", `{"message":"one"}`)
	doRequest(t, srv, http.MethodPost, "/chat", `{"message":"two"}`)

	require.Len(t, model.prompts, 2)
	assert.Contains(t, model.prompts[1], "Previous conversation:")
	assert.Contains(t, model.prompts[1], "user: one")
	assert.Contains(t, model.prompts[1], "assistant: first")
	assert.Contains(t, model.prompts[1], "Current message:\nuser: two")
}

func TestChatEndpoint_Validation(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer()

	rec := doRequest(t, srv, http.MethodPost, "/chat", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/chat", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAgentInfoEndpoint(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer("ok")
	doRequest(t, srv, http.MethodPost, "/chat", `{"message":"hi"}`)

	rec := doRequest(t, srv, http.MethodGet, "/agent/info", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Test Agent", info["name"])
	assert.Equal(t, "test-model", info["model"])
	assert.Equal(t, float64(2), info["conversation_length"])
	assert.Equal(t, float64(50), info["max_history_length"])
}

func TestHistoryAndClearEndpoints(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer("ok")
	doRequest(t, srv, http.MethodPost, "/chat", `{"message":"hi"}`)

	rec := doRequest(t, srv, http.MethodGet, "/agent/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		History []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.History, 2)
	assert.Equal(t, "user", body.History[0].Role)
	assert.Equal(t, "assistant", body.History[1].Role)

	rec = doRequest(t, srv, http.MethodPost, "/agent/clear-history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/agent/history", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.History)
}
