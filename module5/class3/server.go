// Package main serves the Example Shop assistant over HTTP: a JSON chat
// endpoint and an SSE streaming variant, both scoped to a thread id so
// conversations survive across requests.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/log"
	"github.com/Rafi99769/ai-agent-development-course/rag"
	"github.com/Rafi99769/ai-agent-development-course/store"
)

const systemPrompt = `You are a helpful AI assistant for "Example Shop". You will help a customer to fulfill their needs.

Example Shop is a e-commerce website that sells products to customers.

General Guidelines:
- You are always friendly and helpful.
- Never make up information or hallucinate. If you don't have the information, say you don't have enough information to answer the question.
- Use the available tools to get the information you need.`

const maxQueryLength = 256

// ChatRequest is the body of both chat endpoints.
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	AIAssistant string `json:"ai_assistant"`
}

// Server handles the chat API over a compiled agent graph.
type Server struct {
	agent        *graph.Runnable[map[string]any]
	checkpointer store.CheckpointStore
}

// NewServer builds a server over an agent graph and a checkpoint store.
func NewServer(agent *graph.Runnable[map[string]any], checkpointer store.CheckpointStore) *Server {
	return &Server{agent: agent, checkpointer: checkpointer}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleGreet)
	mux.HandleFunc("POST /api/chat/{thread_id}", s.handleChat)
	mux.HandleFunc("POST /api/chat/ws/{thread_id}", s.handleChatStream)
	return mux
}

func (s *Server) handleGreet(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, map[string]string{"message": "Hello, World! Welcome to the API!"})
}

func (s *Server) invoke(ctx context.Context, threadID, query string) (string, error) {
	cfg := graph.WithThreadID(threadID)
	cfg.Checkpointer = s.checkpointer

	result, err := s.agent.InvokeWithConfig(ctx, map[string]any{
		"messages": []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, query),
		},
	}, cfg)
	if err != nil {
		return "", err
	}

	messages, _ := result["messages"].([]llms.MessageContent)
	return lastAIText(messages), nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	reply, err := s.invoke(r.Context(), r.PathValue("thread_id"), req.Query)
	if err != nil {
		log.Error("chat failed: %v", err)
		sendJSONError(w, fmt.Sprintf("Error generating response: %v", err), http.StatusInternalServerError)
		return
	}
	sendJSONResponse(w, ChatResponse{AIAssistant: reply})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	reply, err := s.invoke(r.Context(), r.PathValue("thread_id"), req.Query)
	if err != nil {
		log.Error("stream chat failed: %v", err)
		sseEvent(w, flusher, "error", map[string]string{"message": err.Error()})
		sseEvent(w, flusher, "done", nil)
		return
	}

	// The reply is flushed word by word so clients render it incrementally.
	for i, word := range strings.Fields(reply) {
		content := word
		if i > 0 {
			content = " " + word
		}
		sseEvent(w, flusher, "message", map[string]string{"content": content})
	}
	sseEvent(w, flusher, "done", nil)
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (ChatRequest, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return req, false
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		sendJSONError(w, "query cannot be empty", http.StatusBadRequest)
		return req, false
	}
	if len(req.Query) > maxQueryLength {
		sendJSONError(w, fmt.Sprintf("query exceeds %d characters", maxQueryLength), http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func sendJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}

func sendJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"detail": message}); err != nil {
		log.Error("failed to encode error response: %v", err)
	}
}

func sseEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	jsonData := "{}"
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return
		}
		jsonData = string(bytes)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
	flusher.Flush()
}

// prepareKnowledgeBase chunks every markdown file under dir into the store.
func prepareKnowledgeBase(ctx context.Context, vectorStore *rag.InMemoryVectorStore, dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		log.Warn("knowledge base directory %s not found, skipping", dir)
		return nil
	}
	if err != nil {
		return err
	}

	splitter := rag.NewRecursiveCharacterTextSplitter(rag.WithChunkSize(512), rag.WithChunkOverlap(128))
	for _, entry := range entries {
		if entry.IsDir() || strings.ToLower(filepath.Ext(entry.Name())) != ".md" {
			continue
		}
		docs, err := rag.NewTextLoader(filepath.Join(dir, entry.Name())).Load(ctx)
		if err != nil {
			return fmt.Errorf("loading %s: %w", entry.Name(), err)
		}
		if err := vectorStore.Add(ctx, splitter.SplitDocuments(docs)); err != nil {
			return err
		}
	}
	return nil
}

// buildAssistant wires the agent node and tool node. The system prompt is
// prepended at call time so it never enters the persisted history.
func buildAssistant(model llms.Model, toolList []lctools.Tool) (*graph.Runnable[map[string]any], error) {
	executor := newToolExecutor(toolList)
	toolDefs := toolDefinitions(toolList)

	workflow := graph.NewStateGraph[map[string]any]()
	workflow.SetSchema(graph.NewMessagesSchema())

	workflow.AddCommandNode("agent", "answers or requests tools", func(ctx context.Context, state map[string]any) (*graph.Command[map[string]any], error) {
		messages, ok := state["messages"].([]llms.MessageContent)
		if !ok {
			return nil, fmt.Errorf("messages key not found or invalid type")
		}

		prompted := append(
			[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt)},
			messages...,
		)
		resp, err := model.GenerateContent(ctx, prompted, llms.WithTools(toolDefs))
		if err != nil {
			return nil, fmt.Errorf("model call failed: %w", err)
		}

		choice := resp.Choices[0]
		aiMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			aiMsg.Parts = append(aiMsg.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			aiMsg.Parts = append(aiMsg.Parts, tc)
		}

		next := graph.END
		if len(choice.ToolCalls) > 0 {
			next = "tools"
		}
		return &graph.Command[map[string]any]{
			Update: map[string]any{"messages": aiMsg},
			Goto:   next,
		}, nil
	})

	workflow.AddNode("tools", "executes pending tool calls", executor.run)

	workflow.SetEntryPoint("agent")
	workflow.AddEdge("tools", "agent")
	return workflow.Compile()
}

func lastAIText(messages []llms.MessageContent) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != llms.ChatMessageTypeAI {
			continue
		}
		for _, part := range messages[i].Parts {
			if text, ok := part.(llms.TextContent); ok && text.Text != "" {
				return text.Text
			}
		}
	}
	return ""
}
