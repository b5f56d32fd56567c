package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/rag"
	memstore "github.com/Rafi99769/ai-agent-development-course/store/memory"
)

// scriptedLLM replays canned responses in order.
type scriptedLLM struct {
	responses []llms.ContentResponse
	calls     int
}

func (m *scriptedLLM) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.calls >= len(m.responses) {
		return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "No more responses"}}}, nil
	}
	resp := m.responses[m.calls]
	m.calls++
	return &resp, nil
}

func (m *scriptedLLM) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", nil
}

func orderToolCall(input string) llms.ContentResponse {
	args, _ := json.Marshal(map[string]string{"input": input})
	return llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:           "call_order",
			FunctionCall: &llms.FunctionCall{Name: "create_order", Arguments: string(args)},
		}},
	}}}
}

func textResponse(text string) llms.ContentResponse {
	return llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}
}

type staticEmbedder struct{}

func (staticEmbedder) EmbedDocument(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (staticEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func TestOrderRequiresApproval(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llms.ContentResponse{
		orderToolCall("Ada Lovelace, ada@example.com"),
		textResponse("Your order is confirmed."),
	}}

	embedder := staticEmbedder{}
	store := rag.NewInMemoryVectorStore(embedder)
	retriever := rag.NewRetriever(store, embedder)

	agent, err := buildAgent(model, retriever)
	require.NoError(t, err)

	checkpointer := memstore.NewMemoryCheckpointStore()
	ctx := context.Background()

	cfg := graph.WithThreadID("order-thread")
	cfg.Checkpointer = checkpointer

	state := map[string]any{
		"messages": []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, "order it"),
		},
	}
	_, err = agent.InvokeWithConfig(ctx, state, cfg)

	var gi *graph.GraphInterrupt
	require.ErrorAs(t, err, &gi)
	request, ok := gi.InterruptValue.(ApprovalRequest)
	require.True(t, ok)
	assert.Equal(t, "create_order", request.Tool)
	assert.Equal(t, "Ada Lovelace, ada@example.com", request.Input)

	// Approve and resume on the same thread.
	resumeCfg := graph.WithThreadID("order-thread")
	resumeCfg.Checkpointer = checkpointer
	resumeCfg.ResumeValue = ApprovalDecision{Decision: DecisionApprove}

	final, err := agent.InvokeWithConfig(ctx, map[string]any{}, resumeCfg)
	require.NoError(t, err)

	messages, _ := final["messages"].([]llms.MessageContent)
	assert.Equal(t, "Your order is confirmed.", lastAIText(messages))

	// The executed tool response carries the order id.
	foundOrder := false
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if resp, ok := part.(llms.ToolCallResponse); ok {
				assert.Contains(t, resp.Content, "Order ID: ORD-")
				foundOrder = true
			}
		}
	}
	assert.True(t, foundOrder)
}

func TestOrderRejectionCancels(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llms.ContentResponse{
		orderToolCall("Ada Lovelace, ada@example.com"),
		textResponse("Okay, I won't place the order."),
	}}

	embedder := staticEmbedder{}
	store := rag.NewInMemoryVectorStore(embedder)
	agent, err := buildAgent(model, rag.NewRetriever(store, embedder))
	require.NoError(t, err)

	checkpointer := memstore.NewMemoryCheckpointStore()
	ctx := context.Background()

	cfg := graph.WithThreadID("reject-thread")
	cfg.Checkpointer = checkpointer

	state := map[string]any{
		"messages": []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, "order it"),
		},
	}
	_, err = agent.InvokeWithConfig(ctx, state, cfg)
	var gi *graph.GraphInterrupt
	require.True(t, errors.As(err, &gi))

	resumeCfg := graph.WithThreadID("reject-thread")
	resumeCfg.Checkpointer = checkpointer
	resumeCfg.ResumeValue = ApprovalDecision{Decision: DecisionReject}

	final, err := agent.InvokeWithConfig(ctx, map[string]any{}, resumeCfg)
	require.NoError(t, err)

	messages, _ := final["messages"].([]llms.MessageContent)
	foundCancelled := false
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if resp, ok := part.(llms.ToolCallResponse); ok {
				assert.Equal(t, "Order cancelled by user.", resp.Content)
				foundCancelled = true
			}
		}
	}
	assert.True(t, foundCancelled)
}

func TestBuildProductIndex_PersistsAndReloads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "products.csv")
	indexPath := filepath.Join(dir, "vector_store", "products.json")

	csv := "id,name,category,brand,price,description\n1,Thing,Stuff,Acme,9.99,A thing\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0o644))

	embedder := staticEmbedder{}
	ctx := context.Background()

	store := rag.NewInMemoryVectorStore(embedder)
	require.NoError(t, buildProductIndex(ctx, store, indexPath, csvPath))
	assert.Equal(t, 1, store.Stats().TotalDocuments)

	// Second run loads the persisted index without the CSV.
	reloaded := rag.NewInMemoryVectorStore(embedder)
	require.NoError(t, buildProductIndex(ctx, reloaded, indexPath, filepath.Join(dir, "missing.csv")))
	assert.Equal(t, 1, reloaded.Stats().TotalDocuments)
}
