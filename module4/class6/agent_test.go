package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/Rafi99769/ai-agent-development-course/rag"
	"github.com/Rafi99769/ai-agent-development-course/tools"
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

func toolCallResponse(name, input string) llms.ContentResponse {
	args, _ := json.Marshal(map[string]string{"input": input})
	return llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:           "call_" + name,
			FunctionCall: &llms.FunctionCall{Name: name, Arguments: string(args)},
		}},
	}}}
}

func textResponse(text string) llms.ContentResponse {
	return llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}
}

func TestShopAssistant_ListsProducts(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llms.ContentResponse{
		toolCallResponse("list_products", ""),
		textResponse("We have a Trail Runner for $89.99."),
	}}

	catalog := []tools.Product{
		{ID: 1, Name: "Trail Runner", Category: "Shoes", Brand: "Acme", Price: 89.99, Description: "Running shoes"},
	}
	assistant, err := buildShopAssistant(model, []lctools.Tool{
		&tools.ListProductsTool{Catalog: catalog},
	})
	require.NoError(t, err)

	final, err := assistant.Invoke(context.Background(), map[string]any{
		"messages": []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, "What do you sell?"),
		},
	})
	require.NoError(t, err)

	messages, _ := final["messages"].([]llms.MessageContent)
	assert.Equal(t, "We have a Trail Runner for $89.99.", lastAIText(messages))

	foundTable := false
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if resp, ok := part.(llms.ToolCallResponse); ok {
				assert.Contains(t, resp.Content, "| 1 | Trail Runner | Shoes | Acme | $89.99 |")
				foundTable = true
			}
		}
	}
	assert.True(t, foundTable)
}

func TestShopAssistant_AnswersWithoutTools(t *testing.T) {
	t.Parallel()

	model := &scriptedLLM{responses: []llms.ContentResponse{
		textResponse("Hello! How can I help you today?"),
	}}

	assistant, err := buildShopAssistant(model, nil)
	require.NoError(t, err)

	final, err := assistant.Invoke(context.Background(), map[string]any{
		"messages": []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, "hi"),
		},
	})
	require.NoError(t, err)

	messages, _ := final["messages"].([]llms.MessageContent)
	assert.Equal(t, "Hello! How can I help you today?", lastAIText(messages))
	assert.Equal(t, 1, model.calls)
}

func TestSeedKnowledgeBase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "faq.md"),
		[]byte("Our support email is support@example.com."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.csv"),
		[]byte("a,b\n1,2\n"), 0o644))

	embedder := staticEmbedder{}
	store := rag.NewInMemoryVectorStore(embedder)
	require.NoError(t, seedKnowledgeBase(context.Background(), store, dir))
	assert.Equal(t, 1, store.Stats().TotalDocuments)

	// A missing directory is tolerated.
	empty := rag.NewInMemoryVectorStore(embedder)
	require.NoError(t, seedKnowledgeBase(context.Background(), empty, filepath.Join(dir, "missing")))
	assert.Equal(t, 0, empty.Stats().TotalDocuments)
}

type staticEmbedder struct{}

func (staticEmbedder) EmbedDocument(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (staticEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func TestIsExitCommand(t *testing.T) {
	t.Parallel()

	assert.True(t, isExitCommand("exit"))
	assert.True(t, isExitCommand(" Quit "))
	assert.True(t, isExitCommand("q"))
	assert.False(t, isExitCommand("question"))
}
