package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rafi99769/ai-agent-development-course/rag"
)

func TestKnowledgeBaseTool(t *testing.T) {
	t.Parallel()

	embedder := newKeywordEmbedder("refund", "shipping")
	store := rag.NewInMemoryVectorStore(embedder)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, []rag.Document{
		{ID: "policy_refund", Content: "Any refund is processed within 14 days."},
		{ID: "policy_shipping", Content: "Shipping takes 3-5 business days."},
	}))

	tool := &KnowledgeBaseTool{Retriever: rag.NewRetriever(store, embedder,
		rag.WithTopK(1), rag.WithScoreThreshold(0.5))}

	out, err := tool.Call(ctx, "what is the refund policy")
	require.NoError(t, err)
	assert.Equal(t, "Any refund is processed within 14 days.", out)

	out, err = tool.Call(ctx, "unrelated question")
	require.NoError(t, err)
	assert.Equal(t, "No relevant information found in the knowledge base.", out)
}
