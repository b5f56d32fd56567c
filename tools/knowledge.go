package tools

import (
	"context"
	"strings"

	"github.com/Rafi99769/ai-agent-development-course/rag"
)

// KnowledgeBaseTool searches the shop knowledge base (FAQ, policies,
// contact information) through a rag retriever.
type KnowledgeBaseTool struct {
	Retriever *rag.Retriever
}

func (t *KnowledgeBaseTool) Name() string {
	return "search_knowledge_base"
}

func (t *KnowledgeBaseTool) Description() string {
	return "Search the knowledge base for the given query like contact information, FAQ, policies, etc."
}

func (t *KnowledgeBaseTool) Call(ctx context.Context, input string) (string, error) {
	results, err := t.Retriever.GetRelevantDocuments(ctx, input)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No relevant information found in the knowledge base.", nil
	}

	contents := make([]string, 0, len(results))
	for _, r := range results {
		contents = append(contents, r.Document.Content)
	}
	return strings.Join(contents, "\n"), nil
}
