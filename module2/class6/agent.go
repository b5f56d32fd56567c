// Package main implements a command line e-commerce assistant. Products
// from a CSV catalog are embedded into a persisted vector index, a ReAct
// agent answers product questions, and order creation is gated behind a
// human approval interrupt.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/log"
	"github.com/Rafi99769/ai-agent-development-course/prebuilt"
	"github.com/Rafi99769/ai-agent-development-course/rag"
	"github.com/Rafi99769/ai-agent-development-course/tools"
)

// Approval decisions for gated tools.
const (
	DecisionApprove = "approve"
	DecisionEdit    = "edit"
	DecisionReject  = "reject"
)

// ApprovalRequest is the interrupt payload shown to the human.
type ApprovalRequest struct {
	Tool  string `json:"tool"`
	Input string `json:"input"`
}

// ApprovalDecision is the resume value answering an ApprovalRequest.
type ApprovalDecision struct {
	Decision string `json:"decision"`
	// Input replaces the tool input when Decision is "edit".
	Input string `json:"input,omitempty"`
}

// humanApprovalTool wraps a tool so every call pauses the graph until a
// human approves, edits or rejects it.
type humanApprovalTool struct {
	inner lctools.Tool
}

func withHumanApproval(inner lctools.Tool) lctools.Tool {
	return &humanApprovalTool{inner: inner}
}

func (t *humanApprovalTool) Name() string {
	return t.inner.Name()
}

func (t *humanApprovalTool) Description() string {
	return t.inner.Description()
}

func (t *humanApprovalTool) Call(ctx context.Context, input string) (string, error) {
	raw, err := graph.Interrupt(ctx, ApprovalRequest{Tool: t.inner.Name(), Input: input})
	if err != nil {
		return "", err
	}

	decision, ok := raw.(ApprovalDecision)
	if !ok {
		return "", fmt.Errorf("unexpected resume value %T", raw)
	}
	switch decision.Decision {
	case DecisionApprove:
		return t.inner.Call(ctx, input)
	case DecisionEdit:
		return t.inner.Call(ctx, decision.Input)
	case DecisionReject:
		return "Order cancelled by user.", nil
	default:
		return "", fmt.Errorf("unknown decision %q", decision.Decision)
	}
}

// buildProductIndex loads an existing vector index, or embeds the CSV
// catalog and persists the result.
func buildProductIndex(ctx context.Context, store *rag.InMemoryVectorStore, indexPath, csvPath string) error {
	if _, err := os.Stat(indexPath); err == nil {
		log.Info("loading existing vector index from %s", indexPath)
		return store.LoadFromFile(indexPath)
	}

	log.Info("building vector index from %s", csvPath)
	products, err := tools.LoadProductCatalog(csvPath)
	if err != nil {
		return err
	}
	docs := make([]rag.Document, 0, len(products))
	for _, p := range products {
		docs = append(docs, p.Document())
	}
	if err := store.Add(ctx, docs); err != nil {
		return err
	}
	return store.SaveToFile(indexPath)
}

// buildAgent wires the ReAct agent with product search and the gated
// order tool.
func buildAgent(model llms.Model, retriever *rag.Retriever) (*graph.Runnable[map[string]any], error) {
	return prebuilt.CreateReactAgent(model, []lctools.Tool{
		tools.NewSearchProductsTool(retriever),
		withHumanApproval(tools.NewCreateOrderTool()),
	}, 0)
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

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", "q":
		return true
	}
	return false
}
