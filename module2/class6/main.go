package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/log"
	"github.com/Rafi99769/ai-agent-development-course/rag"
	memstore "github.com/Rafi99769/ai-agent-development-course/store/memory"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Border(lipgloss.DoubleBorder()).
			Padding(0, 2)

	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	if os.Getenv("OPENAI_API_KEY") == "" {
		log.Error("OPENAI_API_KEY not set")
		os.Exit(1)
	}

	opts := []openai.Option{
		openai.WithModel(getEnv("MODEL_NAME", "gpt-4o-mini")),
		openai.WithEmbeddingModel(getEnv("EMBEDDING_MODEL", "text-embedding-3-small")),
	}
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		opts = append(opts, openai.WithBaseURL(base))
	}
	model, err := openai.New(opts...)
	if err != nil {
		log.Error("failed to create model: %v", err)
		os.Exit(1)
	}

	lcEmbedder, err := embeddings.NewEmbedder(model)
	if err != nil {
		log.Error("failed to create embedder: %v", err)
		os.Exit(1)
	}
	embedder := rag.NewLangChainEmbedder(lcEmbedder)

	ctx := context.Background()
	store := rag.NewInMemoryVectorStore(embedder)
	indexPath := getEnv("VECTOR_INDEX_PATH", "data/vector_store/products.json")
	csvPath := getEnv("PRODUCTS_CSV", "data/products.csv")
	if err := buildProductIndex(ctx, store, indexPath, csvPath); err != nil {
		log.Error("failed to build product index: %v", err)
		os.Exit(1)
	}

	retriever := rag.NewRetriever(store, embedder, rag.WithTopK(3))
	agent, err := buildAgent(model, retriever)
	if err != nil {
		log.Error("failed to build agent: %v", err)
		os.Exit(1)
	}

	checkpointer := memstore.NewMemoryCheckpointStore()
	threadID := "ecommerce_session_1"

	fmt.Println(bannerStyle.Render("E-Commerce Product Search Agent"))
	fmt.Println("\nAgent ready! Ask me about products.")
	fmt.Println("Example queries:")
	fmt.Println("  - 'I'm looking for wireless headphones'")
	fmt.Println("  - 'Show me running shoes'")
	fmt.Println("\nType 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("\nYou: "))
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if isExitCommand(query) {
			fmt.Println("\nGoodbye!")
			break
		}

		cfg := graph.WithThreadID(threadID)
		cfg.Checkpointer = checkpointer

		state := map[string]any{
			"messages": []llms.MessageContent{
				llms.TextParts(llms.ChatMessageTypeHuman, query),
			},
		}
		final, err := agent.InvokeWithConfig(ctx, state, cfg)

		var gi *graph.GraphInterrupt
		if errors.As(err, &gi) {
			final, err = resolveApproval(ctx, scanner, agent, checkpointer, threadID, gi)
		}
		if err != nil {
			log.Error("agent run failed: %v", err)
			continue
		}

		messages, _ := final["messages"].([]llms.MessageContent)
		if reply := lastAIText(messages); reply != "" {
			fmt.Println("\nAgent: " + reply)
		}
	}
}

// resolveApproval prompts for an order decision and resumes the paused
// graph with it.
func resolveApproval(ctx context.Context, scanner *bufio.Scanner, agent *graph.Runnable[map[string]any], checkpointer *memstore.MemoryCheckpointStore, threadID string, gi *graph.GraphInterrupt) (map[string]any, error) {
	request, _ := gi.InterruptValue.(ApprovalRequest)

	fmt.Println(alertStyle.Render("\n[ORDER CONFIRMATION REQUIRED]"))
	fmt.Printf("Tool: %s\nInput: %s\n", request.Tool, request.Input)
	fmt.Println("\nOptions:")
	fmt.Println("  1. approve - Execute as-is")
	fmt.Println("  2. edit - Modify the order details")
	fmt.Println("  3. reject - Cancel order")
	fmt.Print("\nYour decision (approve/edit/reject): ")

	decision := ApprovalDecision{Decision: DecisionReject}
	if scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case DecisionApprove:
			decision = ApprovalDecision{Decision: DecisionApprove}
		case DecisionEdit:
			fmt.Printf("New input [%s]: ", request.Input)
			edited := request.Input
			if scanner.Scan() {
				if line := strings.TrimSpace(scanner.Text()); line != "" {
					edited = line
				}
			}
			decision = ApprovalDecision{Decision: DecisionEdit, Input: edited}
		case DecisionReject:
			fmt.Println("\nOrder cancelled.")
		default:
			fmt.Println("\nInvalid decision. Cancelling order.")
		}
	}

	cfg := graph.WithThreadID(threadID)
	cfg.Checkpointer = checkpointer
	cfg.ResumeValue = decision

	// The paused state is restored from the thread checkpoint.
	return agent.InvokeWithConfig(ctx, map[string]any{}, cfg)
}
