package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/log"
	"github.com/Rafi99769/ai-agent-development-course/rag"
	memstore "github.com/Rafi99769/ai-agent-development-course/store/memory"
	"github.com/Rafi99769/ai-agent-development-course/tools"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Border(lipgloss.DoubleBorder()).
			Padding(0, 2)

	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	model, err := openai.New(
		openai.WithToken(os.Getenv("OPENAI_API_KEY")),
		openai.WithModel(getEnv("OPENAI_MODEL", "gpt-4o-mini")),
		openai.WithBaseURL(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1")),
		openai.WithEmbeddingModel(getEnv("EMBEDDING_MODEL", "text-embedding-3-small")),
	)
	if err != nil {
		log.Error("failed to create model: %v", err)
		os.Exit(1)
	}

	embedModel, err := embeddings.NewEmbedder(model)
	if err != nil {
		log.Error("failed to create embedder: %v", err)
		os.Exit(1)
	}
	embedder := rag.NewLangChainEmbedder(embedModel)

	ctx := context.Background()

	catalog, err := tools.LoadProductCatalog(getEnv("PRODUCTS_CSV", "data/products.csv"))
	if err != nil {
		log.Error("failed to load product catalog: %v", err)
		os.Exit(1)
	}

	store := rag.NewInMemoryVectorStore(embedder)
	if err := seedKnowledgeBase(ctx, store, getEnv("KB_DIR", "data/kb")); err != nil {
		log.Error("failed to seed knowledge base: %v", err)
		os.Exit(1)
	}
	retriever := rag.NewRetriever(store, embedder, rag.WithTopK(5))

	assistant, err := buildShopAssistant(model, []lctools.Tool{
		&tools.ListProductsTool{Catalog: catalog},
		&tools.KnowledgeBaseTool{Retriever: retriever},
		tools.NewCurrentTimeTool(),
	})
	if err != nil {
		log.Error("failed to build assistant: %v", err)
		os.Exit(1)
	}

	checkpointer := memstore.NewMemoryCheckpointStore()
	threadID := "1233"

	fmt.Println(bannerStyle.Render("Example Shop Assistant"))
	fmt.Println("Type 'exit', 'quit' or 'q' to leave.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("You: "))
		if !scanner.Scan() {
			break
		}
		input := scanner.Text()
		if input == "" || isExitCommand(input) {
			break
		}

		cfg := graph.WithThreadID(threadID)
		cfg.Checkpointer = checkpointer

		result, err := assistant.InvokeWithConfig(ctx, map[string]any{
			"messages": []llms.MessageContent{
				llms.TextParts(llms.ChatMessageTypeHuman, input),
			},
		}, cfg)
		if err != nil {
			log.Error("assistant failed: %v", err)
			continue
		}

		messages, _ := result["messages"].([]llms.MessageContent)
		fmt.Printf("Ast: %s\n\n", lastAIText(messages))
	}
}
