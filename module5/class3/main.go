package main

import (
	"context"
	"net/http"
	"os"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/Rafi99769/ai-agent-development-course/log"
	"github.com/Rafi99769/ai-agent-development-course/rag"
	"github.com/Rafi99769/ai-agent-development-course/store"
	memstore "github.com/Rafi99769/ai-agent-development-course/store/memory"
	redisstore "github.com/Rafi99769/ai-agent-development-course/store/redis"
	"github.com/Rafi99769/ai-agent-development-course/tools"
)

func newCheckpointStore(ctx context.Context, cfg Config) (store.CheckpointStore, error) {
	if cfg.RedisAddr == "" {
		return memstore.NewMemoryCheckpointStore(), nil
	}

	rs := redisstore.NewRedisCheckpointStore(redisstore.RedisOptions{Addr: cfg.RedisAddr})
	if err := rs.Ping(ctx); err != nil {
		return nil, err
	}
	log.Info("checkpointing to redis at %s", cfg.RedisAddr)
	return rs, nil
}

func main() {
	cfg := LoadConfig()
	ctx := context.Background()

	model, err := openai.New(
		openai.WithToken(cfg.OpenAIKey),
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(cfg.OpenAIBaseURL),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
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

	vectorStore := rag.NewInMemoryVectorStore(embedder)
	if err := prepareKnowledgeBase(ctx, vectorStore, cfg.KBDir); err != nil {
		log.Error("failed to prepare knowledge base: %v", err)
		os.Exit(1)
	}
	retriever := rag.NewRetriever(vectorStore, embedder, rag.WithTopK(5))

	catalog, err := tools.LoadProductCatalog(getEnv("PRODUCTS_CSV", "data/products.csv"))
	if err != nil {
		log.Error("failed to load product catalog: %v", err)
		os.Exit(1)
	}

	agent, err := buildAssistant(model, []lctools.Tool{
		&tools.ListProductsTool{Catalog: catalog},
		&tools.KnowledgeBaseTool{Retriever: retriever},
	})
	if err != nil {
		log.Error("failed to build assistant: %v", err)
		os.Exit(1)
	}

	checkpointer, err := newCheckpointStore(ctx, cfg)
	if err != nil {
		log.Error("failed to create checkpoint store: %v", err)
		os.Exit(1)
	}

	server := NewServer(agent, checkpointer)
	log.Info("chat API listening on %s", cfg.Addr())
	if err := http.ListenAndServe(cfg.Addr(), server.Handler()); err != nil {
		log.Error("server stopped: %v", err)
		os.Exit(1)
	}
}
