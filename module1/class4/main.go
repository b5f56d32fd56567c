package main

import (
	"os"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Rafi99769/ai-agent-development-course/log"
)

func main() {
	cfg := LoadConfig()
	if cfg.OpenAIKey == "" {
		log.Error("OPENAI_API_KEY environment variable is required")
		os.Exit(1)
	}

	opts := []openai.Option{
		openai.WithToken(cfg.OpenAIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		log.Error("failed to create model: %v", err)
		os.Exit(1)
	}

	agent := NewChatAgent(cfg.AgentName, cfg.Model, model)
	server := NewServer(cfg, agent)
	if err := server.Start(); err != nil {
		log.Error("server stopped: %v", err)
		os.Exit(1)
	}
}
