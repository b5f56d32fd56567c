package main

import (
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Rafi99769/ai-agent-development-course/log"
)

func main() {
	cfg := LoadConfig()
	if cfg.OpenAIKey == "" {
		log.Error("OPENAI_API_KEY environment variable is required")
		os.Exit(1)
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	server := NewServer(cfg, client)
	if err := server.Start(); err != nil {
		log.Error("server stopped: %v", err)
		os.Exit(1)
	}
}
