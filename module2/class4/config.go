// Package main implements an HTTP embeddings server: endpoints to embed
// raw text, embed an uploaded PDF, and score candidate texts against a
// query by cosine similarity.
package main

import "os"

// Config holds the application configuration.
type Config struct {
	Host string
	Port string

	OpenAIKey      string
	OpenAIBaseURL  string
	EmbeddingModel string
}

// LoadConfig loads configuration from environment variables with sensible
// defaults.
func LoadConfig() Config {
	return Config{
		Host:           getEnv("HOST", "localhost"),
		Port:           getEnv("PORT", "8000"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
