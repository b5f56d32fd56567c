package main

import "os"

// Config carries the server settings, read from the environment.
type Config struct {
	Host           string
	Port           string
	OpenAIKey      string
	OpenAIBaseURL  string
	Model          string
	EmbeddingModel string

	// RedisAddr switches checkpointing from memory to Redis when set.
	RedisAddr string

	KBDir string
}

// LoadConfig reads the configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Host:           getEnv("HOST", "localhost"),
		Port:           getEnv("PORT", "8000"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		KBDir:          getEnv("KB_DIR", "data"),
	}
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
