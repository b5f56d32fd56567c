// Package main implements an HTTP chat agent server: a single
// conversational agent with capped history exposed over a small JSON API.
package main

import "os"

// Config holds the application configuration.
type Config struct {
	Host string
	Port string

	OpenAIKey     string
	OpenAIBaseURL string
	Model         string

	AgentName string
}

// LoadConfig loads configuration from environment variables with sensible
// defaults.
func LoadConfig() Config {
	return Config{
		Host:          getEnv("HOST", "localhost"),
		Port:          getEnv("PORT", "8000"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		Model:         getEnv("MODEL_NAME", "gpt-4o-mini"),
		AgentName:     getEnv("AGENT_NAME", "Chat Agent"),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
