package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Rafi99769/ai-agent-development-course/log"
	"github.com/Rafi99769/ai-agent-development-course/tools"
)

const defaultQuestion = "Which genre on average has the longest tracks? " +
	"And plot the top 5 genres by average track length as a bar chart."

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	question := defaultQuestion
	if len(os.Args) > 1 {
		question = strings.Join(os.Args[1:], " ")
	}

	ctx := context.Background()

	dbPath := getEnv("CHINOOK_DB", "Chinook.db")
	if err := tools.EnsureChinookDB(ctx, dbPath); err != nil {
		log.Error("failed to fetch chinook database: %v", err)
		os.Exit(1)
	}

	db, err := tools.NewSQLiteDatabase(dbPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	model, err := openai.New(
		openai.WithToken(os.Getenv("OPENAI_API_KEY")),
		openai.WithModel(getEnv("OPENAI_MODEL", "gpt-4o-mini")),
		openai.WithBaseURL(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1")),
	)
	if err != nil {
		log.Error("failed to create model: %v", err)
		os.Exit(1)
	}

	workflow, err := buildWorkflow(model, db)
	if err != nil {
		log.Error("failed to build workflow: %v", err)
		os.Exit(1)
	}

	fmt.Println("Running multi-agent workflow...")
	fmt.Println()

	initial := map[string]any{
		"messages": []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, question),
		},
	}
	for event := range workflow.Stream(ctx, initial, nil) {
		if event.Err != nil {
			log.Error("workflow failed: %v", event.Err)
			os.Exit(1)
		}
		messages, _ := event.State["messages"].([]llms.MessageContent)
		if len(messages) == 0 {
			continue
		}
		fmt.Println("----- STEP -----")
		fmt.Println(messageText(messages[len(messages)-1]))
		fmt.Println()
	}
}
