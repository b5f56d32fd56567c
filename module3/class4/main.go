package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/log"
	"github.com/Rafi99769/ai-agent-development-course/store/sqlite"
)

type scenario struct {
	Name         string
	EmailContent string
	SenderEmail  string
	EmailID      string
}

var scenarios = []scenario{
	{
		Name:         "Simple Question",
		EmailContent: "How do I reset my password?",
		SenderEmail:  "user1@example.com",
		EmailID:      "email_001",
	},
	{
		Name:         "Bug Report",
		EmailContent: "The export feature crashes when I select PDF format",
		SenderEmail:  "user2@example.com",
		EmailID:      "email_002",
	},
	{
		Name:         "Urgent Billing Issue",
		EmailContent: "I was charged twice for my subscription! This is urgent!",
		SenderEmail:  "user3@example.com",
		EmailID:      "email_003",
	},
	{
		Name:         "Feature Request HTML",
		EmailContent: "<html><body><p>Can you <b>add</b> dark mode to the mobile app?</p></body></html>",
		SenderEmail:  "user4@example.com",
		EmailID:      "email_004",
	},
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	workflow, err := buildEmailWorkflow()
	if err != nil {
		log.Error("failed to build workflow: %v", err)
		os.Exit(1)
	}

	checkpointer, err := sqlite.NewSqliteCheckpointStore(sqlite.SqliteOptions{
		Path: getEnv("CHECKPOINT_DB", "email_checkpoints.db"),
	})
	if err != nil {
		log.Error("failed to open checkpoint store: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	for i, sc := range scenarios {
		fmt.Printf("\n==== SCENARIO %d: %s ====\n", i+1, sc.Name)

		threadID := "thread_" + sc.EmailID
		cfg := graph.WithThreadID(threadID)
		cfg.Checkpointer = checkpointer

		state := EmailAgentState{
			EmailContent: sc.EmailContent,
			SenderEmail:  sc.SenderEmail,
			EmailID:      sc.EmailID,
		}
		final, err := workflow.InvokeWithConfig(ctx, state, cfg)

		// High priority drafts pause for review; approve them here.
		var gi *graph.GraphInterrupt
		if errors.As(err, &gi) {
			fmt.Println("\n[HUMAN REVIEW REQUIRED]")
			if payload, ok := gi.InterruptValue.(map[string]any); ok {
				fmt.Printf("Draft preview: %.150v\n", payload["draft"])
			}
			fmt.Println("Approving draft.")

			resumeCfg := graph.WithThreadID(threadID)
			resumeCfg.Checkpointer = checkpointer
			resumeCfg.ResumeValue = "approved"
			final, err = workflow.InvokeWithConfig(ctx, EmailAgentState{}, resumeCfg)
		}
		if err != nil {
			log.Error("scenario failed: %v", err)
			continue
		}

		fmt.Printf("\nClassification: %s (%s)\n", final.Classification.Intent, final.Classification.Urgency)
		fmt.Printf("Reply to %s:\n%s\n", final.SenderEmail, final.DraftResponse)
		fmt.Printf("Steps logged: %d\n", len(final.Trace))
	}
}
