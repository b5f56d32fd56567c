// A command line to-do assistant. A ReAct agent manages a JSON to-do file
// through three tools, with the conversation checkpointed per thread so
// earlier turns stay visible to the model.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/log"
	"github.com/Rafi99769/ai-agent-development-course/prebuilt"
	memstore "github.com/Rafi99769/ai-agent-development-course/store/memory"
	"github.com/Rafi99769/ai-agent-development-course/tools"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", "q":
		return true
	}
	return false
}

func lastAIText(messages []llms.MessageContent) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != llms.ChatMessageTypeAI {
			continue
		}
		for _, part := range messages[i].Parts {
			if text, ok := part.(llms.TextContent); ok && text.Text != "" {
				return text.Text
			}
		}
	}
	return ""
}

func main() {
	if os.Getenv("OPENAI_API_KEY") == "" {
		log.Error("OPENAI_API_KEY not set")
		os.Exit(1)
	}

	opts := []openai.Option{
		openai.WithModel(getEnv("MODEL_NAME", "gpt-4o-mini")),
	}
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		opts = append(opts, openai.WithBaseURL(base))
	}
	model, err := openai.New(opts...)
	if err != nil {
		log.Error("failed to create model: %v", err)
		os.Exit(1)
	}

	todoFile := getEnv("TODO_FILE", tools.DefaultTodoFile)
	agent, err := prebuilt.CreateReactAgent(model, []lctools.Tool{
		tools.NewCreateTodoTool(todoFile),
		tools.NewReadTodosTool(todoFile),
		tools.NewUpdateTodoTool(todoFile),
	}, 0)
	if err != nil {
		log.Error("failed to build agent: %v", err)
		os.Exit(1)
	}

	checkpointer := memstore.NewMemoryCheckpointStore()
	threadID := "todo-" + uuid.New().String()

	fmt.Println("To-do assistant ready. Type `exit`, `quit` or `q` to leave.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if isExitCommand(input) {
			fmt.Println("Goodbye!")
			break
		}

		cfg := graph.WithThreadID(threadID)
		cfg.Checkpointer = checkpointer

		state := map[string]any{
			"messages": []llms.MessageContent{
				llms.TextParts(llms.ChatMessageTypeHuman, input),
			},
		}
		final, err := agent.InvokeWithConfig(context.Background(), state, cfg)
		if err != nil {
			log.Error("agent run failed: %v", err)
			continue
		}

		messages, _ := final["messages"].([]llms.MessageContent)
		if reply := lastAIText(messages); reply != "" {
			fmt.Println(reply)
		}
	}
}
