package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/Rafi99769/ai-agent-development-course/memory"
)

// promptWindow is how many recent messages are included in the prompt.
const promptWindow = 10

// ChatAgent is a conversational agent with a capped history.
type ChatAgent struct {
	name    string
	modelID string
	model   llms.Model
	history *memory.History
}

// NewChatAgent creates a chat agent over the model.
func NewChatAgent(name, modelID string, model llms.Model) *ChatAgent {
	return &ChatAgent{
		name:    name,
		modelID: modelID,
		model:   model,
		history: memory.NewHistory(),
	}
}

// GenerateResponse answers the prompt using the last few history messages
// as context, then records both sides of the exchange.
func (a *ChatAgent) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	fullPrompt := a.buildPromptWithHistory(prompt)

	resp, err := a.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, fullPrompt),
	})
	if err != nil {
		return "", fmt.Errorf("error generating response: %w", err)
	}

	responseText := "I apologize, but I couldn't generate a response."
	if len(resp.Choices) > 0 && resp.Choices[0].Content != "" {
		responseText = resp.Choices[0].Content
	}

	a.history.Add("user", prompt)
	a.history.Add("assistant", responseText)
	return responseText, nil
}

func (a *ChatAgent) buildPromptWithHistory(current string) string {
	window := a.history.Window(promptWindow)
	if len(window) == 0 {
		return current
	}

	lines := make([]string, 0, len(window))
	for _, msg := range window {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return fmt.Sprintf("Previous conversation:\n%s\n\nCurrent message:\nuser: %s",
		strings.Join(lines, "\n"), current)
}

// History returns the recorded conversation.
func (a *ChatAgent) History() []memory.Message {
	return a.history.All()
}

// ClearHistory drops the recorded conversation.
func (a *ChatAgent) ClearHistory() {
	a.history.Clear()
}

// Info describes the agent configuration.
func (a *ChatAgent) Info() map[string]any {
	return map[string]any{
		"name":               a.name,
		"model":              a.modelID,
		"conversation_length": a.history.Len(),
		"max_history_length": memory.DefaultCapacity,
	}
}
