package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmc/langchaingo/llms"
)

func TestIsExitCommand(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"exit", "quit", "q", " EXIT ", "Q"} {
		assert.True(t, isExitCommand(input), "input: %q", input)
	}
	for _, input := range []string{"", "hello", "quit now"} {
		assert.False(t, isExitCommand(input), "input: %q", input)
	}
}

func TestLastAIText(t *testing.T) {
	t.Parallel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "add milk"),
		llms.TextParts(llms.ChatMessageTypeAI, "done"),
		llms.TextParts(llms.ChatMessageTypeHuman, "thanks"),
	}
	assert.Equal(t, "done", lastAIText(messages))
	assert.Equal(t, "", lastAIText(nil))
}
