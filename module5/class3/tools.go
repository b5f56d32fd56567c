package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/Rafi99769/ai-agent-development-course/prebuilt"
)

// toolDefinitions exposes the tools to the model with the single "input"
// string parameter every tool in this course takes.
func toolDefinitions(toolList []lctools.Tool) []llms.Tool {
	defs := make([]llms.Tool, 0, len(toolList))
	for _, t := range toolList {
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{
							"type":        "string",
							"description": "The input query for the tool",
						},
					},
					"required":             []string{"input"},
					"additionalProperties": false,
				},
			},
		})
	}
	return defs
}

type toolRunner struct {
	executor *prebuilt.ToolExecutor
}

func newToolExecutor(toolList []lctools.Tool) *toolRunner {
	return &toolRunner{executor: prebuilt.NewToolExecutor(toolList)}
}

// run executes every tool call in the last AI message and appends the tool
// responses to the conversation.
func (tr *toolRunner) run(ctx context.Context, state map[string]any) (map[string]any, error) {
	messages := state["messages"].([]llms.MessageContent)
	lastMsg := messages[len(messages)-1]

	var toolMessages []llms.MessageContent
	for _, part := range lastMsg.Parts {
		tc, ok := part.(llms.ToolCall)
		if !ok {
			continue
		}

		input := tc.FunctionCall.Arguments
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err == nil {
			if val, ok := args["input"].(string); ok {
				input = val
			}
		}

		result, err := tr.executor.Execute(ctx, prebuilt.ToolInvocation{
			Tool:      tc.FunctionCall.Name,
			ToolInput: input,
		})
		if err != nil {
			result = fmt.Sprintf("Error: %v", err)
		}
		toolMessages = append(toolMessages, llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    result,
				},
			},
		})
	}
	return map[string]any{"messages": toolMessages}, nil
}
