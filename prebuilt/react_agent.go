package prebuilt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/log"
)

// CreateReactAgent builds a ReAct graph: an agent node that may emit tool
// calls and a tools node that executes them, looping until the model
// answers without tool calls or maxIterations is reached.
func CreateReactAgent(model llms.Model, inputTools []tools.Tool, maxIterations int) (*graph.Runnable[map[string]any], error) {
	if maxIterations <= 0 {
		maxIterations = 20
	}

	toolExecutor := NewToolExecutor(inputTools)

	toolDefs := make([]llms.Tool, 0, len(inputTools))
	for _, t := range inputTools {
		toolDefs = append(toolDefs, llms.Tool{
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

	workflow := graph.NewStateGraph[map[string]any]()
	workflow.SetSchema(graph.NewMessagesSchema())

	workflow.AddNode("agent", "decides on an answer or tool calls", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		messages, ok := state["messages"].([]llms.MessageContent)
		if !ok {
			return nil, fmt.Errorf("messages key not found or invalid type")
		}

		iteration, _ := state["iteration_count"].(int)
		if iteration >= maxIterations {
			log.Warn("react agent hit iteration limit (%d)", maxIterations)
			return map[string]any{
				"messages": llms.TextParts(llms.ChatMessageTypeAI,
					"Maximum iterations reached. Please try a simpler query."),
			}, nil
		}

		resp, err := model.GenerateContent(ctx, messages, llms.WithTools(toolDefs))
		if err != nil {
			return nil, fmt.Errorf("model call failed: %w", err)
		}

		choice := resp.Choices[0]
		aiMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			aiMsg.Parts = append(aiMsg.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			aiMsg.Parts = append(aiMsg.Parts, tc)
		}

		return map[string]any{
			"messages":        aiMsg,
			"iteration_count": iteration + 1,
		}, nil
	})

	workflow.AddNode("tools", "executes pending tool calls", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		messages := state["messages"].([]llms.MessageContent)
		lastMsg := messages[len(messages)-1]
		if lastMsg.Role != llms.ChatMessageTypeAI {
			return nil, fmt.Errorf("last message is not an AI message")
		}

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

			log.Debug("executing tool %s", tc.FunctionCall.Name)
			result, err := toolExecutor.Execute(ctx, ToolInvocation{
				Tool:      tc.FunctionCall.Name,
				ToolInput: input,
			})
			if err != nil {
				// Interrupts pause the graph for human input; everything
				// else is rendered into the tool response so the model can
				// react to it.
				var ni *graph.NodeInterrupt
				if errors.As(err, &ni) {
					return nil, err
				}
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
	})

	workflow.SetEntryPoint("agent")
	workflow.AddConditionalEdge("agent", func(_ context.Context, state map[string]any) string {
		messages := state["messages"].([]llms.MessageContent)
		lastMsg := messages[len(messages)-1]
		for _, part := range lastMsg.Parts {
			if _, ok := part.(llms.ToolCall); ok {
				return "tools"
			}
		}
		return graph.END
	})
	workflow.AddEdge("tools", "agent")

	return workflow.Compile()
}
