// Package main is the Example Shop assistant: a CLI agent that lists
// products from a CSV catalog, searches the shop knowledge base and tells
// the time, routing between its agent and tool nodes with Command gotos.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/log"
	"github.com/Rafi99769/ai-agent-development-course/prebuilt"
	"github.com/Rafi99769/ai-agent-development-course/rag"
)

const systemPrompt = `You are a helpful AI assistant for "Example Shop". You will help a customer to fulfill their needs.

Example Shop is a e-commerce website that sells products to customers.

Your responsibilities are:
- You will help a customer to find product.
- Help them to place order.
- Check the stock of the product.

General Guidelines:
- You are always friendly and helpful.
- Never make up information or hallucinate. If you don't have the information, say you don't have enough information to answer the question.
- Use the available tools to get the information you need.

Available Tools:
- list_products: List all products in the shop including their price, stock, etc.
- search_knowledge_base: Search the knowledge base for the given query like contact information, FAQ, policies, etc.
- get_current_time: Current time in a named timezone.`

// buildShopAssistant wires an agent node and a tool node. The agent node
// decides with a Command where to go next: the tool node when the model
// requested tool calls, END otherwise.
func buildShopAssistant(model llms.Model, toolList []lctools.Tool) (*graph.Runnable[map[string]any], error) {
	executor := prebuilt.NewToolExecutor(toolList)

	toolDefs := make([]llms.Tool, 0, len(toolList))
	for _, t := range toolList {
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

	workflow.AddCommandNode("agent", "answers or requests tools", func(ctx context.Context, state map[string]any) (*graph.Command[map[string]any], error) {
		messages, ok := state["messages"].([]llms.MessageContent)
		if !ok {
			return nil, fmt.Errorf("messages key not found or invalid type")
		}

		prompted := append(
			[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt)},
			messages...,
		)
		resp, err := model.GenerateContent(ctx, prompted, llms.WithTools(toolDefs))
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

		next := graph.END
		if len(choice.ToolCalls) > 0 {
			next = "tools"
		}
		return &graph.Command[map[string]any]{
			Update: map[string]any{"messages": aiMsg},
			Goto:   next,
		}, nil
	})

	workflow.AddNode("tools", "executes pending tool calls", func(ctx context.Context, state map[string]any) (map[string]any, error) {
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

			result, err := executor.Execute(ctx, prebuilt.ToolInvocation{
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
	})

	workflow.SetEntryPoint("agent")
	workflow.AddEdge("tools", "agent")
	return workflow.Compile()
}

// seedKnowledgeBase loads every markdown and text file under dir into the
// store, split into chunks. A missing directory is not an error; the
// assistant just has an empty knowledge base.
func seedKnowledgeBase(ctx context.Context, store *rag.InMemoryVectorStore, dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		log.Warn("knowledge base directory %s not found, skipping", dir)
		return nil
	}
	if err != nil {
		return err
	}

	splitter := rag.NewRecursiveCharacterTextSplitter(rag.WithChunkSize(500), rag.WithChunkOverlap(50))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".md" && ext != ".txt" {
			continue
		}
		docs, err := rag.NewTextLoader(filepath.Join(dir, entry.Name())).Load(ctx)
		if err != nil {
			return fmt.Errorf("loading %s: %w", entry.Name(), err)
		}
		if err := store.Add(ctx, splitter.SplitDocuments(docs)); err != nil {
			return err
		}
	}
	return nil
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

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", "q":
		return true
	}
	return false
}
