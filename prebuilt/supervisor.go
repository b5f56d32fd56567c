package prebuilt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/log"
)

// SupervisorOptions configures CreateSupervisor.
type SupervisorOptions struct {
	// SystemPrompt overrides the default routing prompt.
	SystemPrompt string

	// MaxSteps bounds the number of supervisor turns. When two or fewer
	// steps remain the supervisor finishes instead of delegating again.
	// Zero means no bound.
	MaxSteps int
}

// CreateSupervisor builds a graph in which a supervisor node picks a member
// agent to act next via a forced "route" tool call, and every member
// reports back to the supervisor until it answers FINISH.
func CreateSupervisor(model llms.Model, members map[string]*graph.Runnable[map[string]any], opts SupervisorOptions) (*graph.Runnable[map[string]any], error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("supervisor needs at least one member")
	}

	memberNames := make([]string, 0, len(members))
	for name := range members {
		memberNames = append(memberNames, name)
	}
	sort.Strings(memberNames)

	routeTool := llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "route",
			Description: "Select the next role.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"next": map[string]any{
						"type": "string",
						"enum": append(append([]string{}, memberNames...), "FINISH"),
					},
				},
				"required": []string{"next"},
			},
		},
	}

	systemPrompt := opts.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = fmt.Sprintf(
			"You are a supervisor tasked with managing a conversation between the"+
				" following workers: %s. Given the following user request, respond with"+
				" the worker to act next. Each worker will perform a task and respond"+
				" with their results and status. When finished, respond with FINISH."+
				" You MUST use the 'route' tool to select the next worker or to finish.",
			strings.Join(memberNames, ", "),
		)
	}

	workflow := graph.NewStateGraph[map[string]any]()
	workflow.SetSchema(graph.NewMessagesSchema())

	workflow.AddNode("supervisor", "routes work to member agents", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		messages, ok := state["messages"].([]llms.MessageContent)
		if !ok {
			return nil, fmt.Errorf("messages key not found or invalid type")
		}

		steps, _ := state["step_count"].(int)
		if opts.MaxSteps > 0 && opts.MaxSteps-steps <= 2 {
			log.Warn("supervisor finishing early: %d of %d steps used", steps, opts.MaxSteps)
			return map[string]any{"next": "FINISH", "step_count": steps + 1}, nil
		}

		inputMessages := append(
			[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt)},
			messages...,
		)

		resp, err := model.GenerateContent(ctx, inputMessages,
			llms.WithTools([]llms.Tool{routeTool}),
			llms.WithToolChoice(llms.ToolChoice{
				Type:     "function",
				Function: &llms.FunctionReference{Name: "route"},
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("supervisor model call failed: %w", err)
		}

		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			return nil, fmt.Errorf("supervisor did not select a next step")
		}

		var args struct {
			Next string `json:"next"`
		}
		if err := json.Unmarshal([]byte(choice.ToolCalls[0].FunctionCall.Arguments), &args); err != nil {
			return nil, fmt.Errorf("failed to parse route arguments: %w", err)
		}

		log.Debug("supervisor routed to %s", args.Next)
		return map[string]any{"next": args.Next, "step_count": steps + 1}, nil
	})

	for name, member := range members {
		agent := member
		workflow.AddNode(name, "member agent "+name, func(ctx context.Context, state map[string]any) (map[string]any, error) {
			before, _ := state["messages"].([]llms.MessageContent)

			result, err := agent.Invoke(ctx, map[string]any{"messages": before})
			if err != nil {
				return nil, fmt.Errorf("member %s failed: %w", name, err)
			}

			// Members run on the shared history; only their new messages
			// are merged back.
			after, _ := result["messages"].([]llms.MessageContent)
			if len(after) > len(before) {
				return map[string]any{"messages": after[len(before):]}, nil
			}
			return map[string]any{}, nil
		})
		workflow.AddEdge(name, "supervisor")
	}

	workflow.SetEntryPoint("supervisor")
	workflow.AddConditionalEdge("supervisor", func(_ context.Context, state map[string]any) string {
		next, ok := state["next"].(string)
		if !ok || next == "FINISH" {
			return graph.END
		}
		if _, exists := members[next]; !exists {
			return graph.END
		}
		return next
	})

	return workflow.Compile()
}
