// Package main runs a hierarchical team of agents: a top-level supervisor
// delegates to a data analysis team and a content writing team, each of which
// is itself a supervisor over specialist agents.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/prebuilt"
	"github.com/Rafi99769/ai-agent-development-course/tools"
)

const maxSupervisorSteps = 10

func supervisorPrompt(members []string) string {
	return fmt.Sprintf(
		"You are a Supervisor responsible for coordinating the following specialized workers: %s.\n"+
			"Based on the user's request and the current conversation history, select the most appropriate worker to handle the next step.\n"+
			"Each worker will perform their assigned task and report back with results and status updates.\n"+
			"After all necessary tasks have been completed, respond with 'FINISH' to indicate that the workflow is complete.\n"+
			"Always choose only one worker at a time, based on the current context and task requirements.\n"+
			"You MUST use the 'route' tool to select the next worker or to finish.",
		strings.Join(members, ", "))
}

func specialist(model llms.Model, tool lctools.Tool, systemPrompt string) (*graph.Runnable[map[string]any], error) {
	agent, err := prebuilt.CreateReactAgent(model, []lctools.Tool{tool}, 0)
	if err != nil {
		return nil, err
	}
	return wrapWithSystemPrompt(agent, systemPrompt)
}

// wrapWithSystemPrompt prepends the specialist's instructions before handing
// the shared history to the agent, and strips the prompt again from the
// returned transcript so only the agent's new messages flow upward.
func wrapWithSystemPrompt(agent *graph.Runnable[map[string]any], systemPrompt string) (*graph.Runnable[map[string]any], error) {
	workflow := graph.NewStateGraph[map[string]any]()
	workflow.SetSchema(graph.NewMessagesSchema())

	workflow.AddNode("run", "runs the specialist with its instructions", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		incoming, _ := state["messages"].([]llms.MessageContent)
		prompted := append([]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		}, incoming...)

		result, err := agent.Invoke(ctx, map[string]any{"messages": prompted})
		if err != nil {
			return nil, err
		}
		after, _ := result["messages"].([]llms.MessageContent)
		if len(after) > len(prompted) {
			return map[string]any{"messages": after[len(prompted):]}, nil
		}
		return map[string]any{}, nil
	})
	workflow.SetEntryPoint("run")
	workflow.AddEdge("run", graph.END)
	return workflow.Compile()
}

func buildDataTeam(model llms.Model) (*graph.Runnable[map[string]any], error) {
	statistician, err := specialist(model, &tools.StatisticsTool{},
		"You are a statistician. Use the provided tool to analyze numerical data and find mean, median, mode. "+
			"DO NOT write summary. DO NOT generate report.")
	if err != nil {
		return nil, err
	}
	trendDetector, err := specialist(model, &tools.TrendDetectionTool{},
		"You are a data analyst. Your job is to detect trends (upward or downward) from numerical data. "+
			"DO NOT write summary. DO NOT generate report.")
	if err != nil {
		return nil, err
	}

	members := map[string]*graph.Runnable[map[string]any]{
		"statistician":   statistician,
		"trend_detector": trendDetector,
	}
	return prebuilt.CreateSupervisor(model, members, prebuilt.SupervisorOptions{
		SystemPrompt: supervisorPrompt([]string{"statistician", "trend_detector"}),
		MaxSteps:     maxSupervisorSteps,
	})
}

func buildContentTeam(model llms.Model) (*graph.Runnable[map[string]any], error) {
	summarizer, err := specialist(model, &tools.SummarizeTool{},
		"You are a content summarizer. Create bullet points from long texts.")
	if err != nil {
		return nil, err
	}
	reportWriter, err := specialist(model, &tools.ReportGenerationTool{},
		"You are a report writer. Create a formal market research report based on the given points.")
	if err != nil {
		return nil, err
	}

	members := map[string]*graph.Runnable[map[string]any]{
		"summarizer":    summarizer,
		"report_writer": reportWriter,
	}
	return prebuilt.CreateSupervisor(model, members, prebuilt.SupervisorOptions{
		SystemPrompt: supervisorPrompt([]string{"summarizer", "report_writer"}),
		MaxSteps:     maxSupervisorSteps,
	})
}

// buildResearchTeams assembles the full hierarchy under a top supervisor.
func buildResearchTeams(model llms.Model) (*graph.Runnable[map[string]any], error) {
	dataTeam, err := buildDataTeam(model)
	if err != nil {
		return nil, err
	}
	contentTeam, err := buildContentTeam(model)
	if err != nil {
		return nil, err
	}

	members := map[string]*graph.Runnable[map[string]any]{
		"data_analysis_team":   dataTeam,
		"content_writing_team": contentTeam,
	}
	return prebuilt.CreateSupervisor(model, members, prebuilt.SupervisorOptions{
		SystemPrompt: supervisorPrompt([]string{"data_analysis_team", "content_writing_team"}),
		MaxSteps:     maxSupervisorSteps,
	})
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
