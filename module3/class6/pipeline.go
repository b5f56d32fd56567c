// Package main implements a sequential research pipeline: a data-fetcher
// agent answers the user's question from a Postgres database through a
// read-only SQL tool, then a reporting step expands the findings into a
// markdown report.
package main

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/log"
	"github.com/Rafi99769/ai-agent-development-course/prebuilt"
	"github.com/Rafi99769/ai-agent-development-course/tools"
)

// ResearchState flows through the pipeline.
type ResearchState struct {
	Query    string `json:"query"`
	Findings string `json:"findings,omitempty"`
	Report   string `json:"report,omitempty"`
}

const fetcherPrompt = "You are a senior data researcher. Use the sql_query tool to gather the data " +
	"needed to answer the question below, then summarize what you found.\n\nQuestion: %s"

const reportPrompt = "You are a reporting analyst. Expand the research findings below into a short " +
	"markdown report with a heading and bullet points. Findings:\n\n%s"

// buildResearchPipeline assembles the two-step graph.
func buildResearchPipeline(model llms.Model, queryTool *tools.PostgresQueryTool) (*graph.Runnable[ResearchState], error) {
	fetcher, err := prebuilt.CreateReactAgent(model, []lctools.Tool{queryTool}, 0)
	if err != nil {
		return nil, err
	}

	pipeline := graph.NewStateGraph[ResearchState]()

	pipeline.AddNode("data_fetcher", "gathers data via the SQL tool", func(ctx context.Context, state ResearchState) (ResearchState, error) {
		log.Info("fetching data for query: %s", state.Query)
		result, err := fetcher.Invoke(ctx, map[string]any{
			"messages": []llms.MessageContent{
				llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(fetcherPrompt, state.Query)),
			},
		})
		if err != nil {
			return state, fmt.Errorf("data fetcher failed: %w", err)
		}

		messages, _ := result["messages"].([]llms.MessageContent)
		state.Findings = lastAIText(messages)
		if state.Findings == "" {
			return state, fmt.Errorf("data fetcher produced no findings")
		}
		return state, nil
	})

	pipeline.AddNode("reporting", "writes the markdown report", func(ctx context.Context, state ResearchState) (ResearchState, error) {
		resp, err := model.GenerateContent(ctx, []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(reportPrompt, state.Findings)),
		})
		if err != nil {
			return state, fmt.Errorf("reporting failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return state, fmt.Errorf("reporting produced no content")
		}
		state.Report = resp.Choices[0].Content
		return state, nil
	})

	pipeline.AddEdge("data_fetcher", "reporting")
	pipeline.AddEdge("reporting", graph.END)
	pipeline.SetEntryPoint("data_fetcher")
	return pipeline.Compile()
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
