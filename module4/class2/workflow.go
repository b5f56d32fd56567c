// Package main runs a two-agent collaboration over the Chinook database: a
// SQL agent answers the question with database tools, then hands its
// transcript to a chart agent that renders the numbers as an ASCII bar
// chart. Either side stops the workflow by answering with FINAL ANSWER.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/Rafi99769/ai-agent-development-course/graph"
	"github.com/Rafi99769/ai-agent-development-course/log"
	"github.com/Rafi99769/ai-agent-development-course/prebuilt"
	"github.com/Rafi99769/ai-agent-development-course/tools"
)

const topK = 5

const finalAnswerMarker = "FINAL ANSWER"

func makeSystemPrompt(suffix string) string {
	return "You are a helpful AI assistant, collaborating with another assistant." +
		" Use the provided tools to progress towards answering the user's question." +
		" If you are unable to fully answer, that's OK; your colleague will continue." +
		" If you or your colleague have the final answer or deliverable, prefix your response with FINAL ANSWER." +
		"\n" + suffix
}

func generateQueryPrompt(dialect string) string {
	return fmt.Sprintf("You are an agent designed to interact with a SQL database.\n"+
		"Given the user's question, create a syntactically correct %s query to run, "+
		"then look at the results of the query and return the answer. Unless the user "+
		"specifies a number of examples, limit results to at most %d.\n"+
		"Do NOT perform any DML operations (INSERT/UPDATE/DELETE/DROP).\n"+
		"Always produce a single tool_call named 'sql_db_query' when you generate a query.",
		dialect, topK)
}

// singleInputTool describes a tool that takes one string parameter, matching
// the calling convention the agents use.
func singleInputTool(name, description, param string) llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					param: map[string]any{"type": "string"},
				},
				"required":             []string{param},
				"additionalProperties": false,
			},
		},
	}
}

func toolCallArgument(msg llms.MessageContent, toolName, param string) (string, bool) {
	for _, part := range msg.Parts {
		tc, ok := part.(llms.ToolCall)
		if !ok || tc.FunctionCall == nil || tc.FunctionCall.Name != toolName {
			continue
		}
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err != nil {
			return "", false
		}
		value, ok := args[param].(string)
		return value, ok
	}
	return "", false
}

func sharedMessage(agentName, content string) llms.MessageContent {
	return llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf("[%s] %s", agentName, content))
}

// sqlAgent runs one list-schema-generate-check-run cycle against the
// database and shares its transcript with the chart agent.
type sqlAgent struct {
	model   llms.Model
	db      *tools.SQLDatabase
	list    *tools.ListTablesTool
	schema  *tools.TableSchemaTool
	checker *tools.QueryCheckerTool
	runner  *tools.RunQueryTool
}

func newSQLAgent(model llms.Model, db *tools.SQLDatabase) *sqlAgent {
	return &sqlAgent{
		model:   model,
		db:      db,
		list:    &tools.ListTablesTool{DB: db},
		schema:  &tools.TableSchemaTool{DB: db},
		checker: &tools.QueryCheckerTool{Model: model, Dialect: db.Dialect()},
		runner:  &tools.RunQueryTool{DB: db},
	}
}

func (a *sqlAgent) run(ctx context.Context, state map[string]any) (*graph.Command[map[string]any], error) {
	incoming, _ := state["messages"].([]llms.MessageContent)
	var shared []llms.MessageContent

	// 1) list tables
	tables, err := a.list.Call(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	shared = append(shared, sharedMessage("sql_agent", "Available tables: "+tables))

	// 2) let the model pick which tables to inspect
	schemaDef := singleInputTool(a.schema.Name(), a.schema.Description(), "input")
	resp, err := a.model.GenerateContent(ctx, append(incoming, shared...), llms.WithTools([]llms.Tool{schemaDef}))
	if err != nil {
		return nil, fmt.Errorf("schema selection: %w", err)
	}
	if tablesArg, ok := toolCallArgument(choiceMessage(resp), a.schema.Name(), "input"); ok {
		schemaText, err := a.schema.Call(ctx, tablesArg)
		if err != nil {
			return nil, fmt.Errorf("fetching schema: %w", err)
		}
		shared = append(shared, sharedMessage("sql_agent", "Schema:\n"+schemaText))
	}

	// 3) generate the query
	queryDef := singleInputTool(a.runner.Name(), a.runner.Description(), "input")
	prompt := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeSystem, generateQueryPrompt(a.db.Dialect()))}
	prompt = append(prompt, incoming...)
	prompt = append(prompt, shared...)
	resp, err = a.model.GenerateContent(ctx, prompt, llms.WithTools([]llms.Tool{queryDef}))
	if err != nil {
		return nil, fmt.Errorf("query generation: %w", err)
	}

	query, hasQuery := toolCallArgument(choiceMessage(resp), a.runner.Name(), "input")
	if !hasQuery {
		shared = append(shared, sharedMessage("sql_agent", "No query to execute."))
	} else {
		// 4) double-check, then 5) run
		checked, err := a.checker.Call(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("query check: %w", err)
		}
		checked = strings.TrimSpace(checked)
		if checked != query {
			log.Info("query checker rewrote the query")
			shared = append(shared, sharedMessage("sql_agent", "Rewrote query to: "+checked))
			query = checked
		}

		results, err := a.runner.Call(ctx, query)
		if err != nil {
			results = fmt.Sprintf("Error: %v", err)
		}
		shared = append(shared, sharedMessage("sql_agent", "Query results: "+results))
	}

	next := "chart_generator"
	for _, msg := range shared {
		if strings.Contains(messageText(msg), finalAnswerMarker) {
			next = graph.END
			break
		}
	}

	return &graph.Command[map[string]any]{
		Update: map[string]any{"messages": shared},
		Goto:   next,
	}, nil
}

func choiceMessage(resp *llms.ContentResponse) llms.MessageContent {
	msg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
	if len(resp.Choices) == 0 {
		return msg
	}
	choice := resp.Choices[0]
	if choice.Content != "" {
		msg.Parts = append(msg.Parts, llms.TextPart(choice.Content))
	}
	for _, tc := range choice.ToolCalls {
		msg.Parts = append(msg.Parts, tc)
	}
	return msg
}

func messageText(msg llms.MessageContent) string {
	var sb strings.Builder
	for _, part := range msg.Parts {
		if text, ok := part.(llms.TextContent); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String()
}

// buildWorkflow wires the SQL agent and the chart agent into one graph.
func buildWorkflow(model llms.Model, db *tools.SQLDatabase) (*graph.Runnable[map[string]any], error) {
	chartAgent, err := prebuilt.CreateReactAgent(model, []lctools.Tool{&tools.BarChartTool{}}, 0)
	if err != nil {
		return nil, err
	}

	agent := newSQLAgent(model, db)

	workflow := graph.NewStateGraph[map[string]any]()
	workflow.SetSchema(graph.NewMessagesSchema())

	workflow.AddCommandNode("sql_agent", "answers the question with database tools", agent.run)

	workflow.AddCommandNode("chart_generator", "renders results as a bar chart", func(ctx context.Context, state map[string]any) (*graph.Command[map[string]any], error) {
		incoming, _ := state["messages"].([]llms.MessageContent)
		prompt := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeSystem, makeSystemPrompt(
			"You can only generate charts, using the bar_chart tool. "+
				"You are working with a SQL colleague. ALWAYS respond with FINAL ANSWER."))}
		prompt = append(prompt, incoming...)

		result, err := chartAgent.Invoke(ctx, map[string]any{"messages": prompt})
		if err != nil {
			return nil, fmt.Errorf("chart agent failed: %w", err)
		}

		messages, _ := result["messages"].([]llms.MessageContent)
		answer := lastAIText(messages)

		next := "sql_agent"
		if strings.Contains(answer, finalAnswerMarker) {
			next = graph.END
		}
		return &graph.Command[map[string]any]{
			Update: map[string]any{"messages": []llms.MessageContent{sharedMessage("chart_generator", answer)}},
			Goto:   next,
		}, nil
	})

	workflow.SetEntryPoint("sql_agent")
	return workflow.Compile()
}

func lastAIText(messages []llms.MessageContent) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != llms.ChatMessageTypeAI {
			continue
		}
		if text := messageText(messages[i]); text != "" {
			return text
		}
	}
	return ""
}
