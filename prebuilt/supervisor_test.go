package prebuilt

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/Rafi99769/ai-agent-development-course/graph"
)

func routeResponse(next string) llms.ContentResponse {
	return llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:   "route-" + next,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      "route",
					Arguments: fmt.Sprintf(`{"next": %q}`, next),
				},
			}},
		}},
	}
}

// echoMember builds a member agent that appends one AI message.
func echoMember(t *testing.T, name string) *graph.Runnable[map[string]any] {
	t.Helper()

	g := graph.NewStateGraph[map[string]any]()
	g.SetSchema(graph.NewMessagesSchema())
	g.AddNode("work", "does the work", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{
			"messages": llms.TextParts(llms.ChatMessageTypeAI, name+" finished its task"),
		}, nil
	})
	g.AddEdge("work", graph.END)
	g.SetEntryPoint("work")

	runnable, err := g.Compile()
	require.NoError(t, err)
	return runnable
}

func TestCreateSupervisor_RoutesThenFinishes(t *testing.T) {
	t.Parallel()

	model := &MockLLM{responses: []llms.ContentResponse{
		routeResponse("researcher"),
		routeResponse("writer"),
		routeResponse("FINISH"),
	}}

	supervisor, err := CreateSupervisor(model, map[string]*graph.Runnable[map[string]any]{
		"researcher": echoMember(t, "researcher"),
		"writer":     echoMember(t, "writer"),
	}, SupervisorOptions{})
	require.NoError(t, err)

	final, err := supervisor.Invoke(context.Background(), map[string]any{
		"messages": []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, "research then write"),
		},
	})
	require.NoError(t, err)

	messages := final["messages"].([]llms.MessageContent)
	require.Len(t, messages, 3)

	first, _ := messages[1].Parts[0].(llms.TextContent)
	second, _ := messages[2].Parts[0].(llms.TextContent)
	assert.Contains(t, first.Text, "researcher finished")
	assert.Contains(t, second.Text, "writer finished")
}

func TestCreateSupervisor_MaxStepsForcesFinish(t *testing.T) {
	t.Parallel()

	// The model always delegates; the step bound must stop the loop.
	responses := make([]llms.ContentResponse, 20)
	for i := range responses {
		responses[i] = routeResponse("worker")
	}
	model := &MockLLM{responses: responses}

	supervisor, err := CreateSupervisor(model, map[string]*graph.Runnable[map[string]any]{
		"worker": echoMember(t, "worker"),
	}, SupervisorOptions{MaxSteps: 5})
	require.NoError(t, err)

	final, err := supervisor.Invoke(context.Background(), map[string]any{
		"messages": []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, "never stop"),
		},
	})
	require.NoError(t, err)

	steps, _ := final["step_count"].(int)
	assert.LessOrEqual(t, steps, 5)
}

func TestCreateSupervisor_UnknownMemberEndsRun(t *testing.T) {
	t.Parallel()

	model := &MockLLM{responses: []llms.ContentResponse{
		routeResponse("ghost"),
	}}

	supervisor, err := CreateSupervisor(model, map[string]*graph.Runnable[map[string]any]{
		"worker": echoMember(t, "worker"),
	}, SupervisorOptions{})
	require.NoError(t, err)

	final, err := supervisor.Invoke(context.Background(), map[string]any{
		"messages": []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, "hello"),
		},
	})
	require.NoError(t, err)

	messages := final["messages"].([]llms.MessageContent)
	assert.Len(t, messages, 1)
}

func TestCreateSupervisor_RequiresMembers(t *testing.T) {
	t.Parallel()

	_, err := CreateSupervisor(&MockLLM{}, nil, SupervisorOptions{})
	assert.Error(t, err)
}
