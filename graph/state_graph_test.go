package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestCompile_Validation(t *testing.T) {
	t.Parallel()

	g := NewStateGraph[map[string]any]()
	_, err := g.Compile()
	assert.ErrorIs(t, err, ErrEntryPointNotSet)

	g.SetEntryPoint("missing")
	_, err = g.Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestInvoke_LinearGraph(t *testing.T) {
	t.Parallel()

	g := NewStateGraph[map[string]any]()
	g.SetSchema(NewMapSchema())

	g.AddNode("first", "sets a", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"a": 1}, nil
	})
	g.AddNode("second", "sets b", func(_ context.Context, state map[string]any) (map[string]any, error) {
		require.Equal(t, 1, state["a"])
		return map[string]any{"b": 2}, nil
	})
	g.AddEdge("first", "second")
	g.AddEdge("second", END)
	g.SetEntryPoint("first")

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 1, final["a"])
	assert.Equal(t, 2, final["b"])
}

func TestInvoke_MessagesAccumulate(t *testing.T) {
	t.Parallel()

	g := NewStateGraph[map[string]any]()
	g.SetSchema(NewMessagesSchema())

	g.AddNode("reply", "appends a reply", func(_ context.Context, state map[string]any) (map[string]any, error) {
		return map[string]any{
			"messages": llms.TextParts(llms.ChatMessageTypeAI, "hello back"),
		}, nil
	})
	g.AddEdge("reply", END)
	g.SetEntryPoint("reply")

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), map[string]any{
		"messages": []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeHuman, "hello"),
		},
	})
	require.NoError(t, err)

	messages, ok := final["messages"].([]llms.MessageContent)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, llms.ChatMessageTypeHuman, messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, messages[1].Role)
}

func TestInvoke_ConditionalEdge(t *testing.T) {
	t.Parallel()

	g := NewStateGraph[map[string]any]()
	g.SetSchema(NewMapSchema())

	g.AddNode("classify", "routes by size", func(_ context.Context, state map[string]any) (map[string]any, error) {
		return map[string]any{"n": state["n"]}, nil
	})
	g.AddNode("big", "big branch", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"branch": "big"}, nil
	})
	g.AddNode("small", "small branch", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"branch": "small"}, nil
	})
	g.AddConditionalEdge("classify", func(_ context.Context, state map[string]any) string {
		if n, _ := state["n"].(int); n > 10 {
			return "big"
		}
		return "small"
	})
	g.AddEdge("big", END)
	g.AddEdge("small", END)
	g.SetEntryPoint("classify")

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), map[string]any{"n": 42})
	require.NoError(t, err)
	assert.Equal(t, "big", final["branch"])

	final, err = runnable.Invoke(context.Background(), map[string]any{"n": 3})
	require.NoError(t, err)
	assert.Equal(t, "small", final["branch"])
}

func TestInvoke_CommandNodeRouting(t *testing.T) {
	t.Parallel()

	g := NewStateGraph[map[string]any]()
	g.SetSchema(NewMapSchema())

	g.AddCommandNode("route", "routes by command", func(_ context.Context, state map[string]any) (*Command[map[string]any], error) {
		target, _ := state["target"].(string)
		return &Command[map[string]any]{
			Update: map[string]any{"routed": true},
			Goto:   target,
		}, nil
	})
	g.AddNode("left", "left target", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"side": "left"}, nil
	})
	g.AddNode("right", "right target", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"side": "right"}, nil
	})
	// Static edge would send everything left; the command overrides it.
	g.AddEdge("route", "left")
	g.AddEdge("left", END)
	g.AddEdge("right", END)
	g.SetEntryPoint("route")

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), map[string]any{"target": "right"})
	require.NoError(t, err)
	assert.Equal(t, true, final["routed"])
	assert.Equal(t, "right", final["side"])

	final, err = runnable.Invoke(context.Background(), map[string]any{"target": END})
	require.NoError(t, err)
	assert.Nil(t, final["side"])
}

func TestInvoke_ParallelFanOut(t *testing.T) {
	t.Parallel()

	schema := NewMapSchema()
	schema.RegisterReducer("visited", AppendReducer)

	g := NewStateGraph[map[string]any]()
	g.SetSchema(schema)

	g.AddNode("start", "fans out", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{}, nil
	})
	for _, name := range []string{"alpha", "beta", "gamma"} {
		g.AddNode(name, "worker", func(name string) func(context.Context, map[string]any) (map[string]any, error) {
			return func(_ context.Context, _ map[string]any) (map[string]any, error) {
				return map[string]any{"visited": []string{name}}, nil
			}
		}(name))
		g.AddEdge("start", name)
		g.AddEdge(name, END)
	}
	g.SetEntryPoint("start")

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), map[string]any{})
	require.NoError(t, err)

	visited, ok := final["visited"].([]string)
	require.True(t, ok)
	sort.Strings(visited)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, visited)
}

func TestInvoke_RetryPolicy(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	g := NewStateGraph[map[string]any]()
	g.SetSchema(NewMapSchema())
	g.SetRetryPolicy(&RetryPolicy{
		MaxRetries:      3,
		BackoffStrategy: FixedBackoff,
		RetryableErrors: []string{"timeout"},
		BaseDelay:       time.Millisecond,
	})

	g.AddNode("flaky", "fails twice", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		if attempts.Add(1) < 3 {
			return nil, errors.New("request timeout")
		}
		return map[string]any{"done": true}, nil
	})
	g.AddEdge("flaky", END)
	g.SetEntryPoint("flaky")

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, true, final["done"])
	assert.Equal(t, int32(3), attempts.Load())
}

func TestInvoke_NonRetryableError(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	g := NewStateGraph[map[string]any]()
	g.SetSchema(NewMapSchema())
	g.SetRetryPolicy(&RetryPolicy{
		MaxRetries:      3,
		RetryableErrors: []string{"timeout"},
		BaseDelay:       time.Millisecond,
	})

	g.AddNode("broken", "always fails", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		attempts.Add(1)
		return nil, errors.New("invalid input")
	})
	g.AddEdge("broken", END)
	g.SetEntryPoint("broken")

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(context.Background(), map[string]any{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestInvoke_PanicRecovery(t *testing.T) {
	t.Parallel()

	g := NewStateGraph[map[string]any]()
	g.SetSchema(NewMapSchema())

	g.AddNode("boom", "panics", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		panic("unexpected nil")
	})
	g.AddEdge("boom", END)
	g.SetEntryPoint("boom")

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(context.Background(), map[string]any{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "panic in node boom")
}

func TestInvoke_NoOutgoingEdge(t *testing.T) {
	t.Parallel()

	g := NewStateGraph[map[string]any]()
	g.SetSchema(NewMapSchema())
	g.AddNode("loose", "has no edge", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{}, nil
	})
	g.SetEntryPoint("loose")

	runnable, err := g.Compile()
	require.NoError(t, err)

	_, err = runnable.Invoke(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, ErrNoOutgoingEdge)
}

func TestInvoke_InterruptBefore(t *testing.T) {
	t.Parallel()

	g := NewStateGraph[map[string]any]()
	g.SetSchema(NewMapSchema())

	g.AddNode("prepare", "prepares", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"prepared": true}, nil
	})
	g.AddNode("confirm", "needs approval", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return map[string]any{"confirmed": true}, nil
	})
	g.AddEdge("prepare", "confirm")
	g.AddEdge("confirm", END)
	g.SetEntryPoint("prepare")

	runnable, err := g.Compile()
	require.NoError(t, err)

	cfg := WithInterruptBefore("confirm")
	state, err := runnable.InvokeWithConfig(context.Background(), map[string]any{}, cfg)

	var gi *GraphInterrupt
	require.ErrorAs(t, err, &gi)
	assert.Equal(t, "confirm", gi.Node)
	assert.Equal(t, true, state["prepared"])
	assert.Nil(t, state["confirmed"])

	// Resume from the interrupted node.
	final, err := runnable.InvokeWithConfig(context.Background(), state, &Config{
		ResumeFrom: gi.NextNodes,
	})
	require.NoError(t, err)
	assert.Equal(t, true, final["confirmed"])
}

func TestInvoke_DynamicInterruptAndResume(t *testing.T) {
	t.Parallel()

	g := NewStateGraph[map[string]any]()
	g.SetSchema(NewMapSchema())

	g.AddNode("review", "asks for a decision", func(ctx context.Context, state map[string]any) (map[string]any, error) {
		decision, err := Interrupt(ctx, "approve this order?")
		if err != nil {
			return nil, err
		}
		return map[string]any{"decision": decision}, nil
	})
	g.AddEdge("review", END)
	g.SetEntryPoint("review")

	runnable, err := g.Compile()
	require.NoError(t, err)

	state, err := runnable.Invoke(context.Background(), map[string]any{})

	var gi *GraphInterrupt
	require.ErrorAs(t, err, &gi)
	assert.Equal(t, "review", gi.Node)
	assert.Equal(t, "approve this order?", gi.InterruptValue)

	final, err := runnable.InvokeWithConfig(context.Background(), state, &Config{
		ResumeFrom:  gi.NextNodes,
		ResumeValue: "approved",
	})
	require.NoError(t, err)
	assert.Equal(t, "approved", final["decision"])
}

func TestInvoke_ContextCancellation(t *testing.T) {
	t.Parallel()

	g := NewStateGraph[map[string]any]()
	g.SetSchema(NewMapSchema())
	g.SetRetryPolicy(&RetryPolicy{
		MaxRetries:      5,
		RetryableErrors: []string{"timeout"},
		BaseDelay:       time.Second,
	})

	g.AddNode("slow", "always times out", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return nil, errors.New("timeout")
	})
	g.AddEdge("slow", END)
	g.SetEntryPoint("slow")

	runnable, err := g.Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = runnable.Invoke(ctx, map[string]any{})
	assert.Error(t, err)
}

func TestAddNodeWithRetry(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	g := NewStateGraph[map[string]any]()
	g.SetSchema(NewMapSchema())

	g.AddNodeWithRetry("flaky", "fails once", func(_ context.Context, _ map[string]any) (map[string]any, error) {
		if attempts.Add(1) < 2 {
			return nil, errors.New("transient")
		}
		return map[string]any{"ok": true}, nil
	}, &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2.0,
	})
	g.AddEdge("flaky", END)
	g.SetEntryPoint("flaky")

	runnable, err := g.Compile()
	require.NoError(t, err)

	final, err := runnable.Invoke(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, true, final["ok"])
	assert.Equal(t, int32(2), attempts.Load())
}

func TestStream_EmitsStepsAndFinalEvent(t *testing.T) {
	t.Parallel()

	g := NewStateGraph[map[string]any]()
	g.SetSchema(NewMapSchema())

	for i, name := range []string{"one", "two"} {
		step := i + 1
		g.AddNode(name, "step", func(_ context.Context, _ map[string]any) (map[string]any, error) {
			return map[string]any{fmt.Sprintf("step%d", step): true}, nil
		})
	}
	g.AddEdge("one", "two")
	g.AddEdge("two", END)
	g.SetEntryPoint("one")

	runnable, err := g.Compile()
	require.NoError(t, err)

	var events []StreamEvent[map[string]any]
	for event := range runnable.Stream(context.Background(), map[string]any{}, nil) {
		events = append(events, event)
	}

	require.Len(t, events, 3)
	assert.Equal(t, "one", events[0].NodeName)
	assert.Equal(t, "two", events[1].NodeName)
	assert.Equal(t, END, events[2].NodeName)
	assert.NoError(t, events[2].Err)
	assert.Equal(t, true, events[2].State["step1"])
	assert.Equal(t, true, events[2].State["step2"])
}
