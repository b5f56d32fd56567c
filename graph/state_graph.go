package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rafi99769/ai-agent-development-course/log"
	"github.com/Rafi99769/ai-agent-development-course/store"
)

// Command is returned by a command node to update the state and pick the
// next node dynamically, overriding static and conditional edges.
type Command[S any] struct {
	// Update is merged into the state through the graph schema.
	Update S

	// Goto names the next node, or END to finish.
	Goto string
}

type nodeResult[S any] struct {
	update S
	goto_  string
}

type node[S any] struct {
	name        string
	description string
	run         func(ctx context.Context, state S) (nodeResult[S], error)
}

// StateGraph represents a state-based graph with a typed state S.
//
// Example:
//
//	g := graph.NewStateGraph[map[string]any]()
//	g.SetSchema(graph.NewMessagesSchema())
//	g.AddNode("agent", "decide", agentFn)
//	g.AddEdge("agent", graph.END)
//	g.SetEntryPoint("agent")
//	runnable, err := g.Compile()
type StateGraph[S any] struct {
	nodes            map[string]node[S]
	edges            []Edge
	conditionalEdges map[string]func(ctx context.Context, state S) string
	entryPoint       string
	retryPolicy      *RetryPolicy
	schema           Schema[S]
}

// NewStateGraph creates a new, empty StateGraph.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]node[S]),
		conditionalEdges: make(map[string]func(ctx context.Context, state S) string),
	}
}

// AddNode adds a node whose function returns a state update.
func (g *StateGraph[S]) AddNode(name, description string, fn func(ctx context.Context, state S) (S, error)) {
	g.nodes[name] = node[S]{
		name:        name,
		description: description,
		run: func(ctx context.Context, state S) (nodeResult[S], error) {
			update, err := fn(ctx, state)
			return nodeResult[S]{update: update}, err
		},
	}
}

// AddCommandNode adds a node whose function returns a Command, carrying both
// a state update and the name of the next node to execute.
func (g *StateGraph[S]) AddCommandNode(name, description string, fn func(ctx context.Context, state S) (*Command[S], error)) {
	g.nodes[name] = node[S]{
		name:        name,
		description: description,
		run: func(ctx context.Context, state S) (nodeResult[S], error) {
			cmd, err := fn(ctx, state)
			if err != nil {
				return nodeResult[S]{}, err
			}
			if cmd == nil {
				return nodeResult[S]{}, fmt.Errorf("command node %s returned nil command", name)
			}
			return nodeResult[S]{update: cmd.Update, goto_: cmd.Goto}, nil
		},
	}
}

// AddNodeWithRetry adds a node wrapped with its own retry configuration,
// independent of the graph-level policy.
func (g *StateGraph[S]) AddNodeWithRetry(name, description string, fn func(ctx context.Context, state S) (S, error), config *RetryConfig) {
	if config == nil {
		config = DefaultRetryConfig()
	}
	g.AddNode(name, description, retryWrap(name, fn, config))
}

// AddEdge adds a static edge between the "from" and "to" nodes.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// AddConditionalEdge adds an edge whose target node is determined at runtime.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the entry point node name.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetRetryPolicy sets the graph-level retry policy applied to every node.
func (g *StateGraph[S]) SetRetryPolicy(policy *RetryPolicy) {
	g.retryPolicy = policy
}

// SetSchema sets the state schema used to merge node updates.
func (g *StateGraph[S]) SetSchema(schema Schema[S]) {
	g.schema = schema
}

// Runnable is a compiled state graph ready to be invoked.
type Runnable[S any] struct {
	graph *StateGraph[S]
}

// Compile validates the graph and returns a Runnable.
func (g *StateGraph[S]) Compile() (*Runnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, g.entryPoint)
	}
	return &Runnable[S]{graph: g}, nil
}

// Invoke executes the graph with the given input state.
func (r *Runnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	return r.InvokeWithConfig(ctx, initialState, nil)
}

// InvokeWithConfig executes the graph with per-invocation config.
//
// When config carries a Checkpointer and a thread_id, the state is saved
// after every superstep and the invocation resumes from the latest
// checkpoint for that thread: a completed thread restarts at the entry
// point with the merged state, an interrupted one continues at the node
// recorded in the checkpoint.
func (r *Runnable[S]) InvokeWithConfig(ctx context.Context, initialState S, config *Config) (S, error) {
	var zero S
	state := initialState
	current := []string{r.graph.entryPoint}

	threadID := config.ThreadID()
	var checkpointer store.CheckpointStore
	version := 0
	if config != nil {
		checkpointer = config.Checkpointer
		if config.ResumeValue != nil {
			ctx = WithResumeValue(ctx, config.ResumeValue)
		}
		if len(config.ResumeFrom) > 0 {
			current = config.ResumeFrom
		}
	}

	if checkpointer != nil && threadID != "" && (config == nil || len(config.ResumeFrom) == 0) {
		if latest, err := checkpointer.Latest(ctx, threadID); err == nil && latest != nil {
			version = latest.Version
			if prev, ok := decodeState[S](latest.State); ok {
				if r.graph.schema != nil {
					merged, err := r.graph.schema.Update(prev, state)
					if err != nil {
						log.Warn("thread %s: dropping checkpointed state, merge failed: %v", threadID, err)
					} else {
						state = merged
					}
				}
				if latest.NodeName != "" && latest.NodeName != END {
					// Mid-run resume. Without a schema the stored state is
					// the source of truth.
					if r.graph.schema == nil {
						state = prev
					}
					current = []string{latest.NodeName}
				}
			}
		}
	}

	for len(current) > 0 {
		active := make([]string, 0, len(current))
		for _, n := range current {
			if n != END {
				active = append(active, n)
			}
		}
		if len(active) == 0 {
			break
		}

		if config != nil {
			for _, n := range active {
				if slices.Contains(config.InterruptBefore, n) {
					return state, &GraphInterrupt{Node: n, State: state, NextNodes: active}
				}
			}
		}

		results, errs := r.executeParallel(ctx, active, state)
		for _, err := range errs {
			if err == nil {
				continue
			}
			var interrupt *NodeInterrupt
			if errors.As(err, &interrupt) {
				// Persist the paused position so the thread can resume here.
				if checkpointer != nil && threadID != "" {
					version++
					_ = r.saveCheckpoint(ctx, checkpointer, threadID, interrupt.Node, state, version)
				}
				return state, &GraphInterrupt{
					Node:           interrupt.Node,
					State:          state,
					NextNodes:      []string{interrupt.Node},
					InterruptValue: interrupt.Value,
				}
			}
			return zero, err
		}

		var gotos []string
		for _, res := range results {
			if r.graph.schema != nil {
				merged, err := r.graph.schema.Update(state, res.update)
				if err != nil {
					return zero, fmt.Errorf("schema update failed: %w", err)
				}
				state = merged
			} else {
				state = res.update
			}
			if res.goto_ != "" {
				gotos = append(gotos, res.goto_)
			}
		}

		next, err := r.determineNext(ctx, active, state, gotos)
		if err != nil {
			return zero, err
		}

		ran := active
		current = next

		if checkpointer != nil && threadID != "" {
			version++
			_ = r.saveCheckpoint(ctx, checkpointer, threadID, checkpointNodeName(next), state, version)
		}

		if config != nil && config.onStep != nil {
			config.onStep(strings.Join(ran, "+"), state)
		}

		if config != nil {
			for _, n := range ran {
				if slices.Contains(config.InterruptAfter, n) {
					return state, &GraphInterrupt{Node: n, State: state, NextNodes: next}
				}
			}
		}
	}

	return state, nil
}

// executeParallel runs the active nodes of a superstep concurrently.
func (r *Runnable[S]) executeParallel(ctx context.Context, nodes []string, state S) ([]nodeResult[S], []error) {
	var wg sync.WaitGroup
	results := make([]nodeResult[S], len(nodes))
	errs := make([]error, len(nodes))

	for i, name := range nodes {
		n, ok := r.graph.nodes[name]
		if !ok {
			errs[i] = fmt.Errorf("%w: %s", ErrNodeNotFound, name)
			continue
		}

		wg.Add(1)
		go func(idx int, n node[S]) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					errs[idx] = fmt.Errorf("panic in node %s: %v", n.name, p)
				}
			}()

			res, err := r.executeWithRetry(ctx, n, state)
			if err != nil {
				var interrupt *NodeInterrupt
				if errors.As(err, &interrupt) {
					interrupt.Node = n.name
					errs[idx] = err
					return
				}
				errs[idx] = fmt.Errorf("error in node %s: %w", n.name, err)
				return
			}
			results[idx] = res
		}(i, n)
	}
	wg.Wait()
	return results, errs
}

// executeWithRetry applies the graph-level retry policy to a node run.
func (r *Runnable[S]) executeWithRetry(ctx context.Context, n node[S], state S) (nodeResult[S], error) {
	policy := r.graph.retryPolicy
	attempts := 1
	if policy != nil {
		attempts = policy.MaxRetries + 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		res, err := n.run(ctx, state)
		if err == nil {
			return res, nil
		}
		lastErr = err

		var interrupt *NodeInterrupt
		if errors.As(err, &interrupt) {
			break
		}
		if policy == nil || attempt == attempts-1 || !policy.retryable(err) {
			break
		}

		select {
		case <-time.After(policy.backoffDelay(attempt)):
		case <-ctx.Done():
			return nodeResult[S]{}, ctx.Err()
		}
	}
	return nodeResult[S]{}, lastErr
}

// determineNext resolves the next superstep: Command gotos override
// conditional edges, which override static edges. Static edges fan out.
func (r *Runnable[S]) determineNext(ctx context.Context, ran []string, state S, gotos []string) ([]string, error) {
	if len(gotos) > 0 {
		seen := make(map[string]bool)
		var next []string
		for _, n := range gotos {
			if n != END && !seen[n] {
				seen[n] = true
				next = append(next, n)
			}
		}
		return next, nil
	}

	set := make(map[string]bool)
	var next []string
	for _, name := range ran {
		if condition, ok := r.graph.conditionalEdges[name]; ok {
			target := condition(ctx, state)
			if target == "" {
				return nil, fmt.Errorf("conditional edge returned empty next node from %s", name)
			}
			if !set[target] {
				set[target] = true
				next = append(next, target)
			}
			continue
		}

		found := false
		for _, edge := range r.graph.edges {
			if edge.From == name {
				found = true
				if !set[edge.To] {
					set[edge.To] = true
					next = append(next, edge.To)
				}
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
		}
	}
	return next, nil
}

func (r *Runnable[S]) saveCheckpoint(ctx context.Context, cs store.CheckpointStore, threadID, nodeName string, state S, version int) error {
	return cs.Save(ctx, &store.Checkpoint{
		ID:        "checkpoint_" + uuid.New().String(),
		ThreadID:  threadID,
		NodeName:  nodeName,
		State:     state,
		Timestamp: time.Now(),
		Version:   version,
	})
}

// checkpointNodeName records where execution continues: the next node for a
// mid-run checkpoint, END for a completed one.
func checkpointNodeName(next []string) string {
	for _, n := range next {
		if n != END {
			return n
		}
	}
	return END
}

// decodeState recovers a typed state from a stored checkpoint value,
// falling back to a JSON round-trip for states deserialized by a backend.
func decodeState[S any](v any) (S, bool) {
	if s, ok := v.(S); ok {
		return s, true
	}
	var out S
	data, err := json.Marshal(v)
	if err != nil {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, false
	}
	return out, true
}
