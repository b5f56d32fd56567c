package graph

import (
	"context"
	"time"
)

// StreamEvent carries the state snapshot after one superstep. The final
// event of a successful run has NodeName END; a failed run ends with a
// single event carrying Err.
type StreamEvent[S any] struct {
	NodeName  string
	State     S
	Err       error
	Timestamp time.Time
}

// Stream executes the graph and emits an event after every superstep.
// The channel is closed when execution finishes. Interrupts surface as
// events with Err set to the *GraphInterrupt.
func (r *Runnable[S]) Stream(ctx context.Context, initialState S, config *Config) <-chan StreamEvent[S] {
	events := make(chan StreamEvent[S], 16)

	cfg := &Config{}
	if config != nil {
		clone := *config
		cfg = &clone
	}
	cfg.onStep = func(nodeName string, state any) {
		s, ok := state.(S)
		if !ok {
			return
		}
		select {
		case events <- StreamEvent[S]{NodeName: nodeName, State: s, Timestamp: time.Now()}:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(events)
		final, err := r.InvokeWithConfig(ctx, initialState, cfg)
		event := StreamEvent[S]{NodeName: END, State: final, Err: err, Timestamp: time.Now()}
		select {
		case events <- event:
		case <-ctx.Done():
		}
	}()

	return events
}
