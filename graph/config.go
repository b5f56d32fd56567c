package graph

import (
	"github.com/Rafi99769/ai-agent-development-course/store"
)

// Config carries per-invocation options: the thread identity used for
// checkpointing, interrupt points and resume data.
type Config struct {
	// Configurable holds free-form invocation settings. The "thread_id"
	// key scopes checkpoints to a conversation.
	Configurable map[string]any

	// InterruptBefore pauses execution before any of the named nodes run.
	InterruptBefore []string

	// InterruptAfter pauses execution after any of the named nodes ran.
	InterruptAfter []string

	// ResumeFrom overrides the entry point, continuing from the named nodes.
	ResumeFrom []string

	// ResumeValue is handed to Interrupt() inside the resumed node.
	ResumeValue any

	// Checkpointer, when set together with a thread_id, persists the state
	// after every step and auto-resumes from the latest checkpoint.
	Checkpointer store.CheckpointStore

	// onStep is an internal hook used by Stream to observe supersteps.
	onStep func(nodeName string, state any)
}

// ThreadID returns the thread_id from Configurable, or "".
func (c *Config) ThreadID() string {
	if c == nil || c.Configurable == nil {
		return ""
	}
	id, _ := c.Configurable["thread_id"].(string)
	return id
}

// WithThreadID creates a Config with the given thread_id set.
func WithThreadID(threadID string) *Config {
	return &Config{
		Configurable: map[string]any{"thread_id": threadID},
	}
}

// WithInterruptBefore creates a Config that pauses before the given nodes.
func WithInterruptBefore(nodes ...string) *Config {
	return &Config{InterruptBefore: nodes}
}

// WithInterruptAfter creates a Config that pauses after the given nodes.
func WithInterruptAfter(nodes ...string) *Config {
	return &Config{InterruptAfter: nodes}
}
