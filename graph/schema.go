package graph

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/tmc/langchaingo/llms"
)

// Reducer defines how a state value under a single key should be updated.
// It takes the current value and the new value, and returns the merged value.
type Reducer func(current, new any) (any, error)

// Schema defines the initial value and update logic for the graph state.
type Schema[S any] interface {
	// Init returns the initial state.
	Init() S

	// Update merges the new state into the current state.
	Update(current, new S) (S, error)
}

// MapSchema implements Schema for map[string]any states. Keys with a
// registered reducer are merged; all other keys are overwritten.
type MapSchema struct {
	Reducers map[string]Reducer
}

// NewMapSchema creates a new MapSchema with no reducers registered.
func NewMapSchema() *MapSchema {
	return &MapSchema{Reducers: make(map[string]Reducer)}
}

// RegisterReducer adds a reducer for a specific key.
func (s *MapSchema) RegisterReducer(key string, reducer Reducer) {
	s.Reducers[key] = reducer
}

// Init returns an empty map.
func (s *MapSchema) Init() map[string]any {
	return make(map[string]any)
}

// Update merges the new map into the current map using registered reducers.
func (s *MapSchema) Update(current, new map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(current))
	maps.Copy(result, current)

	for k, v := range new {
		reducer, ok := s.Reducers[k]
		if !ok {
			result[k] = v
			continue
		}
		merged, err := reducer(result[k], v)
		if err != nil {
			return nil, fmt.Errorf("failed to reduce key %s: %w", k, err)
		}
		result[k] = merged
	}

	return result, nil
}

// NewMessagesSchema returns a MapSchema that accumulates the "messages" key
// with AddMessages. This is the schema used by chat-style agents whose state
// is a map with a message history.
func NewMessagesSchema() *MapSchema {
	s := NewMapSchema()
	s.RegisterReducer("messages", AddMessages)
	return s
}

// OverwriteReducer replaces the old value with the new one.
func OverwriteReducer(current, new any) (any, error) {
	return new, nil
}

// AppendReducer appends new []string (or a single string) entries to the
// current []string value.
func AppendReducer(current, new any) (any, error) {
	var out []string
	switch c := current.(type) {
	case nil:
	case []string:
		out = append(out, c...)
	default:
		return nil, fmt.Errorf("current value is %T, not []string", current)
	}

	switch n := new.(type) {
	case nil:
	case string:
		out = append(out, n)
	case []string:
		out = append(out, n...)
	default:
		return nil, fmt.Errorf("new value is %T, not string or []string", new)
	}

	return out, nil
}

// AddMessages accumulates llms.MessageContent values. It accepts either a
// single message or a slice on both sides.
func AddMessages(current, new any) (any, error) {
	out, err := asMessages(current)
	if err != nil {
		return nil, fmt.Errorf("current messages: %w", err)
	}
	added, err := asMessages(new)
	if err != nil {
		return nil, fmt.Errorf("new messages: %w", err)
	}
	return append(out, added...), nil
}

func asMessages(v any) ([]llms.MessageContent, error) {
	switch m := v.(type) {
	case nil:
		return nil, nil
	case llms.MessageContent:
		return []llms.MessageContent{m}, nil
	case []llms.MessageContent:
		return append([]llms.MessageContent(nil), m...), nil
	case []any:
		// State loaded from a persistent checkpoint backend arrives as
		// generic JSON values. Re-encode and let llms.MessageContent's
		// UnmarshalJSON recover the typed messages.
		return messagesFromJSON(m)
	case map[string]any:
		return messagesFromJSON([]any{m})
	default:
		return nil, fmt.Errorf("unsupported message value of type %T", v)
	}
}

func messagesFromJSON(v []any) ([]llms.MessageContent, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("re-encode messages: %w", err)
	}
	var out []llms.MessageContent
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return out, nil
}
