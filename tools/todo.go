package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TodoItem is a single to-do entry persisted in the JSON file.
type TodoItem struct {
	ID     int    `json:"id"`
	Item   string `json:"item"`
	Status string `json:"status"`
}

// To-do item statuses.
const (
	TodoStatusPending   = "pending"
	TodoStatusWorking   = "working"
	TodoStatusCompleted = "completed"
)

// DefaultTodoFile is the to-do file used when no path is given.
const DefaultTodoFile = "todos.json"

// loadTodos reads the to-do file. A missing file is an empty list.
func loadTodos(path string) ([]TodoItem, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []TodoItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read todo file: %w", err)
	}
	var todos []TodoItem
	if err := json.Unmarshal(data, &todos); err != nil {
		return nil, fmt.Errorf("failed to parse todo file: %w", err)
	}
	return todos, nil
}

// saveTodos overwrites the whole to-do file. There is no locking; concurrent
// writers can race and the last write wins.
func saveTodos(path string, todos []TodoItem) error {
	data, err := json.Marshal(todos)
	if err != nil {
		return fmt.Errorf("failed to marshal todos: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write todo file: %w", err)
	}
	return nil
}

// CreateTodoTool inserts a new to-do item with status "pending".
type CreateTodoTool struct {
	Path string
}

// NewCreateTodoTool creates a CreateTodoTool. An empty path uses
// DefaultTodoFile.
func NewCreateTodoTool(path string) *CreateTodoTool {
	if path == "" {
		path = DefaultTodoFile
	}
	return &CreateTodoTool{Path: path}
}

func (t *CreateTodoTool) Name() string {
	return "create_todo"
}

func (t *CreateTodoTool) Description() string {
	return "Insert a new todo item. Status of the new item will be `pending` by default. " +
		"Input is the text of the todo item."
}

func (t *CreateTodoTool) Call(ctx context.Context, input string) (string, error) {
	item := strings.TrimSpace(input)
	if item == "" {
		return "", fmt.Errorf("todo item text is empty")
	}

	todos, err := loadTodos(t.Path)
	if err != nil {
		return "", err
	}

	newID := 1
	if len(todos) > 0 {
		newID = todos[len(todos)-1].ID + 1
	}
	todos = append(todos, TodoItem{ID: newID, Item: item, Status: TodoStatusPending})

	if err := saveTodos(t.Path, todos); err != nil {
		return "", err
	}
	return fmt.Sprintf("Todo item created with ID: %d", newID), nil
}

// ReadTodosTool returns every to-do item as indented JSON.
type ReadTodosTool struct {
	Path string
}

// NewReadTodosTool creates a ReadTodosTool. An empty path uses
// DefaultTodoFile.
func NewReadTodosTool(path string) *ReadTodosTool {
	if path == "" {
		path = DefaultTodoFile
	}
	return &ReadTodosTool{Path: path}
}

func (t *ReadTodosTool) Name() string {
	return "read_todos"
}

func (t *ReadTodosTool) Description() string {
	return "Read all todo items. Input is ignored."
}

func (t *ReadTodosTool) Call(ctx context.Context, input string) (string, error) {
	todos, err := loadTodos(t.Path)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(todos, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal todos: %w", err)
	}
	return string(data), nil
}

// UpdateTodoTool changes the status of an existing to-do item.
type UpdateTodoTool struct {
	Path string
}

// NewUpdateTodoTool creates an UpdateTodoTool. An empty path uses
// DefaultTodoFile.
func NewUpdateTodoTool(path string) *UpdateTodoTool {
	if path == "" {
		path = DefaultTodoFile
	}
	return &UpdateTodoTool{Path: path}
}

func (t *UpdateTodoTool) Name() string {
	return "update_todo"
}

func (t *UpdateTodoTool) Description() string {
	return "Update the status of a todo item. Status can be `working` or `completed`. " +
		"Input format: `<id> <status>`, for example `2 completed`."
}

func (t *UpdateTodoTool) Call(ctx context.Context, input string) (string, error) {
	fields := strings.Fields(input)
	if len(fields) != 2 {
		return "", fmt.Errorf("expected input `<id> <status>`, got %q", input)
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return "", fmt.Errorf("invalid todo id %q: %w", fields[0], err)
	}
	status := strings.ToLower(fields[1])
	if status != TodoStatusWorking && status != TodoStatusCompleted {
		return "", fmt.Errorf("invalid status %q: must be `working` or `completed`", fields[1])
	}

	todos, err := loadTodos(t.Path)
	if err != nil {
		return "", err
	}

	found := false
	for i := range todos {
		if todos[i].ID == id {
			todos[i].Status = status
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("todo item with ID %d not found", id)
	}

	if err := saveTodos(t.Path, todos); err != nil {
		return "", err
	}
	return fmt.Sprintf("Todo item with ID %d updated to status: %s", id, status), nil
}
