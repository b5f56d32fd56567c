package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func todoFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "todos.json")
}

func TestCreateTodo_AssignsIncrementingIDs(t *testing.T) {
	t.Parallel()

	path := todoFile(t)
	create := NewCreateTodoTool(path)

	out, err := create.Call(context.Background(), "buy milk")
	require.NoError(t, err)
	assert.Equal(t, "Todo item created with ID: 1", out)

	out, err = create.Call(context.Background(), "walk the dog")
	require.NoError(t, err)
	assert.Equal(t, "Todo item created with ID: 2", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var todos []TodoItem
	require.NoError(t, json.Unmarshal(data, &todos))
	require.Len(t, todos, 2)
	assert.Equal(t, TodoItem{ID: 1, Item: "buy milk", Status: "pending"}, todos[0])
	assert.Equal(t, TodoItem{ID: 2, Item: "walk the dog", Status: "pending"}, todos[1])
}

func TestCreateTodo_RejectsEmptyInput(t *testing.T) {
	t.Parallel()

	create := NewCreateTodoTool(todoFile(t))
	_, err := create.Call(context.Background(), "   ")
	assert.Error(t, err)
}

func TestReadTodos_EmptyFileIsEmptyList(t *testing.T) {
	t.Parallel()

	read := NewReadTodosTool(todoFile(t))
	out, err := read.Call(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestReadTodos_DumpsJSON(t *testing.T) {
	t.Parallel()

	path := todoFile(t)
	create := NewCreateTodoTool(path)
	_, err := create.Call(context.Background(), "buy milk")
	require.NoError(t, err)

	read := NewReadTodosTool(path)
	out, err := read.Call(context.Background(), "")
	require.NoError(t, err)

	var todos []TodoItem
	require.NoError(t, json.Unmarshal([]byte(out), &todos))
	require.Len(t, todos, 1)
	assert.Equal(t, "buy milk", todos[0].Item)
	assert.Equal(t, "pending", todos[0].Status)
}

func TestUpdateTodo_ChangesStatus(t *testing.T) {
	t.Parallel()

	path := todoFile(t)
	create := NewCreateTodoTool(path)
	_, err := create.Call(context.Background(), "buy milk")
	require.NoError(t, err)
	_, err = create.Call(context.Background(), "walk the dog")
	require.NoError(t, err)

	update := NewUpdateTodoTool(path)
	out, err := update.Call(context.Background(), "2 completed")
	require.NoError(t, err)
	assert.Equal(t, "Todo item with ID 2 updated to status: completed", out)

	todos, err := loadTodos(path)
	require.NoError(t, err)
	assert.Equal(t, "pending", todos[0].Status)
	assert.Equal(t, "completed", todos[1].Status)
}

func TestUpdateTodo_Validation(t *testing.T) {
	t.Parallel()

	path := todoFile(t)
	create := NewCreateTodoTool(path)
	_, err := create.Call(context.Background(), "buy milk")
	require.NoError(t, err)

	update := NewUpdateTodoTool(path)

	_, err = update.Call(context.Background(), "1 cancelled")
	assert.ErrorContains(t, err, "invalid status")

	_, err = update.Call(context.Background(), "nope working")
	assert.ErrorContains(t, err, "invalid todo id")

	_, err = update.Call(context.Background(), "99 working")
	assert.ErrorContains(t, err, "not found")

	_, err = update.Call(context.Background(), "completed")
	assert.ErrorContains(t, err, "expected input")
}
