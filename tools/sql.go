package tools

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"

	// sqlite driver for sql.Open("sqlite3", ...).
	_ "github.com/mattn/go-sqlite3"
)

// ChinookURL is the public copy of the Chinook sample database.
const ChinookURL = "https://storage.googleapis.com/benchmarks-artifacts/chinook/Chinook.db"

// EnsureChinookDB downloads the Chinook sample database to path unless it
// already exists.
func EnsureChinookDB(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ChinookURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download chinook db: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chinook download returned status: %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create db file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to write db file: %w", err)
	}
	return nil
}

// SQLDatabase wraps a database/sql handle for the SQL toolkit.
type SQLDatabase struct {
	db      *sql.DB
	dialect string
}

// NewSQLiteDatabase opens a sqlite database for the SQL toolkit.
func NewSQLiteDatabase(path string) (*SQLDatabase, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return &SQLDatabase{db: db, dialect: "sqlite"}, nil
}

// Dialect returns the SQL dialect name, used in prompts.
func (d *SQLDatabase) Dialect() string {
	return d.dialect
}

// Close closes the underlying handle.
func (d *SQLDatabase) Close() error {
	return d.db.Close()
}

// Exec runs a statement against the database, for schema setup and seeding.
func (d *SQLDatabase) Exec(ctx context.Context, stmt string, args ...any) error {
	_, err := d.db.ExecContext(ctx, stmt, args...)
	return err
}

func (d *SQLDatabase) tableNames(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListTablesTool lists every user table in the database.
type ListTablesTool struct {
	DB *SQLDatabase
}

func (t *ListTablesTool) Name() string {
	return "sql_db_list_tables"
}

func (t *ListTablesTool) Description() string {
	return "List all tables in the SQL database. Input is ignored."
}

func (t *ListTablesTool) Call(ctx context.Context, input string) (string, error) {
	names, err := t.DB.tableNames(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(names, ", "), nil
}

// TableSchemaTool returns the CREATE statements for the named tables.
type TableSchemaTool struct {
	DB *SQLDatabase
}

func (t *TableSchemaTool) Name() string {
	return "sql_db_schema"
}

func (t *TableSchemaTool) Description() string {
	return "Get the schema of specific tables. Input is a comma-separated list of table names."
}

func (t *TableSchemaTool) Call(ctx context.Context, input string) (string, error) {
	var schemas []string
	for _, raw := range strings.Split(input, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		var ddl string
		err := t.DB.db.QueryRowContext(ctx,
			"SELECT sql FROM sqlite_master WHERE type='table' AND name = ?", name).Scan(&ddl)
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("table %q not found", name)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read schema for %q: %w", name, err)
		}
		schemas = append(schemas, ddl)
	}
	if len(schemas) == 0 {
		return "", fmt.Errorf("no table names given")
	}
	return strings.Join(schemas, "\n\n"), nil
}

// QueryCheckerTool asks the model to double check a query before it runs.
type QueryCheckerTool struct {
	Model   llms.Model
	Dialect string
}

func (t *QueryCheckerTool) Name() string {
	return "sql_db_query_checker"
}

func (t *QueryCheckerTool) Description() string {
	return "Double check a SQL query for common mistakes before executing it. " +
		"Input is the SQL query. Returns the corrected query, or the original if it was fine."
}

func (t *QueryCheckerTool) Call(ctx context.Context, input string) (string, error) {
	system := fmt.Sprintf("You are a SQL expert. Double check the %s query for common mistakes: "+
		"quoting, casting, joins, NOT IN with NULLs, BETWEEN inclusivity, UNION vs UNION ALL. "+
		"If there are mistakes, rewrite the query. Otherwise reproduce the original query. "+
		"Respond with the SQL query only.", t.Dialect)

	resp, err := t.Model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	})
	if err != nil {
		return "", fmt.Errorf("query check failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return input, nil
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// RunQueryTool executes a read-only query and formats the result rows.
type RunQueryTool struct {
	DB *SQLDatabase

	// MaxRows caps the formatted output. Zero means 50.
	MaxRows int
}

func (t *RunQueryTool) Name() string {
	return "sql_db_query"
}

func (t *RunQueryTool) Description() string {
	return "Execute a read-only SQL query against the database and return the results. " +
		"Only SELECT statements are allowed. Input is the SQL query."
}

func (t *RunQueryTool) Call(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	if !isReadOnlyQuery(query) {
		return "", fmt.Errorf("only read queries are allowed: query must start with SELECT")
	}

	rows, err := t.DB.db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return formatRows(rows, t.maxRows())
}

func (t *RunQueryTool) maxRows() int {
	if t.MaxRows > 0 {
		return t.MaxRows
	}
	return 50
}

// isReadOnlyQuery accepts only plain SELECT statements, including CTEs.
func isReadOnlyQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return strings.HasPrefix(q, "select") || strings.HasPrefix(q, "with")
}

// formatRows renders a result set as header plus pipe-separated rows.
func formatRows(rows *sql.Rows, maxRows int) (string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(cols, " | "))
	sb.WriteString("\n")

	count := 0
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if count >= maxRows {
			sb.WriteString(fmt.Sprintf("... (truncated at %d rows)\n", maxRows))
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatSQLValue(v)
		}
		sb.WriteString(strings.Join(cells, " | "))
		sb.WriteString("\n")
		count++
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if count == 0 {
		return "No rows returned.", nil
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func formatSQLValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case float64:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
