package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// PgQuerier is the subset of pgxpool.Pool the query tool needs. pgxmock
// satisfies it in tests.
type PgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresQueryTool executes read-only queries against a Postgres database.
// Anything that does not start with SELECT is rejected.
type PostgresQueryTool struct {
	Pool PgQuerier
}

// NewPostgresQueryTool creates a PostgresQueryTool over a pgx pool.
func NewPostgresQueryTool(pool PgQuerier) *PostgresQueryTool {
	return &PostgresQueryTool{Pool: pool}
}

func (t *PostgresQueryTool) Name() string {
	return "sql_query"
}

func (t *PostgresQueryTool) Description() string {
	return "A tool for executing read SQL queries against the research database. " +
		"Only read queries are allowed. Input is a SQL SELECT statement."
}

func (t *PostgresQueryTool) Call(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	if !strings.HasPrefix(strings.ToLower(query), "select") {
		return "Only read queries are allowed. Queries must start with SELECT keyword.", nil
	}

	rows, err := t.Pool.Query(ctx, query)
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols := make([]string, 0, len(rows.FieldDescriptions()))
	for _, fd := range rows.FieldDescriptions() {
		cols = append(cols, fd.Name)
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(cols, " | "))
	sb.WriteString("\n")

	count := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return "", fmt.Errorf("failed to read row: %w", err)
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
		return "", fmt.Errorf("query failed: %w", err)
	}
	if count == 0 {
		return "No rows returned.", nil
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
