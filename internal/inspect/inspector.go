// Package inspect fetches live destination schema metadata over pgx.
//
// The wizard core treats the destination table's column set as an
// externally supplied input; this package is the collaborator that
// supplies it, reading information_schema on the destination database.
// Connections are short-lived: one dial per request, closed when the
// query finishes, so no credential is held beyond its use.
package inspect

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/loadwizard/internal/wizard"
)

// Inspector fetches destination schema metadata.
type Inspector struct {
	connectTimeout time.Duration
	queryTimeout   time.Duration
}

// New creates an Inspector with the given dial and query timeouts.
func New(connectTimeout, queryTimeout time.Duration) *Inspector {
	return &Inspector{
		connectTimeout: connectTimeout,
		queryTimeout:   queryTimeout,
	}
}

// TableColumns returns the column metadata of schema.table in ordinal
// order. An existing table with zero columns is not an error; the caller
// gets an empty slice and reconciliation degrades to no matches.
func (i *Inspector) TableColumns(ctx context.Context, dsn, schema, table string) ([]wizard.TableColumn, error) {
	conn, err := i.connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	queryCtx, cancel := context.WithTimeout(ctx, i.queryTimeout)
	defer cancel()

	rows, err := conn.Query(queryCtx, `
		SELECT column_name, data_type, is_nullable = 'YES', column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`,
		schema, table,
	)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	var cols []wizard.TableColumn
	for rows.Next() {
		var col wizard.TableColumn
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.Default); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns for %s.%s: %w", schema, table, err)
	}
	return cols, nil
}

// ListTables returns the table names in a schema, sorted by name.
func (i *Inspector) ListTables(ctx context.Context, dsn, schema string) ([]string, error) {
	conn, err := i.connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	queryCtx, cancel := context.WithTimeout(ctx, i.queryTimeout)
	defer cancel()

	rows, err := conn.Query(queryCtx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`,
		schema,
	)
	if err != nil {
		return nil, fmt.Errorf("list tables in %s: %w", schema, err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

// ListSchemas returns the non-system schema names, sorted by name.
func (i *Inspector) ListSchemas(ctx context.Context, dsn string) ([]string, error) {
	conn, err := i.connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	queryCtx, cancel := context.WithTimeout(ctx, i.queryTimeout)
	defer cancel()

	rows, err := conn.Query(queryCtx, `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema')
		ORDER BY schema_name`)
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	defer rows.Close()

	return scanStrings(rows)
}

func (i *Inspector) connect(ctx context.Context, dsn string) (*pgx.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, i.connectTimeout)
	defer cancel()

	conn, err := pgx.Connect(dialCtx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to destination: %w", err)
	}
	return conn, nil
}

func scanStrings(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}
	return out, nil
}
