// Package pgsource provides a PostgreSQL-backed module source using pgx:
// one row per resource, keyed by module and resource name.
package pgsource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/gantry-io/gantry/source"
)

// DefaultTable is the table resources are read from when none is given.
const DefaultTable = "module_resources"

// Querier is the subset of the pgx API the source uses. Both *pgx.Conn
// and pool connections satisfy it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Source serves module resources from a PostgreSQL table with columns
// (module text, name text, payload bytea).
type Source struct {
	db     Querier
	table  string
	module string
}

// New returns a Source reading rows for module from DefaultTable.
func New(db Querier, module string) *Source {
	return NewWithTable(db, DefaultTable, module)
}

// NewWithTable returns a Source reading rows for module from table. The
// table name is quoted as a SQL identifier before it is interpolated into
// queries; schema-qualified names like "plugins.units" keep their dotted
// form.
func NewWithTable(db Querier, table, module string) *Source {
	ident := pgx.Identifier(strings.Split(table, "."))
	return &Source{db: db, table: ident.Sanitize(), module: module}
}

// Connect opens a pgx connection to dsn and returns a Source for module
// along with a close function for the connection.
func Connect(ctx context.Context, dsn, module string) (*Source, func(context.Context) error, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgsource: connect: %w", err)
	}
	return New(conn, module), conn.Close, nil
}

// Find fetches the payload for (module, name). A missing row is
// source.ErrNotFound.
func (s *Source) Find(ctx context.Context, name string) (source.ByteSource, error) {
	query := fmt.Sprintf(
		"SELECT payload FROM %s WHERE module = $1 AND name = $2", s.table)
	var payload []byte
	if err := s.db.QueryRow(ctx, query, s.module, name).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, source.ErrNotFound
		}
		return nil, fmt.Errorf("pgsource: query %s/%s: %w", s.module, name, err)
	}
	return source.FromBytes(name, payload), nil
}
