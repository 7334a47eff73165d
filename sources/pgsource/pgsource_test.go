package pgsource

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/gantry-io/gantry/source"
)

type fakeRow struct {
	payload []byte
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.payload
	return nil
}

type fakeDB struct {
	rows    map[string][]byte
	err     error
	lastSQL string
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL = sql
	if f.err != nil {
		return fakeRow{err: f.err}
	}
	key := args[0].(string) + "/" + args[1].(string)
	payload, ok := f.rows[key]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{payload: payload}
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	db := &fakeDB{rows: map[string][]byte{
		"app/util/strings.unit": []byte("payload"),
	}}
	src := New(db, "app")

	bs, err := src.Find(ctx, "util/strings.unit")
	require.Nil(t, err)

	data, err := bs.ReadAll(ctx)
	require.Nil(t, err)
	require.Equal(t, []byte("payload"), data)
	require.Contains(t, db.lastSQL, DefaultTable)
}

func TestFindMissingRow(t *testing.T) {
	src := New(&fakeDB{}, "app")
	_, err := src.Find(context.Background(), "ghost.unit")
	require.True(t, errors.Is(err, source.ErrNotFound))
}

func TestFindQueryError(t *testing.T) {
	boom := errors.New("connection refused")
	src := New(&fakeDB{err: boom}, "app")

	_, err := src.Find(context.Background(), "mod.unit")
	require.True(t, errors.Is(err, boom))
	require.False(t, errors.Is(err, source.ErrNotFound))
}

func TestCustomTable(t *testing.T) {
	db := &fakeDB{rows: map[string][]byte{"app/mod.unit": []byte("x")}}
	src := NewWithTable(db, "plugin_units", "app")

	_, err := src.Find(context.Background(), "mod.unit")
	require.Nil(t, err)
	require.Contains(t, db.lastSQL, "plugin_units")
}

func TestTableIdentifierQuoted(t *testing.T) {
	db := &fakeDB{}
	src := NewWithTable(db, `units";drop table units;--`, "app")

	_, err := src.Find(context.Background(), "mod.unit")
	require.True(t, errors.Is(err, source.ErrNotFound))
	require.Contains(t, db.lastSQL, `FROM "units"";drop table units;--" WHERE`)
}

func TestSchemaQualifiedTable(t *testing.T) {
	db := &fakeDB{rows: map[string][]byte{"app/mod.unit": []byte("x")}}
	src := NewWithTable(db, "plugins.units", "app")

	_, err := src.Find(context.Background(), "mod.unit")
	require.Nil(t, err)
	require.Contains(t, db.lastSQL, `FROM "plugins"."units" WHERE`)
}
