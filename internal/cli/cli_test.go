package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/syphon/config"
	"github.com/syssam/syphon/dialect"
	"github.com/syssam/syphon/dialect/sql"
)

// execute runs the root command with args and returns its stdout and stderr.
func execute(t *testing.T, opts *options, stdin string, args ...string) (string, string, error) {
	t.Helper()
	if opts == nil {
		opts = &options{open: openPostgres}
	}
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(opts)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestSQLUpsert(t *testing.T) {
	rows := `
- game_id: 1
  bookmaker: pinnacle
  price: 1.5
- game_id: 2
  bookmaker: "bet's"
  price: 2
`
	out, _, err := execute(t, nil, rows, "sql", "upsert", "odds", "-", "--key", "game_id")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO odds (game_id, bookmaker, price)\n"+
		"VALUES\n"+
		"  (1, 'pinnacle', 1.5),\n"+
		"  (2, 'bet''s', 2)\n"+
		"ON CONFLICT (game_id)\n"+
		"DO UPDATE SET bookmaker = EXCLUDED.bookmaker, price = EXCLUDED.price;\n", out)

	out, _, err = execute(t, nil, rows, "sql", "upsert", "odds", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "(2, 'bet''s', 2);\n"))
}

func TestSQLInsert(t *testing.T) {
	out, _, err := execute(t, nil, `[{"b": 1, "a": [1, 2], "c": null}]`, "sql", "insert", "t", "-", "-k", "b")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (b, a, c)\nVALUES (1, ARRAY[1, 2], null)\nON CONFLICT (b) DO NOTHING;\n", out)

	out, _, err = execute(t, nil, `[{"b": 1}, {"b": 2}]`, "sql", "insert", "t", "-", "-k", "b")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (b)\nVALUES\n  (1),\n  (2)\nON CONFLICT (b) DO NOTHING;\n", out)
}

func TestSQLUpdate(t *testing.T) {
	rows := "- {id: 1, name: a}\n- {id: 2, name: b}\n"
	out, _, err := execute(t, nil, rows, "sql", "update", "players", "-", "--key", "id")
	require.NoError(t, err)
	assert.Equal(t, "UPDATE players\nSET name = 'a'\nWHERE id = 1\n;\n"+
		"UPDATE players\nSET name = 'b'\nWHERE id = 2\n;\n", out)

	_, _, err = execute(t, nil, rows, "sql", "update", "players", "-")
	assert.ErrorContains(t, err, "key")
}

func TestSQLSelect(t *testing.T) {
	out, _, err := execute(t, nil, "", "sql", "select", "odds",
		"--eq", "bookmaker=pinnacle",
		"--eq", "closed=null",
		"--where", "price > 2",
		"--columns", "game_id,price",
		"--order-by", "game_id",
		"--desc",
		"--limit", "5",
		"--offset", "10",
	)
	require.NoError(t, err)
	assert.Equal(t, "SELECT game_id, price FROM odds\n"+
		"WHERE bookmaker = 'pinnacle' AND closed IS null AND price > 2\n"+
		"ORDER BY game_id DESC\n"+
		"LIMIT 5\n"+
		"OFFSET 10;\n", out)

	out, _, err = execute(t, nil, "", "sql", "select", "odds")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM odds;\n", out)

	_, _, err = execute(t, nil, "", "sql", "select", "odds", "--eq", "price")
	assert.ErrorContains(t, err, "column=value")

	_, _, err = execute(t, nil, "", "sql", "select", "odds", "--desc")
	assert.ErrorContains(t, err, "desc without order by")
}

func TestSQLFunction(t *testing.T) {
	out, _, err := execute(t, nil, "", "sql", "function", "odds_between", "1", "abc", "true")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM odds_between(1, 'abc', true);\n", out)
}

func TestReadRows(t *testing.T) {
	rows, err := readRows(strings.NewReader("{z: 1, a: 2}"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"z", "a"}, rows[0].Columns())

	_, err = readRows(strings.NewReader(""))
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = readRows(strings.NewReader("42"))
	assert.Error(t, err)
	_, err = readRows(strings.NewReader("- 1\n- 2\n"))
	assert.ErrorContains(t, err, "not a mapping")
	_, err = readRowsFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestParseColumn(t *testing.T) {
	name, typ, notNull, err := parseColumn("prices:real[]:notnull")
	require.NoError(t, err)
	assert.Equal(t, "prices", name)
	assert.Equal(t, "real[]", typ)
	assert.True(t, notNull)

	_, _, notNull, err = parseColumn("id:integer")
	require.NoError(t, err)
	assert.False(t, notNull)

	for _, s := range []string{"id", "id:", ":integer", "id:integer:yes", "id:integer:null"} {
		_, _, _, err := parseColumn(s)
		assert.Error(t, err, s)
	}
}

func TestTableCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syphon.db")
	opts := func() *options {
		return &options{open: func(config.Postgres) (dialect.Driver, error) {
			return sql.Open("sqlite", path)
		}}
	}

	out, _, err := execute(t, opts(), "", "table", "exists", "scores")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)

	_, logs, err := execute(t, opts(), "", "table", "create", "scores",
		"--key", "game_id,team",
		"--column", "game_id:integer:notnull",
		"--column", "team:text:notnull",
		"--column", "points:integer:notnull",
		"--column", "note:text",
	)
	require.NoError(t, err)
	assert.Contains(t, logs, "created table")

	out, _, err = execute(t, opts(), "", "table", "exists", "scores")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	_, logs, err = execute(t, opts(), "", "table", "exists", "scores", "--stats")
	require.NoError(t, err)
	assert.Contains(t, logs, "sql stats")
	assert.Contains(t, logs, `"queries":1`)

	out, _, err = execute(t, opts(), "", "table", "columns", "scores")
	require.NoError(t, err)
	assert.Equal(t, "game_id\nteam\npoints\nnote\n", out)

	rows := "- {game_id: 1, team: home, points: 98, note: null}\n- {game_id: 1, team: away, points: 101, note: OT}\n"
	_, logs, err = execute(t, opts(), rows, "table", "apply", "scores", "-", "--key", "game_id,team")
	require.NoError(t, err)
	assert.Contains(t, logs, "applied rows")

	_, _, err = execute(t, opts(), "- {game_id: 1, team: home, points: 99, note: null}\n",
		"table", "apply", "scores", "-", "--key", "game_id,team")
	require.NoError(t, err)
	_, _, err = execute(t, opts(), "- {game_id: 1, team: away, points: 0, note: null}\n",
		"table", "apply", "scores", "-", "--key", "game_id,team", "--skip-existing")
	require.NoError(t, err)

	drv, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	rs := &sql.Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT points FROM scores ORDER BY team;", []any{}, rs))
	points, err := sql.ScanStrings(rs)
	require.NoError(t, err)
	assert.Equal(t, []string{"101", "99"}, points)
	require.NoError(t, drv.Close())

	_, logs, err = execute(t, opts(), "", "table", "drop", "scores", "--log-queries")
	require.NoError(t, err)
	assert.Contains(t, logs, "DROP TABLE IF EXISTS scores;")

	out, _, err = execute(t, opts(), "", "table", "exists", "scores")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)
}

func TestTableCommandConfigErrors(t *testing.T) {
	t.Setenv("SYPHON_POSTGRES_HOST", "")
	_, _, err := execute(t, nil, "", "table", "exists", "scores")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres.host")

	_, _, err = execute(t, nil, "", "table", "exists", "scores", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "does not exist")
}
