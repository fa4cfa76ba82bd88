package sql

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpsert(t *testing.T) {
	tests := []struct {
		name string
		rows []*Row
		pk   PrimaryKey
		want string
	}{
		{
			name: "single_row",
			rows: []*Row{NewRow().Set("a", 1).Set("b", 2)},
			pk:   Key("a"),
			want: "INSERT INTO t (a, b)\nVALUES\n  (1, 2)\nON CONFLICT (a)\nDO UPDATE SET b = EXCLUDED.b;",
		},
		{
			name: "multi_row",
			rows: []*Row{
				NewRow().Set("a", 1).Set("b", "x").Set("c", nil),
				NewRow().Set("a", 2).Set("b", "y'z").Set("c", IntArray{}),
			},
			pk: Key("a"),
			want: "INSERT INTO t (a, b, c)\nVALUES\n  (1, 'x', null),\n  (2, 'y''z', ARRAY[]::integer[])\n" +
				"ON CONFLICT (a)\nDO UPDATE SET b = EXCLUDED.b, c = EXCLUDED.c;",
		},
		{
			name: "composite_key",
			rows: []*Row{NewRow().Set("a", 1).Set("b", 2).Set("c", 3)},
			pk:   Key("a", "b"),
			want: "INSERT INTO t (a, b, c)\nVALUES\n  (1, 2, 3)\nON CONFLICT (a, b)\nDO UPDATE SET c = EXCLUDED.c;",
		},
		{
			name: "no_key",
			rows: []*Row{NewRow().Set("a", 1), NewRow().Set("a", 2)},
			want: "INSERT INTO t (a)\nVALUES\n  (1),\n  (2);",
		},
		{
			name: "key_only",
			rows: []*Row{NewRow().Set("a", 1)},
			pk:   Key("a"),
			want: "INSERT INTO t (a)\nVALUES\n  (1)\nON CONFLICT (a) DO NOTHING;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildUpsert("t", tt.rows, tt.pk)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildUpsertErrors(t *testing.T) {
	_, err := BuildUpsert("t", nil, Key("a"))
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = BuildUpsert("", []*Row{NewRow().Set("a", 1)}, Key("a"))
	assert.True(t, IsStatementError(err))

	_, err = BuildUpsert("t", []*Row{NewRow().Set("a", 1), NewRow()}, Key("a"))
	assert.True(t, IsStatementError(err))

	_, err = BuildUpsert("t", []*Row{NewRow().Set("a", map[string]int{})}, Key("a"))
	assert.ErrorIs(t, err, ErrUnsupportedValue)
	assert.Contains(t, err.Error(), `column "a"`)
}

func TestBuildInsertIfAbsent(t *testing.T) {
	row := NewRow().Set("a", 1).Set("b", "x")
	got, err := BuildInsertIfAbsent("t", row, Key("a"))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (a, b)\nVALUES (1, 'x')\nON CONFLICT (a) DO NOTHING;", got)

	got, err = BuildInsertIfAbsent("t", row, nil)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (a, b)\nVALUES (1, 'x');", got)

	_, err = BuildInsertIfAbsent("t", nil, Key("a"))
	assert.True(t, IsStatementError(err))
}

func TestBuildInsertManyIfAbsent(t *testing.T) {
	rows := []*Row{
		NewRow().Set("a", 1).Set("b", true),
		NewRow().Set("a", 2).Set("b", false),
	}
	got, err := BuildInsertManyIfAbsent("t", rows, Key("a"))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO t (a, b)\nVALUES\n  (1, true),\n  (2, false)\nON CONFLICT (a) DO NOTHING;", got)

	_, err = BuildInsertManyIfAbsent("t", []*Row{}, Key("a"))
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestBuildUpdate(t *testing.T) {
	got, err := BuildUpdate("t", NewRow().Set("a", 1).Set("b", 2), Key("a"))
	require.NoError(t, err)
	assert.Equal(t, "UPDATE t\nSET b = 2\nWHERE a = 1\n;", got)

	ts := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	row := NewRow().Set("name", "it's").Set("id", 7).Set("region", "eu").Set("seen", ts)
	got, err = BuildUpdate("t", row, Key("id", "region"))
	require.NoError(t, err)
	assert.Equal(t, "UPDATE t\nSET name = 'it''s', seen = '2020-01-02 03:04:05.000000'\nWHERE id = 7 AND region = 'eu'\n;", got)
}

func TestBuildUpdateErrors(t *testing.T) {
	tests := []struct {
		name string
		row  *Row
		pk   PrimaryKey
	}{
		{"no_key", NewRow().Set("a", 1).Set("b", 2), nil},
		{"key_missing", NewRow().Set("b", 2), Key("a")},
		{"nothing_to_set", NewRow().Set("a", 1), Key("a")},
		{"empty_row", NewRow(), Key("a")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildUpdate("t", tt.row, tt.pk)
			require.Error(t, err)
			var serr *StatementError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, "update", serr.Op)
		})
	}
}

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name    string
		filters []Filter
		opts    []SelectOption
		want    string
	}{
		{
			name:    "filters_order_limit",
			filters: []Filter{Cond("age", ">", 18), Cond("status", "=", "active")},
			opts:    []SelectOption{OrderBy("id"), Limit(5)},
			want:    "SELECT * FROM t\nWHERE age > 18 AND status = 'active'\nORDER BY id ASC\nLIMIT 5;",
		},
		{
			name: "all",
			want: "SELECT * FROM t;",
		},
		{
			name:    "desc_offset",
			filters: []Filter{EQ("a", 1)},
			opts:    []SelectOption{OrderBy("created_at"), Desc(), Limit(10), Offset(20)},
			want:    "SELECT * FROM t\nWHERE a = 1\nORDER BY created_at DESC\nLIMIT 10\nOFFSET 20;",
		},
		{
			name:    "now_string",
			filters: []Filter{LT("expires_at", "now")},
			want:    "SELECT * FROM t\nWHERE expires_at < now();",
		},
		{
			name:    "now_sentinel",
			filters: []Filter{GTE("expires_at", Now)},
			want:    "SELECT * FROM t\nWHERE expires_at >= now();",
		},
		{
			name: "columns_raw",
			opts: []SelectOption{Columns("id", "name"), WhereRaw("random() < 0.5"), Limit(0)},
			want: "SELECT id, name FROM t\nWHERE random() < 0.5\nLIMIT 0;",
		},
		{
			name: "columns_replaced",
			opts: []SelectOption{Columns("id", "name"), Columns("email")},
			want: "SELECT email FROM t;",
		},
		{
			name:    "null_filters",
			filters: []Filter{IsNull("deleted_at"), NotNull("email"), NEQ("role", "admin"), LTE("n", 3), Like("name", "a%")},
			want:    "SELECT * FROM t\nWHERE deleted_at IS null AND email IS NOT null AND role <> 'admin' AND n <= 3 AND name LIKE 'a%';",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildSelect("t", tt.filters, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildSelectErrors(t *testing.T) {
	_, err := BuildSelect("", nil)
	assert.True(t, IsStatementError(err))

	_, err = BuildSelect("t", nil, Limit(-1))
	assert.True(t, IsStatementError(err))

	_, err = BuildSelect("t", nil, Offset(-1))
	assert.True(t, IsStatementError(err))

	_, err = BuildSelect("t", nil, Desc())
	assert.True(t, IsStatementError(err))
	assert.ErrorContains(t, err, "desc without order by")

	_, err = BuildSelect("t", []Filter{EQ("a", struct{}{})})
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestBuildFunctionSelect(t *testing.T) {
	got, err := BuildFunctionSelect("odds_between", 1, "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM odds_between(1, 'x', null);", got)

	got, err = BuildFunctionSelect("latest")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM latest();", got)

	_, err = BuildFunctionSelect("")
	assert.True(t, IsStatementError(err))
}

func TestBuildIdempotent(t *testing.T) {
	rows := []*Row{
		NewRow().Set("a", 1).Set("b", []byte{1}).Set("c", VarcharArray{"x"}),
		NewRow().Set("a", 2).Set("b", []byte{2}).Set("c", VarcharArray{}),
	}
	pk := Key("a")
	builds := []func() (string, error){
		func() (string, error) { return BuildUpsert("t", rows, pk) },
		func() (string, error) { return BuildInsertIfAbsent("t", rows[0], pk) },
		func() (string, error) { return BuildInsertManyIfAbsent("t", rows, pk) },
		func() (string, error) { return BuildUpdate("t", rows[1], pk) },
		func() (string, error) {
			return BuildSelect("t", []Filter{GT("a", 1)}, OrderBy("a"), Limit(1))
		},
	}
	for _, build := range builds {
		first, err := build()
		require.NoError(t, err)
		second, err := build()
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestRow(t *testing.T) {
	r := NewRow().Set("b", 1).Set("a", 2).Set("b", 3)
	assert.Equal(t, []string{"b", "a"}, r.Columns())
	assert.Equal(t, []any{3, 2}, r.Values())
	v, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.False(t, r.Has("c"))
	assert.Equal(t, map[string]any{"a": 2, "b": 3}, r.Map())

	r = RowFromMap(map[string]any{"z": 1, "y": 2})
	assert.Equal(t, []string{"y", "z"}, r.Columns())

	r = RowFromMap(map[string]any{"z": 1}, "z", "w")
	assert.Equal(t, []any{1, nil}, r.Values())

	assert.Equal(t, "a, b", Key("a", "b").String())
	assert.True(t, Key("a", "b").Contains("b"))
}
