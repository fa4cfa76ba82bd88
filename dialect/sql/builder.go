package sql

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildUpsert returns a multi-row INSERT that updates every non-key column
// of conflicting rows:
//
//	INSERT INTO t (a, b)
//	VALUES
//	  (1, 2)
//	ON CONFLICT (a)
//	DO UPDATE SET b = EXCLUDED.b;
//
// The column list is taken from the first row; all rows must have the same
// columns in the same order. With an empty pk the statement is a plain
// multi-row INSERT and conflicts fail at execution time. When every column
// is a key column there is nothing to update and conflicting rows are skipped.
func BuildUpsert(table string, rows []*Row, pk PrimaryKey) (string, error) {
	stmt, err := insertValues("upsert", table, rows)
	if err != nil {
		return "", err
	}
	if len(pk) == 0 {
		return stmt + ";", nil
	}
	var updates []string
	for _, c := range rows[0].columns {
		if !pk.Contains(c) {
			updates = append(updates, c+" = EXCLUDED."+c)
		}
	}
	if len(updates) == 0 {
		return stmt + "\n" + doNothing(pk), nil
	}
	return stmt + "\nON CONFLICT (" + pk.String() + ")\nDO UPDATE SET " + strings.Join(updates, ", ") + ";", nil
}

// BuildInsertIfAbsent returns a single-row INSERT that is silently skipped
// when the key already exists:
//
//	INSERT INTO t (a, b)
//	VALUES (1, 'x')
//	ON CONFLICT (a) DO NOTHING;
func BuildInsertIfAbsent(table string, row *Row, pk PrimaryKey) (string, error) {
	if err := checkRows("insert", table, []*Row{row}); err != nil {
		return "", err
	}
	values, err := encodeRow(row)
	if err != nil {
		return "", err
	}
	stmt := insertInto(table, row) + "\nVALUES " + values
	if len(pk) == 0 {
		return stmt + ";", nil
	}
	return stmt + "\n" + doNothing(pk), nil
}

// BuildInsertManyIfAbsent is the multi-row form of BuildInsertIfAbsent.
func BuildInsertManyIfAbsent(table string, rows []*Row, pk PrimaryKey) (string, error) {
	stmt, err := insertValues("insert", table, rows)
	if err != nil {
		return "", err
	}
	if len(pk) == 0 {
		return stmt + ";", nil
	}
	return stmt + "\n" + doNothing(pk), nil
}

// BuildUpdate returns an UPDATE setting every non-key column of row on the
// row identified by the key columns, which must be present in row:
//
//	UPDATE t
//	SET b = 2
//	WHERE a = 1
//	;
func BuildUpdate(table string, row *Row, pk PrimaryKey) (string, error) {
	if err := checkRows("update", table, []*Row{row}); err != nil {
		return "", err
	}
	if len(pk) == 0 {
		return "", &StatementError{Op: "update", Msg: "primary key is required"}
	}
	var sets []string
	for i, c := range row.columns {
		if pk.Contains(c) {
			continue
		}
		v, err := Encode(row.values[i])
		if err != nil {
			return "", fmt.Errorf("dialect/sql: update column %q: %w", c, err)
		}
		sets = append(sets, c+" = "+v)
	}
	if len(sets) == 0 {
		return "", &StatementError{Op: "update", Msg: "no columns to set"}
	}
	where := make([]string, len(pk))
	for i, c := range pk {
		value, ok := row.Get(c)
		if !ok {
			return "", &StatementError{Op: "update", Msg: fmt.Sprintf("key column %q missing from row", c)}
		}
		v, err := Encode(value)
		if err != nil {
			return "", fmt.Errorf("dialect/sql: update key %q: %w", c, err)
		}
		where[i] = c + " = " + v
	}
	return strings.Join([]string{
		"UPDATE " + table,
		"SET " + strings.Join(sets, ", "),
		"WHERE " + strings.Join(where, " AND "),
		";",
	}, "\n"), nil
}

// SelectOption configures BuildSelect.
type SelectOption func(*selectConfig)

type selectConfig struct {
	columns []string
	where   []string
	orderBy []string
	desc    bool
	limit   *int
	offset  *int
}

// Columns selects the given columns instead of *. A later Columns option
// replaces the columns of an earlier one.
func Columns(columns ...string) SelectOption {
	return func(c *selectConfig) {
		c.columns = columns
	}
}

// WhereRaw adds a caller-written condition, AND-ed after the filters.
// The expression is written verbatim.
func WhereRaw(expr string) SelectOption {
	return func(c *selectConfig) {
		if expr != "" {
			c.where = append(c.where, expr)
		}
	}
}

// OrderBy orders the result by the given columns, ascending unless Desc is set.
func OrderBy(columns ...string) SelectOption {
	return func(c *selectConfig) {
		c.orderBy = append(c.orderBy, columns...)
	}
}

// Desc switches the order to descending. It requires OrderBy.
func Desc() SelectOption {
	return func(c *selectConfig) {
		c.desc = true
	}
}

// Limit limits the number of returned rows.
func Limit(n int) SelectOption {
	return func(c *selectConfig) {
		c.limit = &n
	}
}

// Offset skips the first n rows.
func Offset(n int) SelectOption {
	return func(c *selectConfig) {
		c.offset = &n
	}
}

// BuildSelect returns a SELECT whose WHERE clause is the conjunction of the
// filters, each rendered as "column op value":
//
//	SELECT * FROM t
//	WHERE age > 18 AND status = 'active'
//	ORDER BY id ASC
//	LIMIT 5;
//
// A filter value of Now, or the string "now", renders as now().
func BuildSelect(table string, filters []Filter, opts ...SelectOption) (string, error) {
	if table == "" {
		return "", &StatementError{Op: "select", Msg: "table name cannot be empty"}
	}
	cfg := &selectConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	conds := make([]string, 0, len(filters)+len(cfg.where))
	for _, f := range filters {
		cond, err := filterCond(f)
		if err != nil {
			return "", err
		}
		conds = append(conds, cond)
	}
	conds = append(conds, cfg.where...)

	columns := "*"
	if len(cfg.columns) > 0 {
		columns = strings.Join(cfg.columns, ", ")
	}
	lines := []string{"SELECT " + columns + " FROM " + table}
	if len(conds) > 0 {
		lines = append(lines, "WHERE "+strings.Join(conds, " AND "))
	}
	if cfg.desc && len(cfg.orderBy) == 0 {
		return "", &StatementError{Op: "select", Msg: "desc without order by"}
	}
	if len(cfg.orderBy) > 0 {
		dir := "ASC"
		if cfg.desc {
			dir = "DESC"
		}
		lines = append(lines, "ORDER BY "+strings.Join(cfg.orderBy, ", ")+" "+dir)
	}
	if cfg.limit != nil {
		if *cfg.limit < 0 {
			return "", &StatementError{Op: "select", Msg: "negative limit"}
		}
		lines = append(lines, "LIMIT "+strconv.Itoa(*cfg.limit))
	}
	if cfg.offset != nil {
		if *cfg.offset < 0 {
			return "", &StatementError{Op: "select", Msg: "negative offset"}
		}
		lines = append(lines, "OFFSET "+strconv.Itoa(*cfg.offset))
	}
	return strings.Join(lines, "\n") + ";", nil
}

// BuildFunctionSelect returns a SELECT over the result of a set-returning function:
//
//	SELECT * FROM fn(1, 'x');
func BuildFunctionSelect(function string, args ...any) (string, error) {
	if function == "" {
		return "", &StatementError{Op: "select", Msg: "function name cannot be empty"}
	}
	encoded, err := EncodeAll(args)
	if err != nil {
		return "", err
	}
	return "SELECT * FROM " + function + "(" + strings.Join(encoded, ", ") + ");", nil
}

func filterCond(f Filter) (string, error) {
	// The "now" string is kept as a current-timestamp sentinel.
	if s, ok := f.Value.(string); ok && s == "now" {
		return f.Column + " " + f.Op + " now()", nil
	}
	v, err := Encode(f.Value)
	if err != nil {
		return "", fmt.Errorf("dialect/sql: filter on %q: %w", f.Column, err)
	}
	return f.Column + " " + f.Op + " " + v, nil
}

// insertValues returns the INSERT head and the VALUES list of rows.
func insertValues(op, table string, rows []*Row) (string, error) {
	if err := checkRows(op, table, rows); err != nil {
		return "", err
	}
	tuples := make([]string, len(rows))
	for i, r := range rows {
		values, err := encodeRow(r)
		if err != nil {
			return "", err
		}
		tuples[i] = "  " + values
	}
	return insertInto(table, rows[0]) + "\nVALUES\n" + strings.Join(tuples, ",\n"), nil
}

func insertInto(table string, row *Row) string {
	return "INSERT INTO " + table + " (" + strings.Join(row.columns, ", ") + ")"
}

func encodeRow(r *Row) (string, error) {
	values := make([]string, len(r.values))
	for i, v := range r.values {
		s, err := Encode(v)
		if err != nil {
			return "", fmt.Errorf("dialect/sql: column %q: %w", r.columns[i], err)
		}
		values[i] = s
	}
	return "(" + strings.Join(values, ", ") + ")", nil
}

func doNothing(pk PrimaryKey) string {
	return "ON CONFLICT (" + pk.String() + ") DO NOTHING;"
}

func checkRows(op, table string, rows []*Row) error {
	if table == "" {
		return &StatementError{Op: op, Msg: "table name cannot be empty"}
	}
	if len(rows) == 0 {
		return fmt.Errorf("dialect/sql: %s %s: %w", op, table, ErrNoRows)
	}
	for i, r := range rows {
		if r == nil || r.Len() == 0 {
			return &StatementError{Op: op, Msg: fmt.Sprintf("row %d has no columns", i)}
		}
	}
	return nil
}
