// Package table maps Go structs to PostgreSQL tables and writes them with
// the statements of the dialect/sql package.
//
// A record type is a struct whose fields are the table columns, in order:
//
//	type GameOdds struct {
//	    GameID    int64        `db:"game_id"`
//	    Bookmaker string       `db:"bookmaker"`
//	    Prices    sql.RealArray `db:"prices"`
//	}
//
//	odds, err := table.New[GameOdds](drv, table.Config{PrimaryKey: sql.Key("game_id", "bookmaker")})
//	err = odds.UpsertRows(ctx, rows...)
//	latest, err := odds.Load(ctx, sql.OrderBy("game_id"), sql.Desc(), sql.Limit(10))
package table

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/syssam/syphon"
	"github.com/syssam/syphon/config"
	"github.com/syssam/syphon/dialect"
	"github.com/syssam/syphon/dialect/sql"
	"github.com/syssam/syphon/dialect/sql/schema"
)

// Config configures a Table.
type Config struct {
	// Name is the table name. Defaults to the snake-cased record type name.
	Name string
	// PrimaryKey is the conflict target of upserts and the WHERE clause of
	// updates. Required.
	PrimaryKey sql.PrimaryKey
	// LogQueries logs every statement at info level before it runs.
	LogQueries bool
	// StatementTimeout is set as the PostgreSQL statement_timeout of every
	// statement, e.g. "5s". Empty leaves the server default.
	StatementTimeout string
	// Stats, when set, counts every statement and logs slow ones at warn
	// level. It requires a *sql.Driver.
	Stats *sql.QueryStats
	// CheckColumns compares the table columns with the record columns before
	// every load and fails with a *syphon.ColumnMismatchError when they differ.
	CheckColumns bool
	// Logger receives query and error logs. The zero value discards them.
	Logger zerolog.Logger
}

// Table reads and writes records of type T.
type Table[T any] struct {
	runner
	rec          *record
	pk           sql.PrimaryKey
	checkColumns bool
}

// New returns a Table of T over drv.
func New[T any](drv dialect.Driver, cfg Config) (*Table[T], error) {
	if drv == nil {
		return nil, syphon.NewValidationError("driver", errors.New("is required"))
	}
	rec, err := recordOf[T]()
	if err != nil {
		return nil, syphon.NewValidationError("record", err)
	}
	if len(cfg.PrimaryKey) == 0 {
		return nil, syphon.NewValidationError("primary key", errors.New("is required"))
	}
	for _, c := range cfg.PrimaryKey {
		if !slices.Contains(rec.columns, c) {
			return nil, syphon.NewValidationError("primary key", fmt.Errorf("column %q is not a column of %v", c, rec.typ))
		}
	}
	name := cfg.Name
	if name == "" {
		name = rec.tableName()
	}
	r, err := newRunner(drv, name, runnerConfig{
		logQueries:       cfg.LogQueries,
		statementTimeout: cfg.StatementTimeout,
		stats:            cfg.Stats,
		logger:           cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Table[T]{
		runner:       r,
		rec:          rec,
		pk:           cfg.PrimaryKey,
		checkColumns: cfg.CheckColumns,
	}, nil
}

// Open opens a PostgreSQL connection from pg and returns a Table of T over it.
// The caller closes the table when done.
func Open[T any](pg config.Postgres, cfg Config) (*Table[T], error) {
	if err := pg.Validate(); err != nil {
		return nil, err
	}
	drv, err := sql.Open(pg.Driver, pg.DSN())
	if err != nil {
		return nil, err
	}
	cfg.LogQueries = cfg.LogQueries || pg.LogQueries
	if cfg.StatementTimeout == "" {
		cfg.StatementTimeout = pg.StatementTimeout
	}
	t, err := New[T](drv, cfg)
	if err != nil {
		return nil, errors.Join(err, drv.Close())
	}
	return t, nil
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

// RecordColumns returns the record columns in order.
func (t *Table[T]) RecordColumns() []string {
	return slices.Clone(t.rec.columns)
}

// Close closes the underlying driver.
func (t *Table[T]) Close() error { return t.drv.Close() }

// UpsertRow inserts v, or updates its non-key columns when its key exists.
func (t *Table[T]) UpsertRow(ctx context.Context, v T) error {
	return t.UpsertRows(ctx, v)
}

// UpsertRows inserts or updates all records in a single statement.
func (t *Table[T]) UpsertRows(ctx context.Context, vs ...T) error {
	query, err := sql.BuildUpsert(t.name, t.rows(vs), t.pk)
	if err != nil {
		return syphon.NewMutationError(t.name, "upsert", err)
	}
	return t.exec(ctx, "upsert", query)
}

// InsertIfAbsent inserts v unless its key exists. An existing row is left
// untouched and no error is reported.
func (t *Table[T]) InsertIfAbsent(ctx context.Context, v T) error {
	query, err := sql.BuildInsertIfAbsent(t.name, t.rec.row(v), t.pk)
	if err != nil {
		return syphon.NewMutationError(t.name, "insert", err)
	}
	return t.exec(ctx, "insert", query)
}

// InsertManyIfAbsent inserts every record whose key does not exist yet.
func (t *Table[T]) InsertManyIfAbsent(ctx context.Context, vs ...T) error {
	query, err := sql.BuildInsertManyIfAbsent(t.name, t.rows(vs), t.pk)
	if err != nil {
		return syphon.NewMutationError(t.name, "insert", err)
	}
	return t.exec(ctx, "insert", query)
}

// UpdateColumns sets the non-key columns of row on the record identified by
// the key columns of row.
//
//	odds.UpdateColumns(ctx, sql.NewRow().Set("game_id", 1).Set("closed", true))
func (t *Table[T]) UpdateColumns(ctx context.Context, row *sql.Row) error {
	query, err := sql.BuildUpdate(t.name, row, t.pk)
	if err != nil {
		return syphon.NewMutationError(t.name, "update", err)
	}
	return t.exec(ctx, "update", query)
}

// LoadAll returns every record of the table.
func (t *Table[T]) LoadAll(ctx context.Context) ([]T, error) {
	return t.Find(ctx, nil)
}

// LoadSample returns at most n records.
func (t *Table[T]) LoadSample(ctx context.Context, n int) ([]T, error) {
	return t.Find(ctx, nil, sql.Limit(n))
}

// LoadWhere returns the records matching a caller-written SQL condition.
// The condition is written verbatim into the statement.
func (t *Table[T]) LoadWhere(ctx context.Context, condition string) ([]T, error) {
	return t.Find(ctx, nil, sql.WhereRaw(condition))
}

// Load returns the records selected by the options, e.g. sql.OrderBy,
// sql.WhereRaw, sql.Limit and sql.Offset.
func (t *Table[T]) Load(ctx context.Context, opts ...sql.SelectOption) ([]T, error) {
	return t.Find(ctx, nil, opts...)
}

// Find returns the records matching all filters. Records are always read
// with the record columns, so a sql.Columns option is ignored.
func (t *Table[T]) Find(ctx context.Context, filters []sql.Filter, opts ...sql.SelectOption) ([]T, error) {
	opts = append(opts[:len(opts):len(opts)], sql.Columns(t.rec.columns...))
	query, err := sql.BuildSelect(t.name, filters, opts...)
	if err != nil {
		return nil, syphon.NewQueryError(t.name, "select", err)
	}
	if t.checkColumns {
		if err := t.CheckColumns(ctx); err != nil {
			return nil, err
		}
	}
	var result []T
	err = t.query(ctx, "select", query, func(rows *sql.Rows) error {
		for rows.Next() {
			var v T
			if err := rows.Scan(t.rec.scanTargets(&v)...); err != nil {
				return err
			}
			result = append(result, v)
		}
		return rows.Err()
	})
	return result, err
}

// Columns returns the column names of the database table in ordinal position.
func (t *Table[T]) Columns(ctx context.Context) ([]string, error) {
	return t.columns(ctx)
}

// CheckColumns fails with a *syphon.ColumnMismatchError when the table
// columns are not the record columns in the same order.
func (t *Table[T]) CheckColumns(ctx context.Context) error {
	actual, err := t.columns(ctx)
	if err != nil {
		return err
	}
	if res := schema.ValidateColumns(t.name, actual, t.rec.columns); res.HasErrors() {
		t.logger.Error().Strs("table_columns", actual).Strs("record_columns", t.rec.columns).Msg("column mismatch")
		return &syphon.ColumnMismatchError{Table: t.name, Expected: t.RecordColumns(), Actual: actual}
	}
	return nil
}

// Exec runs a caller-written statement on the table's connection.
func (t *Table[T]) Exec(ctx context.Context, query string) error {
	return t.exec(ctx, "exec", query)
}

func (t *Table[T]) rows(vs []T) []*sql.Row {
	rows := make([]*sql.Row, len(vs))
	for i, v := range vs {
		rows[i] = t.rec.row(v)
	}
	return rows
}
