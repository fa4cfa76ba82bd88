package table

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/syssam/syphon"
	"github.com/syssam/syphon/dialect"
	"github.com/syssam/syphon/dialect/sql"
	"github.com/syssam/syphon/dialect/sql/schema"
)

// DynamicConfig configures a Dynamic table.
type DynamicConfig struct {
	// Name is the table name. Required.
	Name string
	// PrimaryKey is the conflict target of upserts and the key of created tables.
	// Upserts without a key are plain inserts.
	PrimaryKey sql.PrimaryKey
	// LogQueries logs every statement at info level before it runs.
	LogQueries bool
	// StatementTimeout is set as the PostgreSQL statement_timeout of every
	// statement, e.g. "5s". Empty leaves the server default.
	StatementTimeout string
	// Stats, when set, counts every statement and logs slow ones at warn
	// level. It requires a *sql.Driver.
	Stats *sql.QueryStats
	// Logger receives query and error logs. The zero value discards them.
	Logger zerolog.Logger
}

// Dynamic is a table whose name and columns are only known at runtime.
// Rows are written as ordered sql.Row values and read back as maps.
type Dynamic struct {
	runner
	pk sql.PrimaryKey
}

// NewDynamic returns a Dynamic table over drv.
func NewDynamic(drv dialect.Driver, cfg DynamicConfig) (*Dynamic, error) {
	if drv == nil {
		return nil, syphon.NewValidationError("driver", errors.New("is required"))
	}
	if cfg.Name == "" {
		return nil, syphon.NewValidationError("table name", errors.New("is required"))
	}
	r, err := newRunner(drv, cfg.Name, runnerConfig{
		logQueries:       cfg.LogQueries,
		statementTimeout: cfg.StatementTimeout,
		stats:            cfg.Stats,
		logger:           cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Dynamic{runner: r, pk: cfg.PrimaryKey}, nil
}

// Name returns the table name.
func (d *Dynamic) Name() string { return d.name }

// UpsertRows inserts or updates all rows in a single statement.
// The rows must share the columns of the first row, in the same order.
func (d *Dynamic) UpsertRows(ctx context.Context, rows ...*sql.Row) error {
	query, err := sql.BuildUpsert(d.name, rows, d.pk)
	if err != nil {
		return syphon.NewMutationError(d.name, "upsert", err)
	}
	return d.exec(ctx, "upsert", query)
}

// InsertManyIfAbsent inserts every row whose key does not exist yet.
func (d *Dynamic) InsertManyIfAbsent(ctx context.Context, rows ...*sql.Row) error {
	query, err := sql.BuildInsertManyIfAbsent(d.name, rows, d.pk)
	if err != nil {
		return syphon.NewMutationError(d.name, "insert", err)
	}
	return d.exec(ctx, "insert", query)
}

// Exists reports whether the table exists.
func (d *Dynamic) Exists(ctx context.Context) (bool, error) {
	return d.exists(ctx)
}

// Create creates the table with the given columns, keyed by the configured
// primary key.
func (d *Dynamic) Create(ctx context.Context, columns ...*schema.Column) error {
	t := &schema.Table{Name: d.name, Columns: columns}
	if err := t.SetPrimaryKey(d.pk...); err != nil {
		return syphon.NewValidationError("primary key", err)
	}
	query, err := t.CreateStatement()
	if err != nil {
		return syphon.NewMutationError(d.name, "create", err)
	}
	return d.exec(ctx, "create", query)
}

// ColumnNames returns the column names of the table in ordinal position.
func (d *Dynamic) ColumnNames(ctx context.Context) ([]string, error) {
	return d.columns(ctx)
}

// Drop drops the table if it exists.
func (d *Dynamic) Drop(ctx context.Context) error {
	return d.exec(ctx, "drop", schema.DropStatement(d.name))
}

// Select returns the rows matching all filters.
func (d *Dynamic) Select(ctx context.Context, filters []sql.Filter, opts ...sql.SelectOption) ([]map[string]any, error) {
	query, err := sql.BuildSelect(d.name, filters, opts...)
	if err != nil {
		return nil, syphon.NewQueryError(d.name, "select", err)
	}
	return d.queryMaps(ctx, "select", query)
}

// LoadFunction returns the rows of a set-returning function called with args.
//
//	d.LoadFunction(ctx, "odds_between", start, end)
//	// SELECT * FROM odds_between('2024-01-01 00:00:00.000000', ...);
func (d *Dynamic) LoadFunction(ctx context.Context, function string, args ...any) ([]map[string]any, error) {
	query, err := sql.BuildFunctionSelect(function, args...)
	if err != nil {
		return nil, syphon.NewQueryError(function, "function", err)
	}
	return d.queryMaps(ctx, "function", query)
}
