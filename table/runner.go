package table

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/syssam/syphon"
	"github.com/syssam/syphon/dialect"
	"github.com/syssam/syphon/dialect/sql"
	"github.com/syssam/syphon/dialect/sql/schema"
)

// runner executes generated statements against one table.
// Every statement runs once, on its own, under auto-commit.
type runner struct {
	drv     dialect.Driver
	name    string
	timeout string
	logger  zerolog.Logger
}

type runnerConfig struct {
	logQueries       bool
	statementTimeout string
	stats            *sql.QueryStats
	logger           zerolog.Logger
}

func newRunner(drv dialect.Driver, name string, cfg runnerConfig) (runner, error) {
	logger := cfg.logger.With().Str("table", name).Logger()
	if cfg.stats != nil {
		d, ok := drv.(*sql.Driver)
		if !ok {
			return runner{}, syphon.NewValidationError("stats", fmt.Errorf("driver %T does not collect statistics", drv))
		}
		drv = sql.NewStatsDriver(d, sql.WithQueryStats(cfg.stats), sql.WithSlowQueryLog(logger))
	}
	if cfg.logQueries {
		drv = sql.NewDebugDriver(drv, logger)
	}
	return runner{drv: drv, name: name, timeout: cfg.statementTimeout, logger: logger}, nil
}

// session attaches the statement timeout, if any, to ctx.
func (r runner) session(ctx context.Context) context.Context {
	if r.timeout == "" {
		return ctx
	}
	return sql.WithVar(ctx, "statement_timeout", r.timeout)
}

// exec runs a write statement.
func (r runner) exec(ctx context.Context, op, query string) error {
	if err := r.drv.Exec(r.session(ctx), query, []any{}, nil); err != nil {
		return syphon.NewMutationError(r.name, op, r.classify(query, err))
	}
	return nil
}

// query runs a read statement and hands the open rows to scan.
func (r runner) query(ctx context.Context, op, query string, scan func(*sql.Rows) error) error {
	rows := &sql.Rows{}
	if err := r.drv.Query(r.session(ctx), query, []any{}, rows); err != nil {
		return syphon.NewQueryError(r.name, op, r.classify(query, err))
	}
	defer rows.Close()
	if err := scan(rows); err != nil {
		return syphon.NewQueryError(r.name, op, err)
	}
	return nil
}

// queryMaps runs a read statement and returns its rows as maps.
func (r runner) queryMaps(ctx context.Context, op, query string) ([]map[string]any, error) {
	var result []map[string]any
	err := r.query(ctx, op, query, func(rows *sql.Rows) (err error) {
		result, err = sql.ScanMaps(rows)
		return err
	})
	return result, err
}

// classify logs numeric overflows with the statement that caused them and
// marks constraint violations.
func (r runner) classify(query string, err error) error {
	switch {
	case sql.IsNumericOutOfRange(err):
		r.logger.Error().Err(err).Str("query", query).Msg("numeric value out of range")
	case sql.IsConstraintError(err):
		return syphon.NewConstraintError(err.Error(), err)
	}
	return err
}

// columns returns the column names of the table in ordinal position.
func (r runner) columns(ctx context.Context) ([]string, error) {
	query, err := schema.ColumnsQuery(r.drv.Dialect(), r.name)
	if err != nil {
		return nil, err
	}
	var names []string
	err = r.query(ctx, "columns", query, func(rows *sql.Rows) (err error) {
		names, err = sql.ScanStrings(rows)
		return err
	})
	return names, err
}

// exists reports whether the table exists.
func (r runner) exists(ctx context.Context) (bool, error) {
	query, err := schema.ExistsQuery(r.drv.Dialect(), r.name)
	if err != nil {
		return false, err
	}
	var ok bool
	err = r.query(ctx, "exists", query, func(rows *sql.Rows) error {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return err
			}
			return errors.New("exists query returned no rows")
		}
		return rows.Scan(&ok)
	})
	return ok, err
}
