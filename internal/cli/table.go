package cli

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/syssam/syphon/dialect/sql"
	"github.com/syssam/syphon/dialect/sql/schema"
	"github.com/syssam/syphon/table"
)

func newTableCmd(opts *options) *cobra.Command {
	var (
		key   []string
		stats bool
	)
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Inspect and write tables of the configured database",
	}
	cmd.PersistentFlags().StringSliceVarP(&key, "key", "k", nil, "Primary key columns")
	cmd.PersistentFlags().BoolVar(&stats, "stats", false, "Log statement statistics when done")

	// run opens the named table, runs fn and closes the connection.
	run := func(cmd *cobra.Command, name string, fn func(*table.Dynamic, zerolog.Logger) error) (rerr error) {
		cfg, logger, err := opts.load(cmd)
		if err != nil {
			return err
		}
		drv, err := opts.open(cfg.Postgres)
		if err != nil {
			return err
		}
		defer func() {
			if err := drv.Close(); err != nil && rerr == nil {
				rerr = err
			}
		}()
		var qs *sql.QueryStats
		if stats {
			qs = &sql.QueryStats{}
		}
		d, err := table.NewDynamic(drv, table.DynamicConfig{
			Name:             name,
			PrimaryKey:       sql.Key(key...),
			LogQueries:       opts.logQueries || cfg.Postgres.LogQueries,
			StatementTimeout: cfg.Postgres.StatementTimeout,
			Stats:            qs,
			Logger:           logger,
		})
		if err != nil {
			return err
		}
		if err := fn(d, logger); err != nil {
			return err
		}
		if qs != nil {
			logger.Info().Str("table", name).Object("stats", qs.Stats()).Msg("sql stats")
		}
		return nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "exists TABLE",
		Short: "Print whether the table exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], func(d *table.Dynamic, _ zerolog.Logger) error {
				ok, err := d.Exists(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(ok))
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "columns TABLE",
		Short: "Print the table columns in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], func(d *table.Dynamic, _ zerolog.Logger) error {
				columns, err := d.ColumnNames(cmd.Context())
				if err != nil {
					return err
				}
				for _, c := range columns {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), c); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})

	var columns []string
	create := &cobra.Command{
		Use:   "create TABLE",
		Short: "Create the table with the given columns, keyed by --key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := make([]*schema.Column, 0, len(columns))
			for _, s := range columns {
				name, typ, notNull, err := parseColumn(s)
				if err != nil {
					return err
				}
				defs = append(defs, &schema.Column{Name: name, Type: typ, NotNull: notNull})
			}
			return run(cmd, args[0], func(d *table.Dynamic, logger zerolog.Logger) error {
				if err := d.Create(cmd.Context(), defs...); err != nil {
					return err
				}
				logger.Info().Str("table", d.Name()).Int("columns", len(defs)).Msg("created table")
				return nil
			})
		},
	}
	create.Flags().StringArrayVar(&columns, "column", nil, "Column as name:type or name:type:notnull (repeatable)")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "drop TABLE",
		Short: "Drop the table if it exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], func(d *table.Dynamic, logger zerolog.Logger) error {
				if err := d.Drop(cmd.Context()); err != nil {
					return err
				}
				logger.Info().Str("table", d.Name()).Msg("dropped table")
				return nil
			})
		},
	})

	var skipExisting bool
	apply := &cobra.Command{
		Use:   "apply TABLE FILE",
		Short: "Upsert the rows in FILE (- for stdin) into the table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRowsFile(args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}
			return run(cmd, args[0], func(d *table.Dynamic, logger zerolog.Logger) error {
				if skipExisting {
					err = d.InsertManyIfAbsent(cmd.Context(), rows...)
				} else {
					err = d.UpsertRows(cmd.Context(), rows...)
				}
				if err != nil {
					return err
				}
				logger.Info().Str("table", d.Name()).Int("rows", len(rows)).Msg("applied rows")
				return nil
			})
		},
	}
	apply.Flags().BoolVar(&skipExisting, "skip-existing", false, "Leave rows with existing keys untouched")
	cmd.AddCommand(apply)

	return cmd
}
