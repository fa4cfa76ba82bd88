// Package cli implements the syphon command line.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/syssam/syphon/config"
	"github.com/syssam/syphon/dialect"
	"github.com/syssam/syphon/dialect/sql"
	"github.com/syssam/syphon/internal/logging"
)

// options holds the persistent flags and the database opener.
type options struct {
	configPath string
	logLevel   string
	logQueries bool
	open       func(config.Postgres) (dialect.Driver, error)
}

func openPostgres(pg config.Postgres) (dialect.Driver, error) {
	if err := pg.Validate(); err != nil {
		return nil, err
	}
	return sql.Open(pg.Driver, pg.DSN())
}

// NewRootCmd returns the syphon root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{open: openPostgres})
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "syphon",
		Short: "Render and run PostgreSQL upserts from row files",
		Long: `Syphon renders INSERT ... ON CONFLICT, UPDATE and SELECT statements
from YAML or JSON row files and runs them against the configured database.

The "sql" commands print statements without connecting. The "table" commands
connect with the settings of --config and the SYPHON_* environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (overrides the config file)")
	cmd.PersistentFlags().BoolVar(&opts.logQueries, "log-queries", false, "Log every statement before it runs")

	cmd.AddCommand(newSQLCmd())
	cmd.AddCommand(newTableCmd(opts))
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// load reads the configuration and builds the command logger.
func (o *options) load(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	logger := logging.NewWithComponent(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	}, "cli")
	return cfg, logger, nil
}
