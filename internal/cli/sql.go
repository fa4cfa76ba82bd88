package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/syphon/dialect/sql"
)

func newSQLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print statements without running them",
	}
	cmd.AddCommand(newSQLUpsertCmd())
	cmd.AddCommand(newSQLInsertCmd())
	cmd.AddCommand(newSQLUpdateCmd())
	cmd.AddCommand(newSQLSelectCmd())
	cmd.AddCommand(newSQLFunctionCmd())
	return cmd
}

func newSQLUpsertCmd() *cobra.Command {
	var key []string
	cmd := &cobra.Command{
		Use:   "upsert TABLE FILE",
		Short: "Print an upsert of the rows in FILE (- for stdin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRowsFile(args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}
			stmt, err := sql.BuildUpsert(args[0], rows, sql.Key(key...))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), stmt)
			return err
		},
	}
	cmd.Flags().StringSliceVarP(&key, "key", "k", nil, "Primary key columns")
	return cmd
}

func newSQLInsertCmd() *cobra.Command {
	var key []string
	cmd := &cobra.Command{
		Use:   "insert TABLE FILE",
		Short: "Print an insert of the rows in FILE that skips existing keys",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRowsFile(args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}
			var stmt string
			if len(rows) == 1 {
				stmt, err = sql.BuildInsertIfAbsent(args[0], rows[0], sql.Key(key...))
			} else {
				stmt, err = sql.BuildInsertManyIfAbsent(args[0], rows, sql.Key(key...))
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), stmt)
			return err
		},
	}
	cmd.Flags().StringSliceVarP(&key, "key", "k", nil, "Primary key columns")
	return cmd
}

func newSQLUpdateCmd() *cobra.Command {
	var key []string
	cmd := &cobra.Command{
		Use:   "update TABLE FILE",
		Short: "Print one update per row in FILE, matched on the key columns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRowsFile(args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}
			for _, row := range rows {
				stmt, err := sql.BuildUpdate(args[0], row, sql.Key(key...))
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), stmt); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&key, "key", "k", nil, "Primary key columns")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newSQLSelectCmd() *cobra.Command {
	var (
		eq      []string
		where   []string
		columns []string
		orderBy []string
		desc    bool
		limit   int
		offset  int
	)
	cmd := &cobra.Command{
		Use:   "select TABLE",
		Short: "Print a select",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := make([]sql.Filter, 0, len(eq))
			for _, s := range eq {
				f, err := parseFilter(s)
				if err != nil {
					return err
				}
				filters = append(filters, f)
			}
			opts := []sql.SelectOption{sql.Columns(columns...), sql.OrderBy(orderBy...)}
			for _, w := range where {
				opts = append(opts, sql.WhereRaw(w))
			}
			if desc {
				opts = append(opts, sql.Desc())
			}
			if cmd.Flags().Changed("limit") {
				opts = append(opts, sql.Limit(limit))
			}
			if cmd.Flags().Changed("offset") {
				opts = append(opts, sql.Offset(offset))
			}
			stmt, err := sql.BuildSelect(args[0], filters, opts...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), stmt)
			return err
		},
	}
	cmd.Flags().StringArrayVar(&eq, "eq", nil, "Equality filter column=value (repeatable)")
	cmd.Flags().StringArrayVar(&where, "where", nil, "Raw SQL condition (repeatable)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to select")
	cmd.Flags().StringSliceVar(&orderBy, "order-by", nil, "Columns to order by")
	cmd.Flags().BoolVar(&desc, "desc", false, "Order descending")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of rows to skip")
	return cmd
}

func newSQLFunctionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "function NAME [ARG...]",
		Short: "Print a select over a set-returning function",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]any, 0, len(args)-1)
			for _, a := range args[1:] {
				v, err := parseValue(a)
				if err != nil {
					return err
				}
				values = append(values, v)
			}
			stmt, err := sql.BuildFunctionSelect(args[0], values...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), stmt)
			return err
		},
	}
}
