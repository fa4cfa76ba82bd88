// Package schema describes tables created at runtime and renders the DDL and
// catalog queries used to create, inspect and drop them.
package schema

import (
	"fmt"
	"strings"

	"github.com/syssam/syphon/dialect"
	"github.com/syssam/syphon/dialect/sql"
)

// Column is a table column. Type is a SQL type written verbatim, e.g. "integer[]".
// Columns accept null unless NotNull is set.
type Column struct {
	Name    string
	Type    string
	NotNull bool
	Default any
}

// Table is a table definition.
type Table struct {
	Name       string
	Columns    []*Column
	PrimaryKey []*Column
}

// NewTable returns a new table with the given name.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumn appends a column to the table.
func (t *Table) AddColumn(c *Column) *Table {
	t.Columns = append(t.Columns, c)
	return t
}

// AddPrimary appends a column to the table and to its primary key.
func (t *Table) AddPrimary(c *Column) *Table {
	t.PrimaryKey = append(t.PrimaryKey, c)
	return t.AddColumn(c)
}

// SetPrimaryKey sets the primary key from existing column names.
func (t *Table) SetPrimaryKey(names ...string) error {
	pk := make([]*Column, 0, len(names))
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return fmt.Errorf("schema: primary key column %q not found in table %q", name, t.Name)
		}
		pk = append(pk, c)
	}
	t.PrimaryKey = pk
	return nil
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Key returns the primary key as a sql.PrimaryKey.
func (t *Table) Key() sql.PrimaryKey {
	pk := make(sql.PrimaryKey, len(t.PrimaryKey))
	for i, c := range t.PrimaryKey {
		pk[i] = c.Name
	}
	return pk
}

// CreateStatement returns the CREATE TABLE statement of t:
//
//	CREATE TABLE odds (
//	  id integer NOT NULL,
//	  price real,
//	  PRIMARY KEY (id)
//	);
func (t *Table) CreateStatement() (string, error) {
	if res := ValidateTable(t); res.HasErrors() {
		return "", res.Errors[0]
	}
	lines := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		def, err := c.definition()
		if err != nil {
			return "", fmt.Errorf("schema: table %q: %w", t.Name, err)
		}
		lines = append(lines, "  "+def)
	}
	if len(t.PrimaryKey) > 0 {
		lines = append(lines, "  PRIMARY KEY ("+t.Key().String()+")")
	}
	return "CREATE TABLE " + t.Name + " (\n" + strings.Join(lines, ",\n") + "\n);", nil
}

// DropStatement returns the DROP TABLE statement of t.
func (t *Table) DropStatement() string {
	return DropStatement(t.Name)
}

func (c *Column) definition() (string, error) {
	def := c.Name + " " + c.Type
	if c.NotNull {
		def += " NOT NULL"
	}
	if c.Default != nil {
		v, err := sql.Encode(c.Default)
		if err != nil {
			return "", fmt.Errorf("column %q default: %w", c.Name, err)
		}
		def += " DEFAULT " + v
	}
	return def, nil
}

// DropStatement returns a DROP TABLE IF EXISTS statement.
func DropStatement(table string) string {
	return "DROP TABLE IF EXISTS " + table + ";"
}

// ExistsQuery returns a query selecting a single boolean that reports
// whether the table exists. PostgreSQL tables are looked up in the public schema.
func ExistsQuery(d, table string) (string, error) {
	name, err := sql.Encode(table)
	if err != nil {
		return "", err
	}
	switch d {
	case dialect.Postgres:
		return "SELECT EXISTS (\n" +
			"  SELECT FROM information_schema.tables\n" +
			"  WHERE table_schema = 'public'\n" +
			"  AND table_name = " + name + "\n" +
			");", nil
	case dialect.SQLite:
		return "SELECT EXISTS (\n" +
			"  SELECT 1 FROM sqlite_master\n" +
			"  WHERE type = 'table'\n" +
			"  AND name = " + name + "\n" +
			");", nil
	}
	return "", fmt.Errorf("schema: unsupported dialect %q", d)
}

// ColumnsQuery returns a query selecting the column names of the table in
// their ordinal position.
func ColumnsQuery(d, table string) (string, error) {
	name, err := sql.Encode(table)
	if err != nil {
		return "", err
	}
	switch d {
	case dialect.Postgres:
		return "SELECT column_name\n" +
			"FROM information_schema.columns\n" +
			"WHERE table_name = " + name + "\n" +
			"ORDER BY ordinal_position;", nil
	case dialect.SQLite:
		return "SELECT name FROM pragma_table_info(" + name + ") ORDER BY cid;", nil
	}
	return "", fmt.Errorf("schema: unsupported dialect %q", d)
}
