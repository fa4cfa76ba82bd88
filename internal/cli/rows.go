package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/syphon/dialect/sql"
)

// readRowsFile reads rows from path, or from stdin when path is "-".
func readRowsFile(path string, stdin io.Reader) ([]*sql.Row, error) {
	if path == "-" {
		return readRows(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readRows(f)
}

// readRows reads a YAML or JSON mapping, or a sequence of mappings, as rows.
// Columns keep the key order of the input.
func readRows(r io.Reader) ([]*sql.Row, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("parse rows: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	var nodes []*yaml.Node
	switch root.Kind {
	case yaml.MappingNode:
		nodes = []*yaml.Node{root}
	case yaml.SequenceNode:
		nodes = root.Content
	default:
		return nil, fmt.Errorf("line %d: expected a mapping or a sequence of mappings", root.Line)
	}
	rows := make([]*sql.Row, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: row is not a mapping", n.Line)
		}
		row := sql.NewRow()
		for i := 0; i+1 < len(n.Content); i += 2 {
			var v any
			if err := n.Content[i+1].Decode(&v); err != nil {
				return nil, fmt.Errorf("line %d: %w", n.Content[i+1].Line, err)
			}
			row.Set(n.Content[i].Value, v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseValue parses a flag or argument value as a YAML scalar, so that
// 42 is an integer, true a boolean and null a NULL.
func parseValue(s string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("parse value %q: %w", s, err)
	}
	return v, nil
}

// parseFilter parses "column=value" as an equality filter.
func parseFilter(s string) (sql.Filter, error) {
	column, value, ok := strings.Cut(s, "=")
	if !ok || column == "" {
		return sql.Filter{}, fmt.Errorf("filter %q: expected column=value", s)
	}
	v, err := parseValue(value)
	if err != nil {
		return sql.Filter{}, err
	}
	if v == nil {
		return sql.IsNull(column), nil
	}
	return sql.EQ(column, v), nil
}

// parseColumn parses "name:type" or "name:type:notnull" as a column definition.
func parseColumn(s string) (name, typ string, notNull bool, err error) {
	parts := strings.Split(s, ":")
	switch {
	case len(parts) == 2:
	case len(parts) == 3 && parts[2] == "notnull":
		notNull = true
	default:
		return "", "", false, fmt.Errorf("column %q: expected name:type or name:type:notnull", s)
	}
	if parts[0] == "" || parts[1] == "" {
		return "", "", false, fmt.Errorf("column %q: expected name:type or name:type:notnull", s)
	}
	return parts[0], parts[1], notNull, nil
}
