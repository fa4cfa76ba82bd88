// Package sql renders PostgreSQL statements from Go values and runs them
// through database/sql.
//
// # Value Encoding
//
// Encode turns a Go value into a SQL literal:
//
//	sql.Encode(nil)                     // null
//	sql.Encode("it's")                  // 'it''s'
//	sql.Encode(time.Date(...))          // '2024-01-02 03:04:05.000000'
//	sql.Encode([]byte{0xde, 0xad})      // '\xdead'::bytea
//	sql.Encode(sql.IntArray{1, 2, 3})   // ARRAY[1, 2, 3]
//	sql.Encode(sql.VarcharArray{})      // ARRAY[]::varchar[]
//
// Only values are escaped. Table and column names are written verbatim and
// must come from trusted code.
//
// # Statements
//
// Rows are ordered column/value lists:
//
//	row := sql.NewRow().Set("id", 1).Set("name", "a8m")
//
//	sql.BuildUpsert("users", []*sql.Row{row}, sql.Key("id"))
//	// INSERT INTO users (id, name)
//	// VALUES
//	//   (1, 'a8m')
//	// ON CONFLICT (id)
//	// DO UPDATE SET name = EXCLUDED.name;
//
//	sql.BuildInsertIfAbsent("users", row, sql.Key("id"))
//	sql.BuildInsertManyIfAbsent("users", rows, sql.Key("id"))
//	sql.BuildUpdate("users", row, sql.Key("id"))
//
// Selects take a list of filters joined with AND:
//
//	sql.BuildSelect("users",
//	    []sql.Filter{sql.GT("age", 18), sql.EQ("status", "active")},
//	    sql.OrderBy("id"), sql.Limit(5),
//	)
//	// SELECT * FROM users
//	// WHERE age > 18 AND status = 'active'
//	// ORDER BY id ASC
//	// LIMIT 5;
//
// # Execution
//
// Driver wraps a *sql.DB opened with the "pgx" or "postgres" driver.
// StatsDriver and DebugDriver wrap a Driver with statistics and
// statement logging.
package sql
