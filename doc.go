// Package syphon holds the errors shared by the syphon adapters.
//
// Statements are built by the dialect/sql package and run by the adapters:
//
//   - table: Go structs and runtime-named tables in PostgreSQL
//   - document: Go structs as MongoDB documents
//   - config: connection settings from YAML and SYPHON_* variables
//
// Adapter errors wrap the driver errors and can be inspected with the
// Is helpers of this package:
//
//	if err := odds.UpsertRows(ctx, rows...); syphon.IsConstraintError(err) {
//		...
//	}
package syphon
