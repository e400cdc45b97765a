// Package sql provides the database/sql backed driver and the statement
// builders used by the repositories.
//
// # Builder Types
//
//   - Builder: low-level string builder with identifier quoting
//   - Selector: SELECT with joins, predicates and pagination
//   - InsertBuilder: INSERT with RETURNING where the dialect supports it
//   - UpdateBuilder: UPDATE with SET and WHERE clauses
//   - DeleteBuilder: DELETE with WHERE predicates
//
// # Dialect Support
//
// Quoting and placeholders follow the dialect:
//
//	import "github.com/syssam/depot/dialect"
//
//	q, args := sql.Dialect(dialect.Postgres).
//		Select("id", "username").
//		From(sql.Table("users")).
//		Where(sql.EQ("username", "tom")).
//		Query()
//	// SELECT "id", "username" FROM "users" WHERE "username" = $1
//
// # Joins
//
//	sql.Dialect(dialect.SQLite).
//		Select("users.username", "roles.*").
//		From(sql.Table("users")).
//		Join(sql.Table("roles")).On("users.role_uuid", "roles.uuid")
//
// # Drivers
//
// Driver wraps *sql.DB. StatsDriver and DebugDriver decorate any
// dialect.Driver with counters and slog output, and can be stacked.
package sql
