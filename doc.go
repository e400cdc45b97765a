// Package depot is a relational data-access layer built around an entity
// catalog. It provides a generic CRUD repository per entity, a foreign-key
// reflector with a process-wide cache, join-path validation and a join query
// builder driven by the reflected foreign keys.
//
// This package holds the error taxonomy shared by every layer. Callers match
// errors with errors.Is against the sentinels, or with the Is* helpers:
//
//	u, err := users.GetByKey(ctx, "tom")
//	if depot.IsNotFound(err) {
//		...
//	}
//
// The subpackages are:
//
//	catalog             entity and column declarations
//	dialect/sql         drivers, statement builders and scanning helpers
//	dialect/sql/schema  foreign-key reflection and drift validation
//	dialect/sql/sqlgraph join paths, join queries and constraint classification
//	repository          the CRUD and join repositories
//	config              configuration loading and connection setup
package depot
