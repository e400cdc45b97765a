package repository

import (
	"context"
	"log/slog"

	"github.com/syssam/depot/catalog"
	"github.com/syssam/depot/dialect"
	"github.com/syssam/depot/dialect/sql"
	"github.com/syssam/depot/dialect/sql/schema"
	"github.com/syssam/depot/dialect/sql/sqlgraph"
)

// Row is a raw joined row keyed by the qualified column name, e.g.
// "users.username".
type Row map[string]any

// JoinRepository runs inner-join queries over a validated path of entities.
type JoinRepository struct {
	drv    dialect.Driver
	path   *sqlgraph.Path
	join   *sqlgraph.Join
	logger *slog.Logger
}

// NewJoin reflects the foreign keys among the entities and validates their
// order. Reflection errors are returned as is; path errors are domain errors.
func NewJoin(ctx context.Context, drv dialect.Driver, r *schema.Reflector, entities []*catalog.Entity, opts ...Option) (*JoinRepository, error) {
	snap, err := r.Reflect(ctx, entities...)
	if err != nil {
		return nil, err
	}
	path, err := sqlgraph.NewPath(snap, entities...)
	if err != nil {
		return nil, err
	}
	return &JoinRepository{
		drv:    drv,
		path:   path,
		join:   sqlgraph.NewJoin(drv.Dialect(), path),
		logger: newOptions(opts).logger,
	}, nil
}

// Path returns the validated path.
func (j *JoinRepository) Path() *sqlgraph.Path {
	return j.path
}

// Query selects the given qualified columns ("users.username", "roles.*")
// from the joined tables, filtered by the conditions.
//
//	rows, err := jr.Query(ctx, []string{"users.username", "roles.rolename"},
//		sqlgraph.Where(users, "username", "tom"))
func (j *JoinRepository) Query(ctx context.Context, columns []string, conds ...*sqlgraph.Condition) ([]Row, error) {
	s, err := j.join.Build(columns, conds...)
	if err != nil {
		return nil, err
	}
	query, args := s.Query()
	j.logger.DebugContext(ctx, "join query", "path", j.path.String(), "sql", query)
	rows := &sql.Rows{}
	if err := j.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	maps, err := sql.ScanMaps(rows, s.SelectedColumns()...)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(maps))
	for i, m := range maps {
		out[i] = m
	}
	return out, nil
}
