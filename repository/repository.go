// Package repository implements the generic repository: CRUD operations on
// one entity type, bound at construction through an explicit accessor map.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/syssam/depot"
	"github.com/syssam/depot/catalog"
	"github.com/syssam/depot/dialect"
	"github.com/syssam/depot/dialect/sql"
)

type options struct {
	logger *slog.Logger
}

// Option configures a repository.
type Option func(*options)

// WithLogger sets the logger of the repository. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Repository performs CRUD operations on the records of one entity.
// Writes run in their own transaction. It is safe for concurrent use.
type Repository[T any] struct {
	drv     dialect.Driver
	bind    *Binding[T]
	entity  *catalog.Entity
	logger  *slog.Logger
	columns []string
}

// New returns a repository for the bound entity.
func New[T any](drv dialect.Driver, b *Binding[T], opts ...Option) *Repository[T] {
	o := newOptions(opts)
	return &Repository[T]{
		drv:     drv,
		bind:    b,
		entity:  b.Entity(),
		logger:  o.logger.With("entity", b.Entity().Name),
		columns: b.columns(nil),
	}
}

// Entity returns the entity of the repository.
func (r *Repository[T]) Entity() *catalog.Entity {
	return r.entity
}

func (r *Repository[T]) builder() *sql.DialectBuilder {
	return sql.Dialect(r.drv.Dialect())
}

func (r *Repository[T]) selector() *sql.Selector {
	return r.builder().
		Select(r.columns...).
		From(sql.Table(r.entity.Table).Schema(r.entity.Schema))
}

// Save inserts the record and returns it as stored, with the server-assigned
// columns read back. A zero UUID is replaced by a new random one.
func (r *Repository[T]) Save(ctx context.Context, rec *T) (*T, error) {
	if rec == nil {
		return nil, depot.NewInvalidArgumentError(r.entity.Name, "", "nil record")
	}
	out := *rec
	if id := r.bind.uuid(&out); *id == uuid.Nil {
		*id = uuid.New()
	}
	columns := r.bind.columns(insertable)
	insert := r.builder().Insert(r.entity.Table).
		Schema(r.entity.Schema).
		Columns(columns...).
		Values(r.bind.values(&out, columns)...)
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return nil, err
	}
	if dialect.SupportsReturning(r.drv.Dialect()) {
		query, args := insert.Returning(r.columns...).Query()
		err = r.one(ctx, tx, query, args, &out)
	} else {
		query, args := insert.Query()
		if err = tx.Exec(ctx, query, args, nil); err == nil {
			err = r.reload(ctx, tx, &out)
		}
	}
	if err != nil {
		return nil, rollback(tx, translate(r.entity.Name, err, true))
	}
	if err := tx.Commit(); err != nil {
		return nil, translate(r.entity.Name, err, true)
	}
	r.logger.DebugContext(ctx, "entity saved", "uuid", r.bind.UUID(&out))
	return &out, nil
}

// GetByUUID returns the record with the given external identifier.
func (r *Repository[T]) GetByUUID(ctx context.Context, id uuid.UUID) (*T, error) {
	recs, err := r.query(ctx, r.drv, r.selector().Where(sql.EQ(r.entity.UUID, id)))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, depot.NewNotFoundErrorWithField(r.entity.Name, r.entity.UUID, id)
	}
	return recs[0], nil
}

// Get returns the single record matching all filters. It fails with a
// NotFoundError when none matches, and a NotSingularError when several do.
func (r *Repository[T]) Get(ctx context.Context, filters ...Filter) (*T, error) {
	p, err := required(r.entity, filters)
	if err != nil {
		return nil, err
	}
	recs, err := r.query(ctx, r.drv, r.selector().Where(p).Limit(2))
	if err != nil {
		return nil, err
	}
	switch len(recs) {
	case 0:
		if len(filters) == 1 {
			return nil, depot.NewNotFoundErrorWithField(r.entity.Name, filters[0].Field, filters[0].Value)
		}
		return nil, depot.NewNotFoundError(r.entity.Name)
	case 1:
		return recs[0], nil
	default:
		return nil, depot.NewNotSingularError(r.entity.Name, -1)
	}
}

// GetByKey returns the record with the given natural key.
func (r *Repository[T]) GetByKey(ctx context.Context, value any) (*T, error) {
	keys := r.entity.NaturalKeys()
	if len(keys) != 1 {
		return nil, depot.NewInvalidArgumentError(r.entity.Name, "", fmt.Sprintf("expect exactly one natural key, got %d", len(keys)))
	}
	return r.Get(ctx, Eq(keys[0].Name, value))
}

// Find returns the records matching all filters, ordered by id. An empty
// result is not an error.
func (r *Repository[T]) Find(ctx context.Context, filters ...Filter) ([]*T, error) {
	p, err := required(r.entity, filters)
	if err != nil {
		return nil, err
	}
	recs, err := r.query(ctx, r.drv, r.selector().Where(p).OrderBy(r.entity.ID))
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []*T{}
	}
	return recs, nil
}

// GetBatch returns a page of records ordered by id.
func (r *Repository[T]) GetBatch(ctx context.Context, limit, offset int) ([]*T, error) {
	if limit <= 0 {
		return nil, depot.NewInvalidArgumentError(r.entity.Name, "limit", "must be positive")
	}
	if offset < 0 {
		return nil, depot.NewInvalidArgumentError(r.entity.Name, "offset", "must not be negative")
	}
	recs, err := r.query(ctx, r.drv, r.selector().OrderBy(r.entity.ID).Limit(limit).Offset(offset))
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []*T{}
	}
	return recs, nil
}

// Count returns the number of records matching all filters. No filters
// counts every record.
func (r *Repository[T]) Count(ctx context.Context, filters ...Filter) (int, error) {
	p, err := predicate(r.entity, filters)
	if err != nil {
		return 0, err
	}
	query, args := r.builder().
		Select(sql.Count("*")).
		From(sql.Table(r.entity.Table).Schema(r.entity.Schema)).
		Where(p).
		Query()
	rows := &sql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return 0, err
	}
	return sql.ScanInt(rows)
}

// Update writes the mutable columns of the record, located by its UUID, and
// returns it as stored. Nothing is written when the record does not exist.
func (r *Repository[T]) Update(ctx context.Context, rec *T) (*T, error) {
	if rec == nil {
		return nil, depot.NewInvalidArgumentError(r.entity.Name, "", "nil record")
	}
	out := *rec
	id := r.bind.UUID(&out)
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.update(ctx, tx, id, &out); err != nil {
		return nil, rollback(tx, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, translate(r.entity.Name, err, false)
	}
	r.logger.DebugContext(ctx, "entity updated", "uuid", id)
	return &out, nil
}

func (r *Repository[T]) update(ctx context.Context, tx dialect.Tx, id uuid.UUID, out *T) error {
	if err := r.exists(ctx, tx, id); err != nil {
		return err
	}
	columns := r.bind.columns(updatable)
	if len(columns) == 0 {
		return r.reload(ctx, tx, out)
	}
	update := r.builder().Update(r.entity.Table).Schema(r.entity.Schema)
	for i, v := range r.bind.values(out, columns) {
		update.Set(columns[i], v)
	}
	update.Where(sql.EQ(r.entity.UUID, id))
	var err error
	if dialect.SupportsReturning(r.drv.Dialect()) {
		query, args := update.Returning(r.columns...).Query()
		err = r.one(ctx, tx, query, args, out)
	} else {
		query, args := update.Query()
		if err = tx.Exec(ctx, query, args, nil); err == nil {
			err = r.reload(ctx, tx, out)
		}
	}
	return translate(r.entity.Name, err, false)
}

// Delete removes the record with the given UUID. Records still referenced
// through a RESTRICT foreign key fail with a ForeignKeyError.
func (r *Repository[T]) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return err
	}
	if err := r.exists(ctx, tx, id); err != nil {
		return rollback(tx, err)
	}
	query, args := r.builder().Delete(r.entity.Table).
		Schema(r.entity.Schema).
		Where(sql.EQ(r.entity.UUID, id)).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return rollback(tx, translate(r.entity.Name, err, false))
	}
	if err := tx.Commit(); err != nil {
		return translate(r.entity.Name, err, false)
	}
	r.logger.DebugContext(ctx, "entity deleted", "uuid", id)
	return nil
}

// exists locks the row with the given UUID, or returns a NotFoundError.
func (r *Repository[T]) exists(ctx context.Context, tx dialect.Tx, id uuid.UUID) error {
	query, args := r.builder().
		Select(r.entity.ID).
		From(sql.Table(r.entity.Table).Schema(r.entity.Schema)).
		Where(sql.EQ(r.entity.UUID, id)).
		ForUpdate().
		Query()
	rows := &sql.Rows{}
	if err := tx.Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return depot.NewNotFoundErrorWithField(r.entity.Name, r.entity.UUID, id)
	}
	return rows.Close()
}

// reload reads the stored row of out, located by its UUID, into out.
func (r *Repository[T]) reload(ctx context.Context, tx dialect.Tx, out *T) error {
	query, args := r.selector().Where(sql.EQ(r.entity.UUID, r.bind.UUID(out))).Query()
	return r.one(ctx, tx, query, args, out)
}

// one scans the single row returned by the query into out.
func (r *Repository[T]) one(ctx context.Context, q dialect.ExecQuerier, query string, args []any, out *T) error {
	rows := &sql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return depot.NewNotFoundErrorWithField(r.entity.Name, r.entity.UUID, r.bind.UUID(out))
	}
	if err := rows.Scan(r.bind.dests(out, r.columns)...); err != nil {
		return fmt.Errorf("repository: scan %s: %w", r.entity.Name, err)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	return rows.Err()
}

func (r *Repository[T]) query(ctx context.Context, q dialect.ExecQuerier, s *sql.Selector) ([]*T, error) {
	query, args := s.Query()
	rows := &sql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []*T
	for rows.Next() {
		rec := new(T)
		if err := rows.Scan(r.bind.dests(rec, r.columns)...); err != nil {
			return nil, fmt.Errorf("repository: scan %s: %w", r.entity.Name, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
