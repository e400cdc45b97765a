package repository

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/syssam/depot/catalog"
)

// Field binds a catalog column to a field of the record type T.
type Field[T any] struct {
	name  string
	value func(*T) any
	dest  func(*T) any
}

// Column returns the binding of the named column to the field returned by
// ptr. The pointer doubles as the scan destination, so V must be a type
// database/sql can scan into and pass as an argument.
//
//	repository.Column("username", func(u *User) *string { return &u.Username })
func Column[T, V any](name string, ptr func(*T) *V) Field[T] {
	return Field[T]{
		name:  name,
		value: func(t *T) any { return *ptr(t) },
		dest:  func(t *T) any { return ptr(t) },
	}
}

// Name returns the column name of the field.
func (f Field[T]) Name() string {
	return f.name
}

// Binding is the accessor map between an entity and its record type. It is
// built once and read concurrently.
type Binding[T any] struct {
	entity *catalog.Entity
	fields map[string]Field[T]
	uuid   func(*T) *uuid.UUID
}

// Bind returns the binding of e to T. Every column of the entity needs
// exactly one field and every field must name a column. The UUID column
// must be bound to a uuid.UUID field.
func Bind[T any](e *catalog.Entity, fields ...Field[T]) (*Binding[T], error) {
	if e == nil {
		return nil, fmt.Errorf("repository: bind: nil entity")
	}
	b := &Binding[T]{entity: e, fields: make(map[string]Field[T], len(fields))}
	for _, f := range fields {
		if !e.HasColumn(f.name) {
			return nil, fmt.Errorf("repository: bind %s: unknown column %q", e.Name, f.name)
		}
		if _, ok := b.fields[f.name]; ok {
			return nil, fmt.Errorf("repository: bind %s: column %q bound twice", e.Name, f.name)
		}
		b.fields[f.name] = f
	}
	for _, c := range e.ColumnNames() {
		if _, ok := b.fields[c]; !ok {
			return nil, fmt.Errorf("repository: bind %s: column %q is not bound", e.Name, c)
		}
	}
	dest := b.fields[e.UUID].dest
	if _, ok := dest(new(T)).(*uuid.UUID); !ok {
		return nil, fmt.Errorf("repository: bind %s: uuid column %q must be bound to a uuid.UUID field", e.Name, e.UUID)
	}
	b.uuid = func(t *T) *uuid.UUID { return dest(t).(*uuid.UUID) }
	return b, nil
}

// MustBind is like Bind but panics on error.
func MustBind[T any](e *catalog.Entity, fields ...Field[T]) *Binding[T] {
	b, err := Bind(e, fields...)
	if err != nil {
		panic(err)
	}
	return b
}

// Entity returns the bound entity.
func (b *Binding[T]) Entity() *catalog.Entity {
	return b.entity
}

// UUID returns the external identifier of the record.
func (b *Binding[T]) UUID(t *T) uuid.UUID {
	return *b.uuid(t)
}

// Value returns the value of the given column of the record.
func (b *Binding[T]) Value(t *T, column string) (any, bool) {
	f, ok := b.fields[column]
	if !ok {
		return nil, false
	}
	return f.value(t), true
}

// columns returns the entity columns matching the filter, in declaration order.
func (b *Binding[T]) columns(keep func(*catalog.Column) bool) []string {
	var names []string
	for _, c := range b.entity.Columns {
		if keep == nil || keep(c) {
			names = append(names, c.Name)
		}
	}
	return names
}

func (b *Binding[T]) values(t *T, columns []string) []any {
	vs := make([]any, len(columns))
	for i, c := range columns {
		vs[i] = b.fields[c].value(t)
	}
	return vs
}

func (b *Binding[T]) dests(t *T, columns []string) []any {
	ds := make([]any, len(columns))
	for i, c := range columns {
		ds[i] = b.fields[c].dest(t)
	}
	return ds
}

// insertable reports whether a column is written by inserts.
func insertable(c *catalog.Column) bool {
	return !c.ServerDefault
}

// updatable reports whether a column is written by updates.
func updatable(c *catalog.Column) bool {
	return !c.ServerDefault && !c.Immutable
}
