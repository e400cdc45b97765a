package sqlgraph

import (
	"strings"

	"github.com/syssam/depot"
	"github.com/syssam/depot/catalog"
	"github.com/syssam/depot/dialect/sql"
	"github.com/syssam/depot/dialect/sql/schema"
)

// Condition is an equality predicate on a field of a path entity.
type Condition struct {
	entity *catalog.Entity
	field  string
	value  any
}

// Where returns the condition "entity.field = value". It is validated
// against the catalog when the join is built.
func Where(e *catalog.Entity, field string, value any) *Condition {
	return &Condition{entity: e, field: field, value: value}
}

// Join builds inner-join statements over a validated path.
type Join struct {
	path    *Path
	dialect string
}

// NewJoin returns a join builder for the given dialect.
func NewJoin(d string, p *Path) *Join {
	return &Join{path: p, dialect: d}
}

// Build returns the SELECT statement joining the path tables.
//
// The first table is the FROM table. The rest are attached in path order,
// each through the edge connecting it to its predecessor, so fan-out joins
// attach every table through its own edge. Each JOIN equates the
// constrained column of the holder with the referred column.
//
// Columns must be qualified ("users.username"), and "users.*" selects all
// catalog columns of the table. No columns selects every column of every
// table. The selected columns are expanded in the returned selector, as
// reported by SelectedColumns.
func (j *Join) Build(columns []string, conds ...*Condition) (*sql.Selector, error) {
	p := j.path
	selected, err := j.columns(columns)
	if err != nil {
		return nil, err
	}
	first := p.entities[0]
	s := sql.Dialect(j.dialect).
		Select(selected...).
		From(sql.Table(first.Table).Schema(first.Schema))
	for _, e := range p.walk() {
		s.Join(sql.Table(e.to.Table).Schema(e.to.Schema)).
			On(e.fk.Table.Name+"."+e.fk.Column, e.fk.RefTable.Name+"."+e.fk.RefColumn)
	}
	preds := make([]*sql.Predicate, 0, len(conds))
	for _, c := range conds {
		if c == nil {
			continue
		}
		pred, err := j.predicate(c)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	if len(preds) > 0 {
		s.Where(sql.And(preds...))
	}
	return s, nil
}

type step struct {
	to *catalog.Entity
	fk *schema.ForeignKey
}

// walk returns the attachment order of the tables following the first.
// Each table is attached through the edge of the pair that validated it,
// never through an edge to a non-adjacent table of the path.
func (p *Path) walk() []step {
	steps := make([]step, 0, len(p.entities)-1)
	for i := 1; i < len(p.entities); i++ {
		fk, _ := p.snap.Between(p.keys[i-1], p.keys[i])
		steps = append(steps, step{to: p.entities[i], fk: fk})
	}
	return steps
}

func (j *Join) columns(columns []string) ([]string, error) {
	if len(columns) == 0 {
		for _, e := range j.path.entities {
			columns = append(columns, e.Table+".*")
		}
	}
	selected := make([]string, 0, len(columns))
	for _, c := range columns {
		i := strings.LastIndexByte(c, '.')
		if i <= 0 || i == len(c)-1 {
			return nil, depot.NewInvalidArgumentError("Join", c, "column must be qualified with its table")
		}
		table, name := c[:i], c[i+1:]
		e, ok := j.path.entity(table)
		if !ok {
			return nil, depot.NewInvalidArgumentError("Join", c, "table "+table+" is not part of the path")
		}
		if name == "*" {
			for _, col := range e.ColumnNames() {
				selected = append(selected, e.Table+"."+col)
			}
			continue
		}
		if !e.HasColumn(name) {
			return nil, depot.NewInvalidArgumentError(e.Name, name, "unknown field")
		}
		selected = append(selected, e.Table+"."+name)
	}
	return selected, nil
}

func (j *Join) predicate(c *Condition) (*sql.Predicate, error) {
	if c.entity == nil {
		return nil, depot.NewInvalidArgumentError("Join", c.field, "condition without entity")
	}
	e, ok := j.path.entity(c.entity.Table)
	if !ok || e.Schema != c.entity.Schema {
		return nil, depot.NewInvalidArgumentError(c.entity.Name, c.field, "entity is not part of the path")
	}
	if !e.HasColumn(c.field) {
		return nil, depot.NewInvalidArgumentError(e.Name, c.field, "unknown field")
	}
	return sql.EQ(e.Table+"."+c.field, c.value), nil
}
