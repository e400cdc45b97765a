package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/depot/dialect"
)

// Querier wraps the basic Query method that is implemented
// by the different builders in this file.
type Querier interface {
	// Query returns the query representation of the element
	// and its arguments (if any).
	Query() (string, []any)
}

// Builder is the base query builder for the sql dsl. It writes identifiers
// quoted for its dialect and collects arguments with the matching
// placeholder style.
type Builder struct {
	sb      strings.Builder
	dialect string
	args    []any
}

// Quote quotes the given identifier with the characters based
// on the configured dialect.
func (b *Builder) Quote(ident string) string {
	q := `"`
	if b.dialect == dialect.MySQL {
		q = "`"
	}
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// Ident appends the given string as an identifier. Qualified names
// ("table.column") are quoted part by part, "*" and "table.*" keep the star
// and function calls such as COUNT(*) are written as is.
func (b *Builder) Ident(s string) *Builder {
	switch {
	case s == "*":
		b.sb.WriteString(s)
	case strings.ContainsAny(s, "()"):
		b.sb.WriteString(s)
	default:
		parts := strings.Split(s, ".")
		for i, p := range parts {
			if i > 0 {
				b.sb.WriteByte('.')
			}
			if p == "*" {
				b.sb.WriteString(p)
				continue
			}
			b.sb.WriteString(b.Quote(p))
		}
	}
	return b
}

// IdentComma calls Ident on all arguments and adds a comma between them.
func (b *Builder) IdentComma(s ...string) *Builder {
	for i := range s {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.Ident(s[i])
	}
	return b
}

// WriteString appends the given string to the statement.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Arg appends an input argument to the builder and writes its placeholder.
func (b *Builder) Arg(a any) *Builder {
	b.args = append(b.args, a)
	if b.dialect == dialect.Postgres {
		b.sb.WriteString("$" + strconv.Itoa(len(b.args)))
	} else {
		b.sb.WriteByte('?')
	}
	return b
}

// Query returns the statement and its arguments.
func (b *Builder) Query() (string, []any) {
	return b.sb.String(), b.args
}

// DialectBuilder prefixes all root builders with the Dialect method.
type DialectBuilder struct {
	dialect string
}

// Dialect creates a new DialectBuilder with the given dialect name.
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect: name}
}

// Select creates a Selector for the configured dialect.
func (d *DialectBuilder) Select(columns ...string) *Selector {
	return &Selector{dialect: d.dialect, columns: columns}
}

// Insert creates an InsertBuilder for the configured dialect.
func (d *DialectBuilder) Insert(table string) *InsertBuilder {
	return &InsertBuilder{dialect: d.dialect, table: table}
}

// Update creates an UpdateBuilder for the configured dialect.
func (d *DialectBuilder) Update(table string) *UpdateBuilder {
	return &UpdateBuilder{dialect: d.dialect, table: table}
}

// Delete creates a DeleteBuilder for the configured dialect.
func (d *DialectBuilder) Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{dialect: d.dialect, table: table}
}

// Select returns a new Selector without a dialect.
func Select(columns ...string) *Selector {
	return &Selector{columns: columns}
}

// SelectTable is a table reference used in FROM and JOIN clauses.
type SelectTable struct {
	name   string
	schema string
	as     string
}

// Table returns a new table selector.
//
//	t1 := Table("users").As("u")
//	return Select(t1.C("name"))
func Table(name string) *SelectTable {
	return &SelectTable{name: name}
}

// Schema sets the schema name of the table.
func (s *SelectTable) Schema(name string) *SelectTable {
	s.schema = name
	return s
}

// As adds the AS clause to the table selector.
func (s *SelectTable) As(alias string) *SelectTable {
	s.as = alias
	return s
}

// Name returns the table name.
func (s *SelectTable) Name() string {
	return s.name
}

// C returns a formatted string for the table column.
func (s *SelectTable) C(column string) string {
	name := s.name
	if s.as != "" {
		name = s.as
	}
	return name + "." + column
}

func (s *SelectTable) write(b *Builder) {
	if s.schema != "" {
		b.Ident(s.schema).WriteString(".")
	}
	b.WriteString(b.Quote(s.name))
	if s.as != "" {
		b.WriteString(" AS ").WriteString(b.Quote(s.as))
	}
}

type join struct {
	table *SelectTable
	on    *Predicate
}

// Selector is a builder for the `SELECT` statement.
type Selector struct {
	dialect   string
	columns   []string
	from      *SelectTable
	joins     []join
	where     *Predicate
	order     []string
	limit     *int
	offset    *int
	forUpdate bool
}

// Columns appends the given columns to the selection.
func (s *Selector) Columns(columns ...string) *Selector {
	s.columns = append(s.columns, columns...)
	return s
}

// SelectedColumns returns the selected columns.
func (s *Selector) SelectedColumns() []string {
	return s.columns
}

// From sets the source of `FROM` clause.
func (s *Selector) From(t *SelectTable) *Selector {
	s.from = t
	return s
}

// Table returns the table of the FROM clause.
func (s *Selector) Table() *SelectTable {
	return s.from
}

// Join appends a `JOIN` clause to the statement. The condition is set with On.
func (s *Selector) Join(t *SelectTable) *Selector {
	s.joins = append(s.joins, join{table: t})
	return s
}

// On sets the `ON` clause of the last `JOIN` operation.
func (s *Selector) On(c1, c2 string) *Selector {
	if n := len(s.joins); n > 0 {
		s.joins[n-1].on = ColumnsEQ(c1, c2)
	}
	return s
}

// Where sets or appends the given predicate to the statement.
func (s *Selector) Where(p *Predicate) *Selector {
	if p == nil {
		return s
	}
	if s.where == nil {
		s.where = p
	} else {
		s.where = And(s.where, p)
	}
	return s
}

// P returns the predicate of the statement.
func (s *Selector) P() *Predicate {
	return s.where
}

// OrderBy appends the `ORDER BY` clause to the `SELECT` statement.
func (s *Selector) OrderBy(columns ...string) *Selector {
	s.order = append(s.order, columns...)
	return s
}

// Limit adds the `LIMIT` clause to the `SELECT` statement.
func (s *Selector) Limit(limit int) *Selector {
	s.limit = &limit
	return s
}

// Offset adds the `OFFSET` clause to the `SELECT` statement.
func (s *Selector) Offset(offset int) *Selector {
	s.offset = &offset
	return s
}

// ForUpdate sets the `FOR UPDATE` lock clause. It is ignored by SQLite,
// which locks the whole database on write.
func (s *Selector) ForUpdate() *Selector {
	s.forUpdate = true
	return s
}

// Query returns query representation of a `SELECT` statement.
func (s *Selector) Query() (string, []any) {
	b := &Builder{dialect: s.dialect}
	b.WriteString("SELECT ")
	if len(s.columns) == 0 {
		b.WriteString("*")
	} else {
		b.IdentComma(s.columns...)
	}
	if s.from != nil {
		b.WriteString(" FROM ")
		s.from.write(b)
	}
	for _, j := range s.joins {
		b.WriteString(" JOIN ")
		j.table.write(b)
		if j.on != nil {
			b.WriteString(" ON ")
			j.on.write(b)
		}
	}
	if s.where != nil {
		b.WriteString(" WHERE ")
		s.where.write(b)
	}
	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ").IdentComma(s.order...)
	}
	if s.limit != nil {
		b.WriteString(" LIMIT " + strconv.Itoa(*s.limit))
	}
	if s.offset != nil {
		// MySQL and SQLite accept OFFSET only after a LIMIT.
		if s.limit == nil {
			switch s.dialect {
			case dialect.MySQL:
				b.WriteString(" LIMIT 18446744073709551615")
			case dialect.SQLite:
				b.WriteString(" LIMIT -1")
			}
		}
		b.WriteString(" OFFSET " + strconv.Itoa(*s.offset))
	}
	if s.forUpdate && s.dialect != dialect.SQLite {
		b.WriteString(" FOR UPDATE")
	}
	return b.Query()
}

// Count returns the COUNT(*) expression.
func Count(column string) string {
	if column == "" {
		column = "*"
	}
	return "COUNT(" + column + ")"
}

// InsertBuilder is a builder for `INSERT INTO` statement.
type InsertBuilder struct {
	dialect   string
	table     string
	schema    string
	columns   []string
	values    [][]any
	returning []string
}

// Schema sets the database name for the insert table.
func (i *InsertBuilder) Schema(name string) *InsertBuilder {
	i.schema = name
	return i
}

// Columns appends columns to the INSERT statement.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = append(i.columns, columns...)
	return i
}

// Values append a value tuple for the insert statement.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.values = append(i.values, values)
	return i
}

// Returning adds the `RETURNING` clause to the insert statement.
// Dialects without RETURNING support ignore it.
func (i *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	i.returning = columns
	return i
}

// Query returns query representation of an `INSERT INTO` statement.
func (i *InsertBuilder) Query() (string, []any) {
	b := &Builder{dialect: i.dialect}
	b.WriteString("INSERT INTO ")
	if i.schema != "" {
		b.Ident(i.schema).WriteString(".")
	}
	b.WriteString(b.Quote(i.table))
	if len(i.columns) == 0 {
		if i.dialect == dialect.MySQL {
			b.WriteString(" VALUES ()")
		} else {
			b.WriteString(" DEFAULT VALUES")
		}
	} else {
		b.WriteString(" (").IdentComma(i.columns...).WriteString(") VALUES ")
		for j, v := range i.values {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(")
			for k := range v {
				if k > 0 {
					b.WriteString(", ")
				}
				b.Arg(v[k])
			}
			b.WriteString(")")
		}
	}
	writeReturning(b, i.returning)
	return b.Query()
}

func writeReturning(b *Builder, columns []string) {
	if len(columns) == 0 || !dialect.SupportsReturning(b.dialect) {
		return
	}
	b.WriteString(" RETURNING ").IdentComma(columns...)
}

// UpdateBuilder is a builder for `UPDATE` statement.
type UpdateBuilder struct {
	dialect   string
	table     string
	schema    string
	columns   []string
	values    []any
	where     *Predicate
	returning []string
}

// Schema sets the database name for the updated table.
func (u *UpdateBuilder) Schema(name string) *UpdateBuilder {
	u.schema = name
	return u
}

// Set sets a column to a given value.
func (u *UpdateBuilder) Set(column string, v any) *UpdateBuilder {
	u.columns = append(u.columns, column)
	u.values = append(u.values, v)
	return u
}

// Where adds a where predicate for update statement.
func (u *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	if u.where == nil {
		u.where = p
	} else {
		u.where = And(u.where, p)
	}
	return u
}

// Returning adds the `RETURNING` clause to the update statement.
func (u *UpdateBuilder) Returning(columns ...string) *UpdateBuilder {
	u.returning = columns
	return u
}

// Empty reports whether this builder does not contain update changes.
func (u *UpdateBuilder) Empty() bool {
	return len(u.columns) == 0
}

// Query returns query representation of an `UPDATE` statement.
func (u *UpdateBuilder) Query() (string, []any) {
	b := &Builder{dialect: u.dialect}
	b.WriteString("UPDATE ")
	if u.schema != "" {
		b.Ident(u.schema).WriteString(".")
	}
	b.WriteString(b.Quote(u.table)).WriteString(" SET ")
	for i, c := range u.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.Ident(c).WriteString(" = ").Arg(u.values[i])
	}
	if u.where != nil {
		b.WriteString(" WHERE ")
		u.where.write(b)
	}
	writeReturning(b, u.returning)
	return b.Query()
}

// DeleteBuilder is a builder for `DELETE` statement.
type DeleteBuilder struct {
	dialect string
	table   string
	schema  string
	where   *Predicate
}

// Schema sets the database name for the table whose row will be deleted.
func (d *DeleteBuilder) Schema(name string) *DeleteBuilder {
	d.schema = name
	return d
}

// Where appends a where predicate to the `DELETE` statement.
func (d *DeleteBuilder) Where(p *Predicate) *DeleteBuilder {
	if d.where == nil {
		d.where = p
	} else {
		d.where = And(d.where, p)
	}
	return d
}

// Query returns query representation of a `DELETE` statement.
func (d *DeleteBuilder) Query() (string, []any) {
	b := &Builder{dialect: d.dialect}
	b.WriteString("DELETE FROM ")
	if d.schema != "" {
		b.Ident(d.schema).WriteString(".")
	}
	b.WriteString(b.Quote(d.table))
	if d.where != nil {
		b.WriteString(" WHERE ")
		d.where.write(b)
	}
	return b.Query()
}
