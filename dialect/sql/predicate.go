package sql

// Predicate is a where predicate. It is rendered lazily so that the
// placeholders are numbered by the statement that finally holds it.
type Predicate struct {
	fns []func(*Builder)
}

// P creates a new predicate.
//
//	P(func(b *Builder) {
//		b.Ident("name").WriteString(" = ").Arg("a8m")
//	})
func P(fns ...func(*Builder)) *Predicate {
	return &Predicate{fns: fns}
}

func (p *Predicate) write(b *Builder) {
	for _, f := range p.fns {
		f(b)
	}
}

// Query returns query representation of a predicate.
func (p *Predicate) Query() (string, []any) {
	b := &Builder{}
	p.write(b)
	return b.Query()
}

// EQ returns a "=" predicate. A nil value is rendered as IS NULL, since
// "col = NULL" never holds.
func EQ(col string, value any) *Predicate {
	if value == nil {
		return IsNull(col)
	}
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" = ").Arg(value)
	})
}

// NEQ returns a "<>" predicate.
func NEQ(col string, value any) *Predicate {
	if value == nil {
		return NotNull(col)
	}
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" <> ").Arg(value)
	})
}

// IsNull returns the `IS NULL` predicate.
func IsNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NULL")
	})
}

// NotNull returns the `IS NOT NULL` predicate.
func NotNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NOT NULL")
	})
}

// ColumnsEQ appends a "=" predicate between 2 columns.
func ColumnsEQ(col1, col2 string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col1).WriteString(" = ").Ident(col2)
	})
}

// And combines all given predicates with AND between them.
// Nil predicates are skipped.
func And(preds ...*Predicate) *Predicate {
	return join2("AND", preds)
}

// Or combines all given predicates with OR between them.
func Or(preds ...*Predicate) *Predicate {
	return join2("OR", preds)
}

func join2(op string, preds []*Predicate) *Predicate {
	ps := make([]*Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			ps = append(ps, p)
		}
	}
	if len(ps) == 1 {
		return ps[0]
	}
	return P(func(b *Builder) {
		b.WriteString("(")
		for i, p := range ps {
			if i > 0 {
				b.WriteString(" " + op + " ")
			}
			p.write(b)
		}
		b.WriteString(")")
	})
}

// Not wraps the given predicate with the not predicate.
func Not(pred *Predicate) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("NOT (")
		pred.write(b)
		b.WriteString(")")
	})
}
