package catalog

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/depot/catalog/field"
)

// Default column names of the surrogate and external keys.
const (
	DefaultID   = "id"
	DefaultUUID = "uuid"
)

var rules = ruleset()

func ruleset() *inflect.Ruleset {
	r := inflect.NewDefaultRuleset()
	for _, w := range []string{"ID", "UUID", "SKU", "URL"} {
		r.AddAcronym(w)
	}
	return r
}

// Label returns the default entity label for a table name.
//
//	Label("users")                 // User
//	Label("characteristics_items") // CharacteristicsItem
func Label(table string) string {
	return rules.Camelize(rules.Singularize(table))
}

// Action is a referential action of a foreign key.
type Action string

// Referential actions.
const (
	NoAction   Action = "NO ACTION"
	Restrict   Action = "RESTRICT"
	Cascade    Action = "CASCADE"
	SetNull    Action = "SET NULL"
	SetDefault Action = "SET DEFAULT"
)

// Normalize returns the canonical form of the action. The empty action is
// NO ACTION, the database default.
func (a Action) Normalize() Action {
	s := strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(string(a), "_", " ")))
	if s == "" {
		return NoAction
	}
	return Action(s)
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a.Normalize() {
	case NoAction, Restrict, Cascade, SetNull, SetDefault:
		return true
	}
	return false
}

// Reference declares the foreign key a column holds.
type Reference struct {
	Table    string `yaml:"table"`
	Column   string `yaml:"column,omitempty"`
	OnDelete Action `yaml:"on_delete,omitempty"`
	OnUpdate Action `yaml:"on_update,omitempty"`
}

// Column describes a column of an entity table.
type Column struct {
	Name string     `yaml:"name"`
	Type field.Type `yaml:"type"`
	// Unique columns reject duplicates at the store.
	Unique   bool `yaml:"unique,omitempty"`
	Nullable bool `yaml:"nullable,omitempty"`
	// Natural marks the column as the natural key of the entity.
	Natural bool `yaml:"natural,omitempty"`
	// Immutable columns are never written by updates.
	Immutable bool `yaml:"immutable,omitempty"`
	// ServerDefault columns are assigned by the store on insert.
	ServerDefault bool       `yaml:"server_default,omitempty"`
	References    *Reference `yaml:"references,omitempty"`
}

// Entity describes a persisted entity type and the table that holds it.
type Entity struct {
	// Name is the label used in errors. Defaults to Label(Table).
	Name   string `yaml:"name,omitempty"`
	Table  string `yaml:"table"`
	Schema string `yaml:"schema,omitempty"`
	// ID is the surrogate key column, assigned by the store.
	ID string `yaml:"id,omitempty"`
	// UUID is the external identifier column.
	UUID    string    `yaml:"uuid,omitempty"`
	Columns []*Column `yaml:"columns"`

	columns map[string]*Column
}

// Column returns the column with the given name.
func (e *Entity) Column(name string) (*Column, bool) {
	if e.columns == nil {
		for _, c := range e.Columns {
			if c.Name == name {
				return c, true
			}
		}
		return nil, false
	}
	c, ok := e.columns[name]
	return c, ok
}

// HasColumn reports whether the entity has the given column.
func (e *Entity) HasColumn(name string) bool {
	_, ok := e.Column(name)
	return ok
}

// ColumnNames returns the column names in declaration order.
func (e *Entity) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

// NaturalKeys returns the natural-key columns of the entity.
func (e *Entity) NaturalKeys() []*Column {
	var keys []*Column
	for _, c := range e.Columns {
		if c.Natural {
			keys = append(keys, c)
		}
	}
	return keys
}

// References returns the columns holding a reference, in declaration order.
func (e *Entity) References() []*Column {
	var refs []*Column
	for _, c := range e.Columns {
		if c.References != nil {
			refs = append(refs, c)
		}
	}
	return refs
}

// QualifiedName returns "schema.table", or the table name if no schema is set.
func (e *Entity) QualifiedName() string {
	if e.Schema == "" {
		return e.Table
	}
	return e.Schema + "." + e.Table
}

// String implements fmt.Stringer.
func (e *Entity) String() string {
	return e.Name
}

// init applies the defaults and checks the entity invariants.
func (e *Entity) init() error {
	if e.Table == "" {
		return fmt.Errorf("catalog: entity %q: missing table name", e.Name)
	}
	if e.Name == "" {
		e.Name = Label(e.Table)
	}
	if e.ID == "" {
		e.ID = DefaultID
	}
	if e.UUID == "" {
		e.UUID = DefaultUUID
	}
	e.columns = make(map[string]*Column, len(e.Columns))
	for _, c := range e.Columns {
		if c == nil || c.Name == "" {
			return fmt.Errorf("catalog: entity %s: column without a name", e.Name)
		}
		if _, ok := e.columns[c.Name]; ok {
			return fmt.Errorf("catalog: entity %s: duplicate column %q", e.Name, c.Name)
		}
		if !c.Type.Valid() {
			return fmt.Errorf("catalog: entity %s: column %q: invalid type", e.Name, c.Name)
		}
		if ref := c.References; ref != nil {
			if ref.Table == "" {
				return fmt.Errorf("catalog: entity %s: column %q references no table", e.Name, c.Name)
			}
			if ref.Column == "" {
				ref.Column = DefaultUUID
			}
			if !ref.OnDelete.Valid() || !ref.OnUpdate.Valid() {
				return fmt.Errorf("catalog: entity %s: column %q: unknown referential action", e.Name, c.Name)
			}
			ref.OnDelete = ref.OnDelete.Normalize()
			ref.OnUpdate = ref.OnUpdate.Normalize()
		}
		e.columns[c.Name] = c
	}
	if _, ok := e.columns[e.ID]; !ok {
		return fmt.Errorf("catalog: entity %s: missing id column %q", e.Name, e.ID)
	}
	uuidc, ok := e.columns[e.UUID]
	if !ok {
		return fmt.Errorf("catalog: entity %s: missing uuid column %q", e.Name, e.UUID)
	}
	// The store assigns the id and the uuid never changes.
	e.columns[e.ID].ServerDefault = true
	e.columns[e.ID].Immutable = true
	uuidc.Immutable = true
	uuidc.Unique = true
	return nil
}
