// Package catalog holds the entity catalog: the process-wide, read-only
// registry of entity types, their tables and columns.
package catalog

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/syssam/depot"
)

// Catalog is an immutable registry of entities keyed by table name.
type Catalog struct {
	entities []*Entity
	tables   map[string]*Entity
}

// New validates the entities and returns a catalog holding them.
func New(entities ...*Entity) (*Catalog, error) {
	c := &Catalog{tables: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if e == nil {
			return nil, fmt.Errorf("catalog: nil entity")
		}
		if err := e.init(); err != nil {
			return nil, err
		}
		if _, ok := c.tables[e.Table]; ok {
			return nil, fmt.Errorf("catalog: duplicate entity for table %q", e.Table)
		}
		c.tables[e.Table] = e
		c.entities = append(c.entities, e)
	}
	for _, e := range c.entities {
		for _, col := range e.References() {
			ref, ok := c.tables[col.References.Table]
			if !ok {
				continue
			}
			if !ref.HasColumn(col.References.Column) {
				return nil, fmt.Errorf("catalog: %s.%s references unknown column %s.%s",
					e.Table, col.Name, ref.Table, col.References.Column)
			}
		}
	}
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(entities ...*Entity) *Catalog {
	c, err := New(entities...)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the entity stored in the given table.
func (c *Catalog) Lookup(table string) (*Entity, error) {
	if e, ok := c.tables[table]; ok {
		return e, nil
	}
	return nil, depot.NewNotFoundErrorWithField("Entity", "table", table)
}

// MustLookup is like Lookup but panics if the table is unknown.
func (c *Catalog) MustLookup(table string) *Entity {
	e, err := c.Lookup(table)
	if err != nil {
		panic(err)
	}
	return e
}

// Entities returns the entities in declaration order.
func (c *Catalog) Entities() []*Entity {
	return append([]*Entity(nil), c.entities...)
}

// Len returns the number of entities.
func (c *Catalog) Len() int {
	return len(c.entities)
}

type document struct {
	Entities []*Entity `yaml:"entities"`
}

// Decode builds a catalog from its YAML representation:
//
//	entities:
//	  - table: users
//	    columns:
//	      - {name: id, type: int64}
//	      - {name: uuid, type: uuid}
//	      - {name: username, type: string, unique: true, natural: true}
//	      - name: role_uuid
//	        type: uuid
//	        references: {table: roles, on_delete: RESTRICT}
func Decode(data []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return New(doc.Entities...)
}

// Load reads and decodes the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return Decode(data)
}
