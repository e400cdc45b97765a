// Package schema reflects the foreign-key graph of a live database and
// checks it against the entity catalog.
package schema

import (
	"slices"
	"strings"

	"github.com/syssam/depot/catalog"
)

// TableKey identifies a table. An empty Schema is the connection default.
type TableKey struct {
	Schema string
	Name   string
}

// KeyOf returns the key of the table holding the entity.
func KeyOf(e *catalog.Entity) TableKey {
	return TableKey{Schema: e.Schema, Name: e.Table}
}

// String returns "schema.name", or the name alone for the default schema.
func (k TableKey) String() string {
	if k.Schema == "" {
		return k.Name
	}
	return k.Schema + "." + k.Name
}

func (k TableKey) compare(o TableKey) int {
	if c := strings.Compare(k.Schema, o.Schema); c != 0 {
		return c
	}
	return strings.Compare(k.Name, o.Name)
}

// ForeignKey is a directed edge from the table holding the constrained column
// to the table holding the referred column.
type ForeignKey struct {
	Symbol    string
	Table     TableKey
	Column    string
	RefTable  TableKey
	RefColumn string
	OnDelete  catalog.Action
	OnUpdate  catalog.Action
}

// String implements fmt.Stringer.
func (fk *ForeignKey) String() string {
	return fk.Table.String() + "." + fk.Column + " -> " + fk.RefTable.String() + "." + fk.RefColumn
}

// Snapshot is an immutable set of foreign keys keyed by the holding table.
// A reflected table without foreign keys is present with an empty list.
type Snapshot struct {
	fks map[TableKey][]*ForeignKey
}

// NewSnapshot returns a snapshot of the given foreign keys. Tables listed
// without edges are recorded as reflected. Only the first edge per ordered
// table pair is kept.
func NewSnapshot(fks map[TableKey][]*ForeignKey) *Snapshot {
	s := &Snapshot{fks: make(map[TableKey][]*ForeignKey, len(fks))}
	for k, list := range fks {
		s.fks[k] = dedupe(list)
	}
	return s
}

func dedupe(list []*ForeignKey) []*ForeignKey {
	out := make([]*ForeignKey, 0, len(list))
	seen := make(map[TableKey]bool, len(list))
	for _, fk := range list {
		if seen[fk.RefTable] {
			continue
		}
		seen[fk.RefTable] = true
		out = append(out, fk)
	}
	return out
}

// Tables returns the reflected tables in sorted order.
func (s *Snapshot) Tables() []TableKey {
	keys := make([]TableKey, 0, len(s.fks))
	for k := range s.fks {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, TableKey.compare)
	return keys
}

// Covers reports whether all the given tables were reflected.
func (s *Snapshot) Covers(keys ...TableKey) bool {
	for _, k := range keys {
		if _, ok := s.fks[k]; !ok {
			return false
		}
	}
	return true
}

// ForeignKeys returns the foreign keys held by the given table.
func (s *Snapshot) ForeignKeys(k TableKey) []*ForeignKey {
	return s.fks[k]
}

// Edges returns all foreign keys, ordered by holding table.
func (s *Snapshot) Edges() []*ForeignKey {
	var edges []*ForeignKey
	for _, k := range s.Tables() {
		edges = append(edges, s.fks[k]...)
	}
	return edges
}

// Edge returns the foreign key held by from that refers to to.
func (s *Snapshot) Edge(from, to TableKey) (*ForeignKey, bool) {
	for _, fk := range s.fks[from] {
		if fk.RefTable == to {
			return fk, true
		}
	}
	return nil, false
}

// Between returns the edge connecting a and b in either direction,
// preferring the one held by a.
func (s *Snapshot) Between(a, b TableKey) (*ForeignKey, bool) {
	if fk, ok := s.Edge(a, b); ok {
		return fk, true
	}
	return s.Edge(b, a)
}

// Among returns the sub-snapshot of the given tables, keeping only the edges
// whose both ends are in the set.
func (s *Snapshot) Among(keys ...TableKey) *Snapshot {
	in := make(map[TableKey]bool, len(keys))
	for _, k := range keys {
		in[k] = true
	}
	sub := &Snapshot{fks: make(map[TableKey][]*ForeignKey, len(keys))}
	for _, k := range keys {
		list, ok := s.fks[k]
		if !ok {
			continue
		}
		edges := make([]*ForeignKey, 0, len(list))
		for _, fk := range list {
			if in[fk.RefTable] {
				edges = append(edges, fk)
			}
		}
		sub.fks[k] = edges
	}
	return sub
}

// merge returns a new snapshot holding the tables of both snapshots.
// Tables of o replace those of s.
func (s *Snapshot) merge(o map[TableKey][]*ForeignKey) *Snapshot {
	m := &Snapshot{fks: make(map[TableKey][]*ForeignKey, len(s.fks)+len(o))}
	for k, v := range s.fks {
		m.fks[k] = v
	}
	for k, v := range o {
		m.fks[k] = dedupe(v)
	}
	return m
}
