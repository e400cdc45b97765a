package sqlgraph

import (
	"strings"

	"github.com/syssam/depot"
	"github.com/syssam/depot/catalog"
	"github.com/syssam/depot/dialect/sql/schema"
)

// Path is a validated, ordered sequence of distinct entities where every
// adjacent pair is connected by a foreign key.
type Path struct {
	snap     *schema.Snapshot
	entities []*catalog.Entity
	keys     []schema.TableKey
}

// NewPath validates the given entity order against the snapshot.
//
// Every adjacent pair must be connected by a foreign key in either
// direction, or a NotCombinableError is returned. The order is confirmed at
// the first pair (a, b) where a holds the foreign key to b; if no pair does,
// an InvalidOrderError naming the last pair is returned. With the edges
// users -> roles and orders -> users:
//
//	NewPath(s, users, roles)         // valid
//	NewPath(s, roles, users)         // InvalidOrderError
//	NewPath(s, orders, users, roles) // valid
//	NewPath(s, orders, roles)        // NotCombinableError
func NewPath(snap *schema.Snapshot, entities ...*catalog.Entity) (*Path, error) {
	if len(entities) < 2 {
		return nil, depot.NewInvalidArgumentError("Path", "", "at least two entities are required")
	}
	p := &Path{
		snap:     snap,
		entities: entities,
		keys:     make([]schema.TableKey, len(entities)),
	}
	for i, e := range entities {
		if e == nil {
			return nil, depot.NewInvalidArgumentError("Path", "", "nil entity")
		}
		p.keys[i] = schema.KeyOf(e)
		for j := range i {
			if p.keys[j] == p.keys[i] {
				return nil, depot.NewInvalidArgumentError("Path", "", "table "+p.keys[i].String()+" appears twice")
			}
		}
	}
	for i := 1; i < len(p.keys); i++ {
		if _, ok := snap.Between(p.keys[i-1], p.keys[i]); !ok {
			return nil, &depot.NotCombinableError{Left: p.keys[i-1].String(), Right: p.keys[i].String()}
		}
	}
	for i := 1; i < len(p.keys); i++ {
		if _, ok := snap.Edge(p.keys[i-1], p.keys[i]); ok {
			return p, nil
		}
	}
	n := len(p.keys)
	return nil, &depot.InvalidOrderError{From: p.keys[n-2].String(), To: p.keys[n-1].String()}
}

// Entities returns the entities of the path in caller order.
func (p *Path) Entities() []*catalog.Entity {
	return append([]*catalog.Entity(nil), p.entities...)
}

// Pairs returns the adjacent pairs of the path in caller order.
func (p *Path) Pairs() [][2]*catalog.Entity {
	pairs := make([][2]*catalog.Entity, 0, len(p.entities)-1)
	for i := 1; i < len(p.entities); i++ {
		pairs = append(pairs, [2]*catalog.Entity{p.entities[i-1], p.entities[i]})
	}
	return pairs
}

// Snapshot returns the snapshot the path was validated against.
func (p *Path) Snapshot() *schema.Snapshot {
	return p.snap
}

// Len returns the number of entities in the path.
func (p *Path) Len() int {
	return len(p.entities)
}

// String implements fmt.Stringer.
func (p *Path) String() string {
	names := make([]string, len(p.keys))
	for i, k := range p.keys {
		names[i] = k.String()
	}
	return strings.Join(names, " -> ")
}

// entity returns the entity of the path stored in the given table.
func (p *Path) entity(table string) (*catalog.Entity, bool) {
	for _, e := range p.entities {
		if e.Table == table || e.QualifiedName() == table {
			return e, true
		}
	}
	return nil, false
}
