package sqlgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/depot"
	"github.com/syssam/depot/catalog"
	"github.com/syssam/depot/catalog/field"
	"github.com/syssam/depot/dialect/sql/schema"
)

func entity(table string, columns ...string) *catalog.Entity {
	e := &catalog.Entity{
		Table: table,
		Columns: []*catalog.Column{
			{Name: "id", Type: field.TypeInt64},
			{Name: "uuid", Type: field.TypeUUID},
		},
	}
	for _, c := range columns {
		e.Columns = append(e.Columns, &catalog.Column{Name: c, Type: field.TypeString})
	}
	return e
}

var (
	roles = entity("roles", "rolename")
	users = entity("users", "username", "role_uuid")
	items = entity("items", "name")

	// orders refers to both users and items.
	orders   = entity("orders", "user_uuid", "item_uuid", "amount")
	_        = catalog.MustNew(roles, users, items, orders)
	snapshot = schema.NewSnapshot(map[schema.TableKey][]*schema.ForeignKey{
		schema.KeyOf(users):  {edge(users, "role_uuid", roles)},
		schema.KeyOf(orders): {edge(orders, "user_uuid", users), edge(orders, "item_uuid", items)},
		schema.KeyOf(roles):  nil,
		schema.KeyOf(items):  nil,
	})
)

func edge(from *catalog.Entity, column string, to *catalog.Entity) *schema.ForeignKey {
	return &schema.ForeignKey{
		Table:     schema.KeyOf(from),
		Column:    column,
		RefTable:  schema.KeyOf(to),
		RefColumn: "uuid",
	}
}

func TestNewPath(t *testing.T) {
	tests := []struct {
		name     string
		entities []*catalog.Entity
		check    func(error) bool
	}{
		{"forward", []*catalog.Entity{users, roles}, nil},
		{"chain", []*catalog.Entity{orders, users, roles}, nil},
		{"fan-out", []*catalog.Entity{users, orders, items}, nil},
		{"against order", []*catalog.Entity{roles, users}, depot.IsInvalidOrder},
		{"chain against order", []*catalog.Entity{roles, users, orders}, depot.IsInvalidOrder},
		{"not combinable", []*catalog.Entity{orders, roles}, depot.IsNotCombinable},
		{"not combinable tail", []*catalog.Entity{users, roles, items}, depot.IsNotCombinable},
		{"single", []*catalog.Entity{users}, depot.IsInvalidArgument},
		{"duplicate", []*catalog.Entity{users, roles, users}, depot.IsInvalidArgument},
		{"nil", []*catalog.Entity{users, nil}, depot.IsInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPath(snapshot, tt.entities...)
			if tt.check == nil {
				require.NoError(t, err)
				assert.Equal(t, len(tt.entities), p.Len())
				return
			}
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestNewPath_Errors(t *testing.T) {
	_, err := NewPath(snapshot, roles, users)
	var oe *depot.InvalidOrderError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "roles", oe.From)
	assert.Equal(t, "users", oe.To)

	_, err = NewPath(snapshot, users, roles, items)
	var ce *depot.NotCombinableError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "roles", ce.Left)
	assert.Equal(t, "items", ce.Right)
}

func TestPath_Pairs(t *testing.T) {
	p, err := NewPath(snapshot, orders, users, roles)
	require.NoError(t, err)
	pairs := p.Pairs()
	require.Len(t, pairs, 2)
	assert.Same(t, orders, pairs[0][0])
	assert.Same(t, users, pairs[0][1])
	assert.Same(t, users, pairs[1][0])
	assert.Same(t, roles, pairs[1][1])
	assert.Equal(t, "orders -> users -> roles", p.String())
	assert.Same(t, snapshot, p.Snapshot())
	assert.Len(t, p.Entities(), 3)
}
