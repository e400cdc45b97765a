package schema

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/depot/catalog"
	"github.com/syssam/depot/dialect"
	"github.com/syssam/depot/dialect/sql"
)

// Inspector reads the foreign keys held by the given tables from the
// database catalog. The returned map is keyed with the requested schema
// name, and holds an entry for every requested table that exists.
type Inspector interface {
	InspectForeignKeys(ctx context.Context, schema string, tables []string) (map[TableKey][]*ForeignKey, error)
}

// InspectFunc type is an adapter to allow the use of ordinary function as Inspector.
type InspectFunc func(context.Context, string, []string) (map[TableKey][]*ForeignKey, error)

// InspectForeignKeys calls f(ctx, schema, tables).
func (f InspectFunc) InspectForeignKeys(ctx context.Context, schema string, tables []string) (map[TableKey][]*ForeignKey, error) {
	return f(ctx, schema, tables)
}

// AtlasInspector inspects the database with the Atlas driver of its dialect.
type AtlasInspector struct {
	drv    dialect.Driver
	logger *slog.Logger
}

// NewAtlasInspector returns an inspector for drv. The driver must be backed
// by database/sql.
func NewAtlasInspector(drv dialect.Driver, logger *slog.Logger) (*AtlasInspector, error) {
	if sql.DBOf(drv) == nil {
		return nil, fmt.Errorf("schema: driver %T is not backed by database/sql", drv)
	}
	switch drv.Dialect() {
	case dialect.Postgres, dialect.MySQL, dialect.SQLite:
	default:
		return nil, fmt.Errorf("schema: unsupported dialect %q", drv.Dialect())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AtlasInspector{drv: drv, logger: logger}, nil
}

func (i *AtlasInspector) open() (schema.Inspector, error) {
	db := sql.DBOf(i.drv)
	switch i.drv.Dialect() {
	case dialect.Postgres:
		return postgres.Open(db)
	case dialect.MySQL:
		return mysql.Open(db)
	default:
		return sqlite.Open(db)
	}
}

// InspectForeignKeys implements the Inspector interface.
func (i *AtlasInspector) InspectForeignKeys(ctx context.Context, name string, tables []string) (map[TableKey][]*ForeignKey, error) {
	if len(tables) == 0 {
		return map[TableKey][]*ForeignKey{}, nil
	}
	insp, err := i.open()
	if err != nil {
		return nil, fmt.Errorf("open %s inspector: %w", i.drv.Dialect(), err)
	}
	target := name
	if target == "" && i.drv.Dialect() == dialect.SQLite {
		target = "main"
	}
	s, err := insp.InspectSchema(ctx, target, &schema.InspectOptions{
		Tables: tables,
	})
	if err != nil {
		return nil, err
	}
	fks := make(map[TableKey][]*ForeignKey, len(s.Tables))
	for _, t := range s.Tables {
		key := TableKey{Schema: name, Name: t.Name}
		list := make([]*ForeignKey, 0, len(t.ForeignKeys))
		for _, fk := range t.ForeignKeys {
			if len(fk.Columns) != 1 || len(fk.RefColumns) != 1 || fk.RefTable == nil {
				i.logger.DebugContext(ctx, "skipping multi-column foreign key", "table", key.String(), "symbol", fk.Symbol)
				continue
			}
			ref := TableKey{Schema: name, Name: fk.RefTable.Name}
			if rs := fk.RefTable.Schema; rs != nil && rs.Name != "" && rs.Name != s.Name {
				ref.Schema = rs.Name
			}
			list = append(list, &ForeignKey{
				Symbol:    fk.Symbol,
				Table:     key,
				Column:    fk.Columns[0].Name,
				RefTable:  ref,
				RefColumn: fk.RefColumns[0].Name,
				OnDelete:  catalog.Action(fk.OnDelete).Normalize(),
				OnUpdate:  catalog.Action(fk.OnUpdate).Normalize(),
			})
		}
		slices.SortStableFunc(list, func(a, b *ForeignKey) int {
			return strings.Compare(a.Symbol, b.Symbol)
		})
		fks[key] = list
	}
	return fks, nil
}
