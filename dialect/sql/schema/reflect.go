package schema

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/depot"
	"github.com/syssam/depot/catalog"
	"github.com/syssam/depot/dialect"
)

// Reflector memoizes the foreign keys of the tables it was asked about.
//
// The cache grows monotonically: a call naming tables not yet reflected
// inspects only those tables and merges them in. Concurrent callers missing
// the same tables share one inspection. Failed inspections are not cached.
type Reflector struct {
	insp   Inspector
	logger *slog.Logger
	group  singleflight.Group

	mu   sync.RWMutex
	snap *Snapshot
}

// ReflectorOption configures the Reflector.
type ReflectorOption func(*Reflector)

// WithLogger sets the logger of the reflector. Default is slog.Default().
func WithLogger(l *slog.Logger) ReflectorOption {
	return func(r *Reflector) {
		r.logger = l
	}
}

// NewReflector returns a reflector reading the database through insp.
func NewReflector(insp Inspector, opts ...ReflectorOption) *Reflector {
	r := &Reflector{
		insp:   insp,
		logger: slog.Default(),
		snap:   NewSnapshot(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewAtlasReflector returns a reflector using the Atlas inspector of drv.
func NewAtlasReflector(drv dialect.Driver, opts ...ReflectorOption) (*Reflector, error) {
	r := NewReflector(nil, opts...)
	insp, err := NewAtlasInspector(drv, r.logger)
	if err != nil {
		return nil, err
	}
	r.insp = insp
	return r, nil
}

// Reflect returns the snapshot of the edges among the tables of the given
// entities. Catalog and connectivity errors are returned wrapped, without
// retry.
func (r *Reflector) Reflect(ctx context.Context, entities ...*catalog.Entity) (*Snapshot, error) {
	if len(entities) == 0 {
		return nil, depot.NewInvalidArgumentError("Snapshot", "entities", "at least one entity is required")
	}
	keys := make([]TableKey, 0, len(entities))
	for _, e := range entities {
		if k := KeyOf(e); !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	if snap := r.Snapshot(); snap.Covers(keys...) {
		return snap.Among(keys...), nil
	}
	for _, p := range r.missing(keys) {
		if err := r.inspect(ctx, p.name, p.tables); err != nil {
			return nil, err
		}
	}
	return r.Snapshot().Among(keys...), nil
}

// Snapshot returns everything reflected so far.
func (r *Reflector) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

type pending struct {
	name   string
	tables []string
}

// missing groups the tables not yet reflected by schema.
func (r *Reflector) missing(keys []TableKey) []pending {
	snap := r.Snapshot()
	var groups []pending
	for _, k := range keys {
		if snap.Covers(k) {
			continue
		}
		i := slices.IndexFunc(groups, func(p pending) bool { return p.name == k.Schema })
		if i == -1 {
			groups = append(groups, pending{name: k.Schema})
			i = len(groups) - 1
		}
		groups[i].tables = append(groups[i].tables, k.Name)
	}
	for i := range groups {
		slices.Sort(groups[i].tables)
	}
	return groups
}

// inspect runs the inspection shared by the concurrent callers missing the
// same tables. The shared inspection is detached from the cancellation of
// the caller that started it; each caller stops waiting when its own
// context is done.
func (r *Reflector) inspect(ctx context.Context, name string, tables []string) error {
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(name+"\x00"+strings.Join(tables, ","), func() (any, error) {
		keys := make([]TableKey, len(tables))
		for i, t := range tables {
			keys[i] = TableKey{Schema: name, Name: t}
		}
		// A concurrent inspection may have finished in the meantime.
		if r.Snapshot().Covers(keys...) {
			return nil, nil
		}
		fks, err := r.insp.InspectForeignKeys(shared, name, tables)
		if err != nil {
			return nil, fmt.Errorf("schema: inspect foreign keys: %w", err)
		}
		found := make(map[TableKey][]*ForeignKey, len(keys))
		for _, k := range keys {
			list, ok := fks[k]
			if !ok {
				r.logger.WarnContext(shared, "table not found in database", "table", k.String())
			}
			found[k] = list
		}
		r.mu.Lock()
		r.snap = r.snap.merge(found)
		r.mu.Unlock()
		r.logger.DebugContext(shared, "reflected foreign keys", "schema", name, "tables", tables)
		return nil, nil
	})
	select {
	case res := <-ch:
		if res.Shared {
			r.logger.DebugContext(ctx, "shared foreign key inspection", "schema", name, "tables", tables)
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}
