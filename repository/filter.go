package repository

import (
	"github.com/syssam/depot"
	"github.com/syssam/depot/catalog"
	"github.com/syssam/depot/dialect/sql"
)

// Filter is an equality condition on a column of the repository entity.
type Filter struct {
	Field string
	Value any
}

// Eq returns the filter "field = value".
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// predicate validates the filters against the entity and returns their
// conjunction. A nil predicate is returned for no filters.
func predicate(e *catalog.Entity, filters []Filter) (*sql.Predicate, error) {
	preds := make([]*sql.Predicate, 0, len(filters))
	for _, f := range filters {
		if !e.HasColumn(f.Field) {
			return nil, depot.NewInvalidArgumentError(e.Name, f.Field, "unknown field")
		}
		preds = append(preds, sql.EQ(f.Field, f.Value))
	}
	if len(preds) == 0 {
		return nil, nil
	}
	return sql.And(preds...), nil
}

// required is like predicate but rejects an empty filter list.
func required(e *catalog.Entity, filters []Filter) (*sql.Predicate, error) {
	if len(filters) == 0 {
		return nil, depot.NewInvalidArgumentError(e.Name, "", "at least one filter is required")
	}
	return predicate(e, filters)
}
