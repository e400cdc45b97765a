package repository

import (
	"errors"

	"github.com/syssam/depot"
	"github.com/syssam/depot/dialect"
	"github.com/syssam/depot/dialect/sql/sqlgraph"
)

// translate maps constraint violations of a write to the domain errors.
// Violations other than unique and foreign key ones become a CreationError
// on inserts, and are returned as is otherwise.
func translate(label string, err error, insert bool) error {
	v, ok := sqlgraph.Classify(err)
	if !ok {
		return err
	}
	ce := depot.ConstraintError{
		Label:      label,
		Constraint: v.Constraint,
		Detail:     v.Detail,
		Err:        err,
	}
	switch {
	case v.Kind == sqlgraph.UniqueViolation:
		return &depot.AlreadyExistsError{ConstraintError: ce}
	case v.Kind == sqlgraph.ForeignKeyViolation:
		return &depot.ForeignKeyError{ConstraintError: ce}
	case insert:
		return &depot.CreationError{ConstraintError: ce}
	default:
		return err
	}
}

// rollback rolls back tx and joins a rollback failure with err.
func rollback(tx dialect.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		err = errors.Join(err, &depot.RollbackError{Err: rerr})
	}
	return err
}
