package depot

import (
	"errors"
	"fmt"
)

// Standard sentinel errors, one per error kind. Typed errors below match
// their sentinel through errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("depot: entity not found")

	// ErrAlreadyExists is returned when a write collides with a unique constraint.
	ErrAlreadyExists = errors.New("depot: entity already exists")

	// ErrForeignKey is returned when a write violates a foreign-key constraint.
	ErrForeignKey = errors.New("depot: foreign key violation")

	// ErrCreation is returned when an insert fails an integrity check that is
	// neither a uniqueness nor a foreign-key violation.
	ErrCreation = errors.New("depot: could not create entity")

	// ErrNotSingular is returned when a query that expects exactly one result
	// matches several rows.
	ErrNotSingular = errors.New("depot: entity not singular")

	// ErrNotCombinable is returned when two adjacent tables of a join path
	// share no foreign key.
	ErrNotCombinable = errors.New("depot: tables not combinable")

	// ErrInvalidOrder is returned when a join path is given against the
	// direction of its foreign keys.
	ErrInvalidOrder = errors.New("depot: invalid table order")

	// ErrInvalidArgument is returned for bad or missing filter fields and
	// other caller mistakes.
	ErrInvalidArgument = errors.New("depot: invalid argument")
)

// Kind identifies the class of a domain error.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindNotFound
	KindAlreadyExists
	KindForeignKey
	KindCreation
	KindNotSingular
	KindNotCombinable
	KindInvalidOrder
	KindInvalidArgument
)

var kindNames = [...]string{
	KindUnknown:         "Unknown",
	KindNotFound:        "EntityNotFound",
	KindAlreadyExists:   "EntityAlreadyExists",
	KindForeignKey:      "ForeignKeyViolation",
	KindCreation:        "CreationFailed",
	KindNotSingular:     "NotSingular",
	KindNotCombinable:   "TablesNotCombinable",
	KindInvalidOrder:    "InvalidTableOrder",
	KindInvalidArgument: "InvalidArgument",
}

// String returns the kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// KindOf reports the kind of the first domain error found in err's chain.
// Upstream layers use it to pick a transport status.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrForeignKey):
		return KindForeignKey
	case errors.Is(err, ErrCreation):
		return KindCreation
	case errors.Is(err, ErrNotSingular):
		return KindNotSingular
	case errors.Is(err, ErrNotCombinable):
		return KindNotCombinable
	case errors.Is(err, ErrInvalidOrder):
		return KindInvalidOrder
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	default:
		return KindUnknown
	}
}

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	field string // Optional: the field that was searched on
	value any    // Optional: the value that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("depot: %s not found (%s=%v)", e.label, e.field, e.value)
	}
	return fmt.Sprintf("depot: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// Field returns the field that was searched on, if any.
func (e *NotFoundError) Field() string {
	return e.field
}

// Value returns the value that was searched for, if any.
func (e *NotFoundError) Value() any {
	return e.value
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithField returns a new NotFoundError carrying the lookup
// field and value.
func NewNotFoundErrorWithField(label, field string, value any) *NotFoundError {
	return &NotFoundError{label: label, field: field, value: value}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}

// ConstraintError is the common shape of the integrity errors surfaced by
// writes: the entity label, the violated constraint and a human readable
// detail extracted from the driver error.
type ConstraintError struct {
	Label      string // Entity label
	Constraint string // Constraint name, when the driver reports it
	Detail     string // Driver detail fragment
	Err        error  // Underlying driver error
}

func (e *ConstraintError) describe(what string) string {
	s := fmt.Sprintf("depot: %s %s", e.Label, what)
	if e.Constraint != "" {
		s += fmt.Sprintf(" (constraint %q)", e.Constraint)
	}
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	return s
}

// AlreadyExistsError is returned when a write collides with a unique constraint.
type AlreadyExistsError struct{ ConstraintError }

// Error returns the error string.
func (e *AlreadyExistsError) Error() string { return e.describe("already exists") }

// Is reports whether the target error matches AlreadyExistsError.
func (e *AlreadyExistsError) Is(err error) bool { return err == ErrAlreadyExists }

// Unwrap returns the underlying driver error.
func (e *AlreadyExistsError) Unwrap() error { return e.Err }

// IsAlreadyExists returns true if the error is an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	return err != nil && errors.Is(err, ErrAlreadyExists)
}

// ForeignKeyError is returned when a write references a missing row, or a
// delete is restricted by rows referencing it.
type ForeignKeyError struct{ ConstraintError }

// Error returns the error string.
func (e *ForeignKeyError) Error() string { return e.describe("violates a foreign key") }

// Is reports whether the target error matches ForeignKeyError.
func (e *ForeignKeyError) Is(err error) bool { return err == ErrForeignKey }

// Unwrap returns the underlying driver error.
func (e *ForeignKeyError) Unwrap() error { return e.Err }

// IsForeignKey returns true if the error is a ForeignKeyError.
func IsForeignKey(err error) bool {
	return err != nil && errors.Is(err, ErrForeignKey)
}

// CreationError is returned for any other integrity failure of an insert.
type CreationError struct{ ConstraintError }

// Error returns the error string.
func (e *CreationError) Error() string { return e.describe("could not be created") }

// Is reports whether the target error matches CreationError.
func (e *CreationError) Is(err error) bool { return err == ErrCreation }

// Unwrap returns the underlying driver error.
func (e *CreationError) Unwrap() error { return e.Err }

// IsCreation returns true if the error is a CreationError.
func IsCreation(err error) bool {
	return err != nil && errors.Is(err, ErrCreation)
}

// NotSingularError represents an error when a query expects a singular result
// but receives several.
type NotSingularError struct {
	label string
	count int // Number of results returned (-1 if unknown)
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	if e.count >= 0 {
		return fmt.Sprintf("depot: %s not singular (got %d results, expected 1)", e.label, e.count)
	}
	return fmt.Sprintf("depot: %s not singular", e.label)
}

// Is reports whether the target error matches NotSingularError.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Label returns the entity label.
func (e *NotSingularError) Label() string {
	return e.label
}

// Count returns the number of results, or -1 if unknown.
func (e *NotSingularError) Count() int {
	return e.count
}

// NewNotSingularError returns a new NotSingularError with the result count.
func NewNotSingularError(label string, count int) *NotSingularError {
	return &NotSingularError{label: label, count: count}
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	return err != nil && errors.Is(err, ErrNotSingular)
}

// NotCombinableError is returned when two adjacent tables of a join path have
// no foreign key between them in either direction.
type NotCombinableError struct {
	Left, Right string // Table names
}

// Error returns the error string.
func (e *NotCombinableError) Error() string {
	return fmt.Sprintf("depot: tables %q and %q are not combinable", e.Left, e.Right)
}

// Is reports whether the target error matches NotCombinableError.
func (e *NotCombinableError) Is(err error) bool { return err == ErrNotCombinable }

// IsNotCombinable returns true if the error is a NotCombinableError.
func IsNotCombinable(err error) bool {
	return err != nil && errors.Is(err, ErrNotCombinable)
}

// InvalidOrderError is returned when no pair of a join path follows the
// direction of its foreign key.
type InvalidOrderError struct {
	From, To string // Table names of the last pair scanned
}

// Error returns the error string.
func (e *InvalidOrderError) Error() string {
	return fmt.Sprintf("depot: invalid order of tables: %q has no foreign key to %q", e.From, e.To)
}

// Is reports whether the target error matches InvalidOrderError.
func (e *InvalidOrderError) Is(err error) bool { return err == ErrInvalidOrder }

// IsInvalidOrder returns true if the error is an InvalidOrderError.
func IsInvalidOrder(err error) bool {
	return err != nil && errors.Is(err, ErrInvalidOrder)
}

// InvalidArgumentError reports a caller mistake, such as filtering on a field
// the entity does not have.
type InvalidArgumentError struct {
	Label string // Entity label, if known
	Field string // Offending field, if any
	Msg   string
}

// Error returns the error string.
func (e *InvalidArgumentError) Error() string {
	switch {
	case e.Label != "" && e.Field != "":
		return fmt.Sprintf("depot: %s: field %q: %s", e.Label, e.Field, e.Msg)
	case e.Label != "":
		return fmt.Sprintf("depot: %s: %s", e.Label, e.Msg)
	default:
		return "depot: " + e.Msg
	}
}

// Is reports whether the target error matches InvalidArgumentError.
func (e *InvalidArgumentError) Is(err error) bool { return err == ErrInvalidArgument }

// NewInvalidArgumentError returns a new InvalidArgumentError.
func NewInvalidArgumentError(label, field, msg string) *InvalidArgumentError {
	return &InvalidArgumentError{Label: label, Field: field, Msg: msg}
}

// IsInvalidArgument returns true if the error is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	return err != nil && errors.Is(err, ErrInvalidArgument)
}

// RollbackError wraps an error that occurred during a transaction rollback,
// joined with the error that triggered it.
type RollbackError struct {
	Err error
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("depot: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}
