package sqlgraph

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ViolationKind classifies a constraint violation.
type ViolationKind uint8

// Violation kinds.
const (
	UniqueViolation ViolationKind = iota + 1
	ForeignKeyViolation
	CheckViolation
	NotNullViolation
	// IntegrityViolation is any other integrity constraint failure.
	IntegrityViolation
)

var kindNames = [...]string{
	UniqueViolation:     "unique",
	ForeignKeyViolation: "foreign key",
	CheckViolation:      "check",
	NotNullViolation:    "not null",
	IntegrityViolation:  "integrity",
}

// String returns the kind name.
func (k ViolationKind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Violation describes a constraint violation reported by a driver.
type Violation struct {
	Kind       ViolationKind
	Constraint string
	Detail     string
	Err        error
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgIntegrityClass      = "23"
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlBadNull                = 1048
	mysqlDuplicateEntry         = 1062
	mysqlNoDefault              = 1364
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

var (
	mysqlKey        = regexp.MustCompile("for key '([^']+)'")
	mysqlConstraint = regexp.MustCompile("CONSTRAINT `([^`]+)`")
	mysqlCheck      = regexp.MustCompile("[Cc]heck constraint '([^']+)'")
)

// Classify reports whether err resulted from a constraint violation, and
// which one. The cause is read from the typed driver errors (lib/pq, pgx,
// go-sql-driver/mysql and modernc sqlite). The error text is consulted for
// the detail, and as a fallback for errors of unknown drivers.
func Classify(err error) (*Violation, bool) {
	if err == nil {
		return nil, false
	}
	var (
		pqErr     *pq.Error
		pgErr     *pgconn.PgError
		mysqlErr  *mysql.MySQLError
		sqliteErr *sqlite.Error
	)
	switch {
	case errors.As(err, &pqErr):
		return postgres(string(pqErr.Code), pqErr.Constraint, pqErr.Detail, err)
	case errors.As(err, &pgErr):
		return postgres(pgErr.Code, pgErr.ConstraintName, pgErr.Detail, err)
	case errors.As(err, &mysqlErr):
		return classifyMySQL(mysqlErr, err)
	case errors.As(err, &sqliteErr):
		return classifySQLite(sqliteErr, err)
	}
	return classifyText(err)
}

func postgres(code, constraint, detail string, err error) (*Violation, bool) {
	v := &Violation{Constraint: constraint, Detail: detail, Err: err}
	switch code {
	case pgUniqueViolation:
		v.Kind = UniqueViolation
	case pgForeignKeyViolation:
		v.Kind = ForeignKeyViolation
	case pgCheckViolation:
		v.Kind = CheckViolation
	case pgNotNullViolation:
		v.Kind = NotNullViolation
	default:
		if !strings.HasPrefix(code, pgIntegrityClass) {
			return nil, false
		}
		v.Kind = IntegrityViolation
	}
	if v.Detail == "" {
		v.Detail = detailOf(err.Error())
	}
	return v, true
}

func classifyMySQL(e *mysql.MySQLError, err error) (*Violation, bool) {
	v := &Violation{Detail: e.Message, Err: err}
	switch e.Number {
	case mysqlDuplicateEntry:
		v.Kind = UniqueViolation
		v.Constraint = submatch(mysqlKey, e.Message)
	case mysqlForeignKeyParent, mysqlForeignKeyChild:
		v.Kind = ForeignKeyViolation
		v.Constraint = submatch(mysqlConstraint, e.Message)
	case mysqlCheckConstraintViolate:
		v.Kind = CheckViolation
		v.Constraint = submatch(mysqlCheck, e.Message)
	case mysqlBadNull, mysqlNoDefault:
		v.Kind = NotNullViolation
	default:
		return nil, false
	}
	return v, true
}

func classifySQLite(e *sqlite.Error, err error) (*Violation, bool) {
	code := e.Code()
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return nil, false
	}
	v := &Violation{Detail: sqliteDetail(e.Error()), Err: err}
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		v.Kind = UniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		v.Kind = ForeignKeyViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		v.Kind = CheckViolation
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		v.Kind = NotNullViolation
	default:
		// Connections without extended result codes report the primary code.
		if fv, ok := classifyText(err); ok {
			fv.Detail = v.Detail
			return fv, true
		}
		v.Kind = IntegrityViolation
	}
	if v.Kind == UniqueViolation || v.Kind == CheckViolation {
		v.Constraint = v.Detail
	}
	return v, true
}

// classifyText matches the messages of the supported drivers, for errors
// that lost their type on the way, e.g. behind a proxy or a mock.
func classifyText(err error) (*Violation, bool) {
	msg := err.Error()
	v := &Violation{Detail: detailOf(msg), Err: err}
	switch {
	case containsAny(msg, "Error 1062", "violates unique constraint", "UNIQUE constraint failed"):
		v.Kind = UniqueViolation
	case containsAny(msg, "Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"):
		v.Kind = ForeignKeyViolation
	case containsAny(msg, "Error 3819", "violates check constraint", "CHECK constraint failed"):
		v.Kind = CheckViolation
	case containsAny(msg, "Error 1048", "violates not-null constraint", "NOT NULL constraint failed"):
		v.Kind = NotNullViolation
	default:
		return nil, false
	}
	return v, true
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	_, ok := Classify(err)
	return ok
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return is(err, UniqueViolation)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return is(err, ForeignKeyViolation)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return is(err, CheckViolation)
}

func is(err error, k ViolationKind) bool {
	v, ok := Classify(err)
	return ok && v.Kind == k
}

// detailOf returns the "DETAIL:" fragment of a driver message, or the
// message itself when it has none.
func detailOf(msg string) string {
	i := strings.Index(msg, "DETAIL:")
	if i == -1 {
		return msg
	}
	d := strings.TrimSpace(msg[i+len("DETAIL:"):])
	if j := strings.IndexByte(d, '\n'); j != -1 {
		d = strings.TrimSpace(d[:j])
	}
	return d
}

// sqliteDetail returns the columns of a SQLite constraint message:
//
//	constraint failed: UNIQUE constraint failed: users.username (2067)
func sqliteDetail(msg string) string {
	d := msg
	if i := strings.LastIndex(d, "constraint failed"); i != -1 {
		d = strings.TrimPrefix(d[i+len("constraint failed"):], ":")
	}
	if j := strings.LastIndex(d, " ("); j != -1 {
		d = d[:j]
	}
	if d = strings.TrimSpace(d); d == "" {
		return msg
	}
	return d
}

func submatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
