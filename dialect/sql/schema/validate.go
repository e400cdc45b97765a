package schema

import (
	"fmt"
	"strings"

	"github.com/syssam/depot/catalog"
)

// ValidationError represents a difference between the catalog and the
// reflected database.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates that repositories or joins over the table will fail.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking differences.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			if w.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption configures drift validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowUndeclared bool
	strictActions   bool
}

// AllowUndeclared skips the warnings for database foreign keys the catalog
// does not declare.
func AllowUndeclared() ValidateOption {
	return func(c *validateConfig) {
		c.allowUndeclared = true
	}
}

// StrictActions reports differing referential actions as errors.
func StrictActions() ValidateOption {
	return func(c *validateConfig) {
		c.strictActions = true
	}
}

// Validate compares the references declared by the catalog with the foreign
// keys of the snapshot. Declared references missing in the database are
// errors; undeclared foreign keys and differing actions are warnings.
//
//	r.Reflect(ctx, cat.Entities()...)
//	result := schema.Validate(cat, r.Snapshot())
//	if result.HasErrors() {
//	    log.Fatal(result)
//	}
func Validate(cat *catalog.Catalog, snap *Snapshot, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	for _, e := range cat.Entities() {
		key := KeyOf(e)
		if !snap.Covers(key) {
			result.Errors = append(result.Errors, &ValidationError{
				Table:    key.String(),
				Message:  "table was not reflected",
				Breaking: true,
			})
			continue
		}
		declared := make(map[string]bool)
		for _, c := range e.References() {
			declared[c.Name] = true
			validateReference(cat, snap, key, c, cfg, result)
		}
		if cfg.allowUndeclared {
			continue
		}
		for _, fk := range snap.ForeignKeys(key) {
			if !declared[fk.Column] {
				result.Warnings = append(result.Warnings, &ValidationError{
					Table:   key.String(),
					Column:  fk.Column,
					Message: fmt.Sprintf("undeclared foreign key to %s.%s", fk.RefTable, fk.RefColumn),
				})
			}
		}
	}
	return result
}

func validateReference(cat *catalog.Catalog, snap *Snapshot, key TableKey, c *catalog.Column, cfg *validateConfig, result *ValidationResult) {
	ref := c.References
	to := TableKey{Schema: key.Schema, Name: ref.Table}
	if re, err := cat.Lookup(ref.Table); err == nil {
		to = KeyOf(re)
	}
	fk, ok := snap.Edge(key, to)
	if !ok {
		result.Errors = append(result.Errors, &ValidationError{
			Table:    key.String(),
			Column:   c.Name,
			Message:  fmt.Sprintf("declared foreign key to %s.%s is missing in the database", to, ref.Column),
			Breaking: true,
		})
		return
	}
	if fk.Column != c.Name || fk.RefColumn != ref.Column {
		result.Errors = append(result.Errors, &ValidationError{
			Table:    key.String(),
			Column:   c.Name,
			Message:  fmt.Sprintf("foreign key to %s is held by %s.%s -> %s in the database", to, fk.Table, fk.Column, fk.RefColumn),
			Breaking: true,
		})
		return
	}
	for _, a := range []struct {
		name           string
		want, reflected catalog.Action
	}{
		{"ON DELETE", ref.OnDelete.Normalize(), fk.OnDelete.Normalize()},
		{"ON UPDATE", ref.OnUpdate.Normalize(), fk.OnUpdate.Normalize()},
	} {
		if equivalent(a.want, a.reflected) {
			continue
		}
		err := &ValidationError{
			Table:   key.String(),
			Column:  c.Name,
			Message: fmt.Sprintf("%s is %s in the database, declared %s", a.name, a.reflected, a.want),
		}
		if cfg.strictActions {
			result.Errors = append(result.Errors, err)
		} else {
			result.Warnings = append(result.Warnings, err)
		}
	}
}

// equivalent reports whether two actions behave the same. NO ACTION and
// RESTRICT differ only in when the check is deferred.
func equivalent(a, b catalog.Action) bool {
	if a == b {
		return true
	}
	strict := func(x catalog.Action) bool { return x == catalog.NoAction || x == catalog.Restrict }
	return strict(a) && strict(b)
}
