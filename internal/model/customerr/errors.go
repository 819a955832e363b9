// Package customerr holds the typed failures the model layer reports.
// Every failure a caller may want to branch on has its own type here;
// nothing in the model returns an untyped fault.
package customerr

import "fmt"

// RequiredFieldError means a mandatory input was empty after trimming.
type RequiredFieldError struct {
	Field string
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// ValidationError covers remaining input problems: too long, malformed,
// out of range.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// DuplicateNameError means a category name already exists in the
// caller's scope (their own categories plus the global ones), compared
// case-insensitively.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("category %q already exists", e.Name)
}

// NotFoundError means the entity does not exist or is not visible to
// the caller. The two cases are deliberately indistinguishable so that
// probing ids reveals nothing about other users' data.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// HasDependentsError blocks a category delete while expenses still
// reference it.
type HasDependentsError struct {
	Dependents int64
}

func (e *HasDependentsError) Error() string {
	return fmt.Sprintf("category still has %d expense(s)", e.Dependents)
}

// ConflictError reports a concurrent modification: the record changed
// or vanished between load and save but still exists under the
// caller's ownership. The operation is safe to retry.
type ConflictError struct {
	Entity string
	ID     int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently, retry", e.Entity, e.ID)
}
