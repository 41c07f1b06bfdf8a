package formulation

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a formulation failure. Failures are local to one
// Formulate call and are never retried by the core.
type ErrorKind string

const (
	KindUnknownSpecies         ErrorKind = "UNKNOWN_SPECIES"
	KindNoIngredientsRequested ErrorKind = "NO_INGREDIENTS_REQUESTED"
	KindNoMatchingIngredients  ErrorKind = "NO_MATCHING_INGREDIENTS"
	KindAllIngredientsExcluded ErrorKind = "ALL_INGREDIENTS_EXCLUDED"
	KindInfeasible             ErrorKind = "INFEASIBLE"
)

// Error is a formulation failure outcome.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// NewError creates a formulation error.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	}
}

// AsError extracts a formulation error from err.
func AsError(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// ErrEmptySelection guards the constraint builder against an empty
// ingredient list; the service surfaces the matching error kind before
// this can be reached.
var ErrEmptySelection = errors.New("empty ingredient selection")
