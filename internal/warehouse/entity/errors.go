package entity

import "errors"

// Engine error taxonomy. Handlers dispatch on these with errors.Is; services
// wrap them with fmt.Errorf("...: %w", ...) to add context.
var (
	// ErrInvalidBoxState means the requested operation is not legal in the
	// box's current lifecycle state.
	ErrInvalidBoxState = errors.New("invalid box state")

	// ErrInsufficientStock means the movement would drive a ledger balance
	// negative outside the correction path.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConcurrentModification means an optimistic check lost a race with
	// another writer. Callers retry from a fresh read.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrIncompletePicking means the picking list has unpicked lines.
	ErrIncompletePicking = errors.New("picking list not fully picked")

	// ErrUnknownProduct means the product code does not resolve in the
	// catalog.
	ErrUnknownProduct = errors.New("unknown product")

	// ErrExternalDependencyFailure means the picking-list generator or
	// catalog was unreachable or returned an error.
	ErrExternalDependencyFailure = errors.New("external dependency failure")

	// ErrEmptyAssembly means a gift-package assembly was requested with no
	// consumed items.
	ErrEmptyAssembly = errors.New("assembly requires at least one consumed item")

	// ErrNotFound means the referenced aggregate does not exist.
	ErrNotFound = errors.New("not found")
)
