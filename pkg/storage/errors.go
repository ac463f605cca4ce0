package storage

import (
	"errors"

	"github.com/chris/tin/pkg/ledger"
)

// ErrConflict is returned when a concurrent writer changed a card between
// the read and the conditional write.
var ErrConflict = errors.New("concurrent modification")

// Domain errors are defined next to the rules that raise them and are
// re-exported here for callers of the storage layer.
type (
	ValidationError = ledger.ValidationError
	NotFoundError   = ledger.NotFoundError
	ConstraintError = ledger.ConstraintError
)

var (
	ErrValidation = ledger.ErrValidation
	ErrNotFound   = ledger.ErrNotFound
	ErrConstraint = ledger.ErrConstraint
)
