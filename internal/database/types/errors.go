package types

import (
	"errors"
	"fmt"

	"github.com/robalyx/todbot/internal/database/types/enum"
)

// Error kinds. Concrete errors wrap exactly one of these so callers can
// classify a failure with errors.Is.
var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")
)

var (
	ErrEmptyText          = fmt.Errorf("%w: text must not be empty", ErrValidation)
	ErrTextTooLong        = fmt.Errorf("%w: text must be at most %d characters", ErrValidation, MaxTextLength)
	ErrUnknownCategory    = fmt.Errorf("%w: unknown category", ErrValidation)
	ErrSubmissionNotFound = fmt.Errorf("%w: no submission with that id", ErrNotFound)
)

// NoPromptsError is returned when no prompt matches a category and audience.
type NoPromptsError struct {
	Category enum.Category
}

func (e *NoPromptsError) Error() string {
	return fmt.Sprintf("no %s found, please add some using /suggest", e.Category.Plural())
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NoPromptsError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageError wraps a backing store failure with the operation that caused it.
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrStorage, op, err)
}
