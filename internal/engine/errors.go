package engine

import (
	"errors"
	"fmt"

	"github.com/tartampluch/go-taskdigest/internal/config"
)

// ErrConflict is returned by SummaryStore.SaveAll when the stored list changed
// since it was loaded.
var ErrConflict = errors.New(config.ErrStoreConflict)

// FetchError wraps a failed call to an external collaborator.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func fetchErr(op string, err error) error {
	return &FetchError{Op: op, Err: err}
}
