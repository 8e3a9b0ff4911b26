package appconfig

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration store failures. Both are fatal to the
// invocation: the transformer either fully replaces the document and
// writes once, or writes nothing.
var (
	// ErrConfigRead indicates the store is missing or not parseable as
	// structured data.
	ErrConfigRead = errors.New("configuration store unreadable")
	// ErrConfigWrite indicates the store destination is not writable.
	ErrConfigWrite = errors.New("configuration store unwritable")
)

// StoreError records a store failure with the file that caused it, so an
// operator can fix the checkout without inspecting internals.
type StoreError struct {
	Kind error // ErrConfigRead or ErrConfigWrite
	Path string
	Err  error
}

// Error returns a human-readable string naming the file.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

// Is reports whether target matches the error kind.
func (e *StoreError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *StoreError) Unwrap() error {
	return e.Err
}
