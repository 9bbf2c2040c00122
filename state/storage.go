// Package state manages persistence of sounds.
package state

import (
	"errors"
	"fmt"
	"net/http"
)

type Closer interface {
	Close()
}

var (
	// ErrStorageUnavailable means the database can't be opened at all:
	// no such directory, permission denied, lock held, server down.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrWrite means a write transaction was aborted.
	ErrWrite = errors.New("write failed")
	// ErrRead means a read transaction was aborted.
	ErrRead = errors.New("read failed")
	// ErrSoundNotFound is wrapped by FetchSound for unknown ids.
	ErrSoundNotFound = errors.New("sound not found")
)

// StorageError says which operation failed and how.  Kind is one of
// ErrStorageUnavailable, ErrWrite or ErrRead, so callers can use errors.Is.
type StorageError struct {
	Op   string
	Kind error
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func (e *StorageError) HTTPCode() int {
	if e.Kind == ErrStorageUnavailable {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func unavailable(op string, err error) error {
	return &StorageError{Op: op, Kind: ErrStorageUnavailable, Err: err}
}

func writeError(op string, err error) error {
	return &StorageError{Op: op, Kind: ErrWrite, Err: err}
}

func readError(op string, err error) error {
	return &StorageError{Op: op, Kind: ErrRead, Err: err}
}
