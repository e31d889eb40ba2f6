// Package storage is the durable client storage behind the session store and
// the persisted list selection: a flat key/value namespace.
package storage

import "errors"

// ErrNotFound is returned by Get when key has no entry.
var ErrNotFound = errors.New("storage: key not found")

// Storage is a byte-oriented key/value store. Implementations must be safe
// for concurrent use.
type Storage interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
