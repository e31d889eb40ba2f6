package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/boltdb/bolt"
)

var clientBucket = []byte("client-storage")

// ErrClosed is returned by operations on a closed Bolt.
var ErrClosed = errors.New("storage: closed")

// Bolt stores entries in a single bucket of a bolt database file. The file is
// opened for each operation and closed right after, so several processes (the
// web frontend and the CLI) can share it: bolt's file lock is held only for
// the duration of one transaction.
type Bolt struct {
	path    string
	timeout time.Duration
	closed  atomic.Bool
}

// OpenBolt creates the database at path if needed and checks that it can be
// opened. timeout bounds each wait for the file lock held by another process.
func OpenBolt(path string, timeout time.Duration) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	b := &Bolt{path: path, timeout: timeout}
	err := b.update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(clientBucket)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bolt) open(readOnly bool) (*bolt.DB, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	db, err := bolt.Open(b.path, 0600, &bolt.Options{Timeout: b.timeout, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("open storage %s: %w", b.path, err)
	}
	return db, nil
}

func (b *Bolt) view(fn func(*bolt.Tx) error) error {
	db, err := b.open(true)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.View(fn)
}

func (b *Bolt) update(fn func(*bolt.Tx) error) error {
	db, err := b.open(false)
	if err != nil {
		return err
	}
	if err := db.Update(fn); err != nil {
		_ = db.Close()
		return err
	}
	return db.Close()
}

func (b *Bolt) Get(key string) ([]byte, error) {
	var value []byte
	err := b.view(func(tx *bolt.Tx) error {
		data := tx.Bucket(clientBucket).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		// data is only valid inside the transaction.
		value = slices.Clone(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *Bolt) Put(key string, value []byte) error {
	return b.update(func(tx *bolt.Tx) error {
		return tx.Bucket(clientBucket).Put([]byte(key), value)
	})
}

func (b *Bolt) Delete(key string) error {
	return b.update(func(tx *bolt.Tx) error {
		return tx.Bucket(clientBucket).Delete([]byte(key))
	})
}

// Ping verifies the bucket is readable; used by the readiness check.
func (b *Bolt) Ping() error {
	return b.view(func(tx *bolt.Tx) error {
		if tx.Bucket(clientBucket) == nil {
			return errors.New("storage bucket missing")
		}
		return nil
	})
}

// Close makes later operations fail with ErrClosed. It holds no file handle.
func (b *Bolt) Close() error {
	b.closed.Store(true)
	return nil
}

var _ Storage = (*Bolt)(nil)
