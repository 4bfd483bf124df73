// Package boltengine is the alternate storage engine: a single bucket in
// a go.etcd.io/bbolt database file, standing in for the embedded,
// B-tree-backed store the log-structured engine is benchmarked against.
// It satisfies the same engine.Engine contract.
package boltengine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/jassi-singh/kvs/internal/kvserr"
)

// DirName is the marker identifying a directory as owned by this engine.
const DirName = "sled"

// dbFileName is the actual bbolt database file inside DirName.
const dbFileName = "kvs.db"

var bucketName = []byte("kvs")

// BoltEngine adapts a bbolt database to the engine.Engine contract.
type BoltEngine struct {
	db *bbolt.DB
}

// IsPresent reports whether dir is already owned by this engine, i.e.
// whether <dir>/sled exists.
func IsPresent(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, DirName))
	return err == nil
}

// Open creates (if necessary) <dir>/sled as a marker and opens the bbolt
// database inside it, creating the engine's bucket on first use.
func Open(dir string) (*BoltEngine, error) {
	markerDir := filepath.Join(dir, DirName)
	if err := os.MkdirAll(markerDir, 0755); err != nil {
		return nil, kvserr.IO(fmt.Errorf("boltengine: create marker dir %s: %w", markerDir, err))
	}

	dbPath := filepath.Join(markerDir, dbFileName)
	db, err := bbolt.Open(dbPath, 0644, nil)
	if err != nil {
		return nil, kvserr.BackingStore(fmt.Errorf("boltengine: open %s: %w", dbPath, err))
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, kvserr.BackingStore(fmt.Errorf("boltengine: create bucket: %w", err))
	}

	return &BoltEngine{db: db}, nil
}

// Set inserts or overwrites key with value.
func (e *BoltEngine) Set(key, value string) error {
	err := e.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return kvserr.BackingStore(fmt.Errorf("boltengine: set %q: %w", key, err))
	}
	return nil
}

// Get returns the current value for key, or ErrKeyNotFound if absent.
func (e *BoltEngine) Get(key string) (string, error) {
	var value []byte
	err := e.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return "", kvserr.BackingStore(fmt.Errorf("boltengine: get %q: %w", key, err))
	}
	if value == nil {
		return "", kvserr.ErrKeyNotFound
	}
	return string(value), nil
}

// Remove deletes key. It is an error to remove a key that is not
// currently present.
func (e *BoltEngine) Remove(key string) error {
	err := e.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(key)) == nil {
			return kvserr.ErrKeyNotFound
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		if errors.Is(err, kvserr.ErrKeyNotFound) {
			return kvserr.ErrKeyNotFound
		}
		return kvserr.BackingStore(fmt.Errorf("boltengine: remove %q: %w", key, err))
	}
	return nil
}

// Close releases the bbolt database handle.
func (e *BoltEngine) Close() error {
	if err := e.db.Close(); err != nil {
		return kvserr.BackingStore(fmt.Errorf("boltengine: close: %w", err))
	}
	return nil
}
