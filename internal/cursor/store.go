// Package cursor persists per-entity sync progress in a local BadgerDB.
//
// The store is a flat key/value space: channel pts counters, chat max-id
// cursors and subscription flags all live here under distinct key prefixes.
// Values are stored as decimal strings so they stay readable in debugging
// tools.
package cursor

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "chanwatch:"

// Store is a BadgerDB-backed progress store.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at the given directory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) key(k string) []byte {
	return []byte(keyPrefix + k)
}

// Get returns the raw value for key. The second return is false when the key
// is absent.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores a raw value under key, overwriting any previous value.
func (s *Store) Set(key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys. Missing keys are not an error.
func (s *Store) Delete(keys ...string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(s.key(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// GetInt64 returns the integer value for key, or absent=false.
func (s *Store) GetInt64(key string) (int64, bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse cursor %s=%q: %w", key, raw, err)
	}
	return n, true, nil
}

// SetInt64 stores an integer value under key.
func (s *Store) SetInt64(key string, value int64) error {
	return s.Set(key, strconv.FormatInt(value, 10))
}

// GetBool returns the boolean value for key; absent keys read as false.
func (s *Store) GetBool(key string) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	return raw == "1" || raw == "true", nil
}

// SetBool stores a boolean value under key.
func (s *Store) SetBool(key string, value bool) error {
	if value {
		return s.Set(key, "1")
	}
	return s.Set(key, "0")
}
