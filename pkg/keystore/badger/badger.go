// Package badger implements keystore.Store on BadgerDB.
//
// BadgerDB gives the client crash-safe persistence for directory handles and
// fallback blobs without an external daemon: everything lives in one
// directory under the user's state dir. The workload is tiny (a handful of
// keys per study, blobs up to a few MB), so the store runs Badger with
// conservative options and no compression.
package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/marmos91/studysync/pkg/keystore"
)

// Store is a BadgerDB-backed keystore.Store.
//
// Thread Safety:
// BadgerDB transactions provide the necessary isolation; the type itself
// holds no additional state and is safe for concurrent use.
type Store struct {
	db *badger.DB
}

// Config controls how the database is opened.
type Config struct {
	// Path is the directory where BadgerDB stores its files. It is created
	// if it does not exist.
	Path string `mapstructure:"path"`

	// InMemory runs Badger without touching disk. Used by tests and
	// ephemeral runs; Path is ignored when set.
	InMemory bool `mapstructure:"in_memory"`
}

// Open opens (or creates) the keystore database.
//
// Context Cancellation:
// The context is checked before the database is opened; Badger itself does
// not take a context for Open.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger keystore: path is required")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	// The keystore holds a handful of small keys per study. Compression and
	// large caches buy nothing here, and quiet logging keeps Badger out of
	// the client's own output.
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)
	opts = opts.WithBlockCacheSize(8 << 20)
	opts = opts.WithIndexCacheSize(4 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore at %s: %w", cfg.Path, err)
	}

	return &Store{db: db}, nil
}

// Get returns the value for key, or keystore.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return keystore.ErrKeyNotFound
		}
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, keystore.ErrKeyNotFound) {
			return nil, keystore.ErrKeyNotFound
		}
		return nil, fmt.Errorf("keystore get %s: %w", key, err)
	}

	return value, nil
}

// Set stores value under key, overwriting any previous value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("keystore set %s: %w", key, err)
	}

	return nil
}

// Has reports whether key exists without copying its value.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("keystore has %s: %w", key, err)
	}

	return found, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close keystore: %w", err)
	}

	return nil
}
