package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// FileName is the name of the cache file inside the cache directory.
const FileName = "rankings.bolt"

// bucketName is the bbolt bucket holding ranking entries.
var bucketName = []byte("rankings")

// ErrClosed is returned when using a closed cache.
var ErrClosed = errors.New("cache is closed")

// Entry is a cached ranking result.
type Entry struct {
	Scores         map[string]float64 `json:"scores"`
	Iterations     int                `json:"iterations"`
	Representation string             `json:"representation"`
	StoredAt       time.Time          `json:"stored_at"`
}

// Cache persists ranking results keyed by fingerprint.
// It is safe for concurrent use.
type Cache struct {
	db     *bolt.DB
	path   string
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// Open opens or creates the cache file in dir.
func Open(dir string, opts ...Option) (*Cache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	c := &Cache{db: db, path: path}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

// Get returns the entry stored under fingerprint. A missing or corrupt
// entry is reported as a miss.
func (c *Cache) Get(fingerprint string) (*Entry, bool, error) {
	if c == nil || c.db == nil {
		return nil, false, ErrClosed
	}

	var raw []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(fingerprint)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}
	if raw == nil {
		return nil, false, nil
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil || len(entry.Scores) == 0 {
		c.logger.Warn("ignoring corrupt cache entry", "fingerprint", fingerprint)
		return nil, false, nil
	}

	return &entry, true, nil
}

// Put stores entry under fingerprint, replacing any previous entry.
func (c *Cache) Put(fingerprint string, entry *Entry) error {
	if c == nil || c.db == nil {
		return ErrClosed
	}
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(fingerprint), raw)
	}); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// Delete removes the entry stored under fingerprint.
func (c *Cache) Delete(fingerprint string) error {
	if c == nil || c.db == nil {
		return ErrClosed
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(fingerprint))
	})
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if c == nil || c.db == nil {
		return ErrClosed
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketName)
		return err
	})
}

// Path returns the cache file path.
func (c *Cache) Path() string {
	return c.path
}

// Len returns the number of cached entries.
func (c *Cache) Len() (int, error) {
	if c == nil || c.db == nil {
		return 0, ErrClosed
	}
	var n int
	err := c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketName).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the cache file.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
