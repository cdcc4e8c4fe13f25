package scanning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"
)

const cacheBucketName = "recognitions"

// cachedRecognition is the stored record. Only the recognised text is kept,
// never the image it came from.
type cachedRecognition struct {
	Backend   string    `json:"backend"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// BoltCache stores recognised text keyed by backend and image digest
type BoltCache struct {
	db *bbolt.DB
}

// NewBoltCache opens (or creates) a cache file at path
func NewBoltCache(path string) (*BoltCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cacheBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltCache{db: db}, nil
}

// Get returns the cached record for key, or nil when there is none
func (c *BoltCache) Get(key string) (*cachedRecognition, error) {
	var rec *cachedRecognition
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(cacheBucketName)).Get([]byte(key))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	return rec, nil
}

// Put stores rec under key
func (c *BoltCache) Put(key string, rec *cachedRecognition) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling cache entry: %w", err)
		}
		return tx.Bucket([]byte(cacheBucketName)).Put([]byte(key), data)
	})
}

// Len returns the number of cached recognitions
func (c *BoltCache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(cacheBucketName)).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the database connection
func (c *BoltCache) Close() error {
	return c.db.Close()
}

// Cached wraps a Recognizer so repeat scans of the same document are served
// from the cache instead of calling the backend again.
type Cached struct {
	cache   *BoltCache
	backend string
	next    Recognizer
	now     func() time.Time
}

// NewCached caches next's successful results under the backend name
func NewCached(cache *BoltCache, backend string, next Recognizer) *Cached {
	return &Cached{cache: cache, backend: backend, next: next, now: time.Now}
}

// Recognize implements Recognizer
func (c *Cached) Recognize(ctx context.Context, imageData []byte, contentType string) (string, error) {
	key := cacheKey(c.backend, imageData)

	rec, err := c.cache.Get(key)
	if err != nil {
		slog.Warn("Recognition cache read failed", "backend", c.backend, "error", err)
	} else if rec != nil {
		slog.Debug("Recognition cache hit", "backend", c.backend)
		return rec.Text, nil
	}

	text, err := c.next.Recognize(ctx, imageData, contentType)
	if err != nil {
		return "", err
	}

	if err := c.cache.Put(key, &cachedRecognition{Backend: c.backend, Text: text, CreatedAt: c.now()}); err != nil {
		slog.Warn("Recognition cache write failed", "backend", c.backend, "error", err)
	}
	return text, nil
}

// Close closes the wrapped recognizer; the cache is closed by its owner
func (c *Cached) Close() error {
	return c.next.Close()
}

func cacheKey(backend string, imageData []byte) string {
	sum := sha256.Sum256(imageData)
	return backend + ":" + hex.EncodeToString(sum[:])
}
