package tracking

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// etagDBFile is the side-channel database under the tracking root.
	etagDBFile = "etags.db"

	// etagDBPerm is the permission mode for the etag database file.
	etagDBPerm = fs.FileMode(0o600)

	// etagOpenTimeout is the maximum time to wait for the bolt
	// database lock.
	etagOpenTimeout = 5 * time.Second
)

var etagBucket = []byte("etags")

// EtagStore holds the opaque optimistic-concurrency markers recorded
// for each tracked asset. Etags live beside, not inside, the tracking
// records: they are attached at read time and never serialized into
// the record files.
type EtagStore struct {
	db *bolt.DB
}

// OpenEtags opens the etag database under base's tracking root,
// creating it if it does not exist.
func OpenEtags(base string) (*EtagStore, error) {
	path := filepath.Join(base, Dir, etagDBFile)

	if err := os.MkdirAll(filepath.Dir(path), trackingDirPerm); err != nil {
		return nil, fmt.Errorf("creating tracking directory: %w", err)
	}

	db, err := bolt.Open(path, etagDBPerm, &bolt.Options{Timeout: etagOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening etag db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(etagBucket)

		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing etag db: %w", err)
	}

	return &EtagStore{db: db}, nil
}

// Close closes the database.
func (e *EtagStore) Close() error {
	return e.db.Close()
}

// Get returns the etag recorded for key, which is the record path
// relative to the tracking root.
func (e *EtagStore) Get(key string) (string, bool) {
	var etag string

	_ = e.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(etagBucket).Get([]byte(key))
		if v != nil {
			etag = string(v)
		}

		return nil
	})

	return etag, etag != ""
}

// Put records the etag for key.
func (e *EtagStore) Put(key, etag string) error {
	return e.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(etagBucket).Put([]byte(key), []byte(etag))
	})
}

// Delete removes the etag for key.
func (e *EtagStore) Delete(key string) error {
	return e.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(etagBucket).Delete([]byte(key))
	})
}
