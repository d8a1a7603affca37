// Package boltdb implements internal/store's repositories over BoltDB, one
// bucket per entity type, grounded on the teacher's
// service/agents/store/boltdb package.
package boltdb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/boltdb/bolt"
)

var (
	bucketStudents            = []byte("students")
	bucketAssessmentDocuments = []byte("assessment_documents")
	bucketScoreSets           = []byte("score_sets")
	bucketProfiles            = []byte("profiles")
	bucketTemplates           = []byte("templates")
	bucketIEPs                = []byte("ieps")
	bucketTraces              = []byte("traces")

	allBuckets = [][]byte{
		bucketStudents, bucketAssessmentDocuments, bucketScoreSets,
		bucketProfiles, bucketTemplates, bucketIEPs, bucketTraces,
	}
)

// DB wraps a BoltDB instance and manages its lifecycle.
type DB struct {
	db *bolt.DB
}

// Open creates the parent directory if needed, opens the BoltDB file, and
// ensures every entity bucket exists.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %q: %w", dir, err)
		}
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open boltdb %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %q: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) Bolt() *bolt.DB { return d.db }
