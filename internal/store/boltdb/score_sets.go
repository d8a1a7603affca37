package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
	"github.com/brightpath-edu/iepforge/internal/store"
	"github.com/brightpath-edu/iepforge/pkg/utils/json"
)

// ScoreSetStore keys ExtractedScoreSet rows by their owning document id —
// there is exactly one per document, so Put overwrites (re-extraction
// replaces the prior set).
type ScoreSetStore struct{ db *bolt.DB }

func NewScoreSetStore(db *DB) *ScoreSetStore { return &ScoreSetStore{db: db.Bolt()} }

func (s *ScoreSetStore) Put(_ context.Context, set *assessment.ScoreSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal score set: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketScoreSets).Put([]byte(set.DocumentID), data)
	})
}

func (s *ScoreSetStore) Get(_ context.Context, documentID string) (*assessment.ScoreSet, error) {
	var out assessment.ScoreSet
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketScoreSets).Get([]byte(documentID))
		if data == nil {
			return store.ErrNotFound
		}
		return json.Unmarshal(data, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
