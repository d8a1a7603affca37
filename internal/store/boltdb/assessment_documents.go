package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
	"github.com/brightpath-edu/iepforge/internal/store"
	"github.com/brightpath-edu/iepforge/pkg/utils/json"
)

type AssessmentDocumentStore struct{ db *bolt.DB }

func NewAssessmentDocumentStore(db *DB) *AssessmentDocumentStore {
	return &AssessmentDocumentStore{db: db.Bolt()}
}

func (s *AssessmentDocumentStore) Create(_ context.Context, d *assessment.Document) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAssessmentDocuments)
		if b.Get([]byte(d.ID)) != nil {
			return fmt.Errorf("assessment document %q already exists", d.ID)
		}
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshal assessment document: %w", err)
		}
		return b.Put([]byte(d.ID), data)
	})
}

func (s *AssessmentDocumentStore) Get(_ context.Context, id string) (*assessment.Document, error) {
	var out assessment.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketAssessmentDocuments).Get([]byte(id))
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

func (s *AssessmentDocumentStore) Update(_ context.Context, d *assessment.Document) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAssessmentDocuments)
		if b.Get([]byte(d.ID)) == nil {
			return store.ErrNotFound
		}
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshal assessment document: %w", err)
		}
		return b.Put([]byte(d.ID), data)
	})
}

func (s *AssessmentDocumentStore) ListByStudent(_ context.Context, studentID string) ([]*assessment.Document, error) {
	var out []*assessment.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAssessmentDocuments).ForEach(func(_, v []byte) error {
			var d assessment.Document
			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("unmarshal assessment document: %w", err)
			}
			if d.StudentID == studentID {
				out = append(out, &d)
			}
			return nil
		})
	})
	return out, err
}
