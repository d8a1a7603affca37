package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/brightpath-edu/iepforge/internal/domain/student"
	"github.com/brightpath-edu/iepforge/internal/store"
	"github.com/brightpath-edu/iepforge/pkg/utils/json"
)

// StudentStore is a read-mostly mirror of the upstream student CRUD
// system (§1 Non-goals): Put is how the pipeline caches a student record it
// was handed, never how students are created.
type StudentStore struct{ db *bolt.DB }

func NewStudentStore(db *DB) *StudentStore { return &StudentStore{db: db.Bolt()} }

func (s *StudentStore) Get(_ context.Context, id string) (*student.Student, error) {
	var out student.Student
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketStudents).Get([]byte(id))
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

func (s *StudentStore) Put(_ context.Context, st *student.Student) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal student: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStudents).Put([]byte(st.ID), data)
	})
}
