package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/brightpath-edu/iepforge/internal/domain/profile"
	"github.com/brightpath-edu/iepforge/internal/store"
	"github.com/brightpath-edu/iepforge/pkg/utils/json"
)

type ProfileStore struct{ db *bolt.DB }

func NewProfileStore(db *DB) *ProfileStore { return &ProfileStore{db: db.Bolt()} }

func (s *ProfileStore) Put(_ context.Context, p *profile.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal quantified profile: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProfiles).Put([]byte(p.ID), data)
	})
}

func (s *ProfileStore) Get(_ context.Context, id string) (*profile.Profile, error) {
	var out profile.Profile
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketProfiles).Get([]byte(id))
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

func (s *ProfileStore) ListByStudent(_ context.Context, studentID string) ([]*profile.Profile, error) {
	var out []*profile.Profile
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProfiles).ForEach(func(_, v []byte) error {
			var p profile.Profile
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("unmarshal quantified profile: %w", err)
			}
			if p.StudentID == studentID {
				out = append(out, &p)
			}
			return nil
		})
	})
	return out, err
}
