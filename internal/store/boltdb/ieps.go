package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/brightpath-edu/iepforge/internal/domain/iep"
	"github.com/brightpath-edu/iepforge/internal/store"
	"github.com/brightpath-edu/iepforge/pkg/utils/json"
)

type IEPStore struct{ db *bolt.DB }

func NewIEPStore(db *DB) *IEPStore { return &IEPStore{db: db.Bolt()} }

func (s *IEPStore) Create(_ context.Context, i *iep.IEP) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIEPs)
		if b.Get([]byte(i.ID)) != nil {
			return fmt.Errorf("iep %q already exists", i.ID)
		}
		data, err := json.Marshal(i)
		if err != nil {
			return fmt.Errorf("marshal iep: %w", err)
		}
		return b.Put([]byte(i.ID), data)
	})
}

func (s *IEPStore) Get(_ context.Context, id string) (*iep.IEP, error) {
	var out iep.IEP
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketIEPs).Get([]byte(id))
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

func (s *IEPStore) Update(_ context.Context, i *iep.IEP) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIEPs)
		if b.Get([]byte(i.ID)) == nil {
			return store.ErrNotFound
		}
		data, err := json.Marshal(i)
		if err != nil {
			return fmt.Errorf("marshal iep: %w", err)
		}
		return b.Put([]byte(i.ID), data)
	})
}

func (s *IEPStore) forStudent(tx *bolt.Tx, studentID string) ([]*iep.IEP, error) {
	var out []*iep.IEP
	err := tx.Bucket(bucketIEPs).ForEach(func(_, v []byte) error {
		var i iep.IEP
		if err := json.Unmarshal(v, &i); err != nil {
			return fmt.Errorf("unmarshal iep: %w", err)
		}
		if i.StudentID == studentID {
			out = append(out, &i)
		}
		return nil
	})
	return out, err
}

func (s *IEPStore) ListByStudent(_ context.Context, studentID string) ([]*iep.IEP, error) {
	var out []*iep.IEP
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		out, err = s.forStudent(tx, studentID)
		return err
	})
	return out, err
}

func (s *IEPStore) MaxVersion(_ context.Context, studentID string) (int, error) {
	max := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		ieps, err := s.forStudent(tx, studentID)
		if err != nil {
			return err
		}
		for _, i := range ieps {
			if i.Version > max {
				max = i.Version
			}
		}
		return nil
	})
	return max, err
}

// LatestHead returns the IEP with the highest version for the student,
// regardless of status — the new version's parent_version_id (§4.7 step 4).
func (s *IEPStore) LatestHead(_ context.Context, studentID string) (*iep.IEP, error) {
	var head *iep.IEP
	err := s.db.View(func(tx *bolt.Tx) error {
		ieps, err := s.forStudent(tx, studentID)
		if err != nil {
			return err
		}
		for _, i := range ieps {
			if head == nil || i.Version > head.Version {
				head = i
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return head, nil
}

// ActiveForStudent is the derived "active IEP" view (§9 redesign flag):
// the latest-version IEP currently in status=active, computed on read
// rather than kept as a stored back-pointer on Student.
func (s *IEPStore) ActiveForStudent(_ context.Context, studentID string) (*iep.IEP, error) {
	var active *iep.IEP
	err := s.db.View(func(tx *bolt.Tx) error {
		ieps, err := s.forStudent(tx, studentID)
		if err != nil {
			return err
		}
		for _, i := range ieps {
			if i.Status != iep.StatusActive {
				continue
			}
			if active == nil || i.Version > active.Version {
				active = i
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return active, nil
}
