package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/store"
	"github.com/brightpath-edu/iepforge/pkg/utils/json"
)

type TemplateStore struct{ db *bolt.DB }

func NewTemplateStore(db *DB) *TemplateStore { return &TemplateStore{db: db.Bolt()} }

func (s *TemplateStore) Create(_ context.Context, t *template.Template) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTemplates).Put([]byte(t.ID), data)
	})
}

func (s *TemplateStore) Get(_ context.Context, id string) (*template.Template, error) {
	var out template.Template
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketTemplates).Get([]byte(id))
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

func (s *TemplateStore) List(_ context.Context, disabilityCategory, gradeBand string, activeOnly bool) ([]*template.Template, error) {
	var out []*template.Template
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTemplates).ForEach(func(_, v []byte) error {
			var t template.Template
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("unmarshal template: %w", err)
			}
			if disabilityCategory != "" && t.DisabilityCategory != disabilityCategory {
				return nil
			}
			if gradeBand != "" && t.GradeBand != gradeBand {
				return nil
			}
			if activeOnly && !t.Active {
				return nil
			}
			out = append(out, &t)
			return nil
		})
	})
	return out, err
}

func (s *TemplateStore) Deactivate(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTemplates)
		data := b.Get([]byte(id))
		if data == nil {
			return store.ErrNotFound
		}
		var t template.Template
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("unmarshal template: %w", err)
		}
		t.Active = false
		updated, err := json.Marshal(&t)
		if err != nil {
			return fmt.Errorf("marshal template: %w", err)
		}
		return b.Put([]byte(id), updated)
	})
}
