package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/brightpath-edu/iepforge/internal/domain/trace"
	"github.com/brightpath-edu/iepforge/pkg/utils/json"
)

// TraceStore is append-only: there is no Update or Delete, matching
// GenerationTrace's audit retention guarantee (§3).
type TraceStore struct{ db *bolt.DB }

func NewTraceStore(db *DB) *TraceStore { return &TraceStore{db: db.Bolt()} }

func (s *TraceStore) Append(_ context.Context, t *trace.Trace) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTraces).Put([]byte(t.ID), data)
	})
}

func (s *TraceStore) ListByCorrelationID(_ context.Context, correlationID string) ([]*trace.Trace, error) {
	var out []*trace.Trace
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTraces).ForEach(func(_, v []byte) error {
			var t trace.Trace
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("unmarshal trace: %w", err)
			}
			if t.CorrelationID == correlationID {
				out = append(out, &t)
			}
			return nil
		})
	})
	return out, err
}
