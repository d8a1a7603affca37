package vectorindex

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/brightpath-edu/iepforge/pkg/utils/json"
)

// hashText returns the SHA256 hash of text, grounded on the teacher's
// memory-core/internal.HashText.
func hashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

type row struct {
	id, studentID, sourceIEPID, sectionKey string
	disabilityCategory, gradeBand, kind    string
	text, hash, model, embeddingJSON       string
	updatedAt                              int64
}

func (r row) toChunk() (Chunk, error) {
	var embedding []float32
	if err := json.Unmarshal([]byte(r.embeddingJSON), &embedding); err != nil {
		return Chunk{}, fmt.Errorf("vectorindex: unmarshal embedding for %s: %w", r.id, err)
	}
	return Chunk{
		ID:                 r.id,
		StudentID:          r.studentID,
		SourceIEPID:        r.sourceIEPID,
		SectionKey:         r.sectionKey,
		DisabilityCategory: r.disabilityCategory,
		GradeBand:          r.gradeBand,
		Kind:               r.kind,
		Text:               r.text,
		Hash:               r.hash,
		Embedding:          embedding,
		Model:              r.model,
		UpdatedAt:          time.Unix(r.updatedAt, 0).UTC(),
	}, nil
}

// upsertChunk inserts or replaces one chunk.
func upsertChunk(ctx context.Context, db *sql.DB, c Chunk) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Hash == "" {
		c.Hash = hashText(c.Text)
	}
	embJSON, err := json.Marshal(c.Embedding)
	if err != nil {
		return fmt.Errorf("vectorindex: marshal embedding: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO `+tableChunks+`
			(id, student_id, source_iep_id, section_key, disability_category, grade_band, kind, text, hash, model, embedding, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.StudentID, c.SourceIEPID, c.SectionKey, c.DisabilityCategory, c.GradeBand, c.Kind, c.Text, c.Hash, c.Model, string(embJSON), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("vectorindex: upsert chunk %s: %w", c.ID, err)
	}
	return nil
}

// deleteBySourceIEP removes every chunk derived from one prior IEP, used
// before that IEP's sections are re-indexed so its old chunks do not
// remain alongside the new ones.
func deleteBySourceIEP(ctx context.Context, db *sql.DB, sourceIEPID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM `+tableChunks+` WHERE source_iep_id = ?`, sourceIEPID)
	if err != nil {
		return fmt.Errorf("vectorindex: delete chunks for iep %s: %w", sourceIEPID, err)
	}
	return nil
}

// search performs a brute-force cosine-similarity KNN scan filtered by the
// given Filter, grounded on the teacher's memory-core/store.SearchVec
// (swapped for an in-process scan since no sqlite-vec extension ships in
// this module's dependency set).
func search(ctx context.Context, db *sql.DB, query []float32, f Filter, topK int) ([]SearchHit, error) {
	clauses := "WHERE 1=1"
	var args []any
	if f.StudentID != "" {
		clauses += " AND student_id = ?"
		args = append(args, f.StudentID)
	}
	if f.Kind != "" {
		clauses += " AND kind = ?"
		args = append(args, f.Kind)
	}
	if f.SectionKey != "" {
		clauses += " AND section_key = ?"
		args = append(args, f.SectionKey)
	}
	if f.DisabilityCategory != "" {
		clauses += " AND disability_category = ?"
		args = append(args, f.DisabilityCategory)
	}
	if f.GradeBand != "" {
		clauses += " AND grade_band = ?"
		args = append(args, f.GradeBand)
	}
	if f.ExcludeSourceIEPID != "" {
		clauses += " AND source_iep_id != ?"
		args = append(args, f.ExcludeSourceIEPID)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, student_id, source_iep_id, section_key, disability_category, grade_band, kind, text, hash, model, embedding, updated_at
		 FROM `+tableChunks+` `+clauses, args...)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: search query: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.studentID, &r.sourceIEPID, &r.sectionKey, &r.disabilityCategory, &r.gradeBand, &r.kind, &r.text, &r.hash, &r.model, &r.embeddingJSON, &r.updatedAt); err != nil {
			return nil, fmt.Errorf("vectorindex: scan row: %w", err)
		}
		c, err := r.toChunk()
		if err != nil {
			return nil, err
		}
		hits = append(hits, SearchHit{Chunk: c, Similarity: cosineSimilarity(query, c.Embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Ties broken by chunk_id ascending (§4.3 guarantee).
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}
