// Package vectorindex implements the Vector Index (§4.3): a chunked,
// embedded store of prior IEPs and exemplar sections, searchable by cosine
// similarity with a metadata filter, grounded on the teacher's
// service/plugin/builtin/memory-core package.
package vectorindex

import "time"

// Chunk is one retrievable unit: a section (or sub-section) of a prior IEP,
// an exemplar template instance, or planning note, together with its
// embedding.
type Chunk struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id,omitempty"`
	SourceIEPID    string    `json:"source_iep_id,omitempty"`
	SectionKey     string    `json:"section_key,omitempty"`
	DisabilityCategory string `json:"disability_category,omitempty"`
	GradeBand      string    `json:"grade_band,omitempty"`
	Kind           string    `json:"kind"` // "prior_iep" | "exemplar" | "planning_note"
	Text           string    `json:"text"`
	Hash           string    `json:"hash"`
	Embedding      []float32 `json:"-"`
	Model          string    `json:"model"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Filter narrows a Search to chunks matching every non-empty field (§4.5:
// "per-section query-text embedding + vector search with metadata
// filter").
type Filter struct {
	StudentID          string
	Kind               string
	SectionKey         string
	DisabilityCategory string
	GradeBand          string
	ExcludeSourceIEPID string
}

// SearchHit is one ranked result from Search.
type SearchHit struct {
	Chunk      Chunk
	Similarity float64
}

// ChunkingConfig configures Chunk splitting (§4.3: "~1000 chars / 200
// overlap").
type ChunkingConfig struct {
	MaxChars     int
	OverlapChars int
}
