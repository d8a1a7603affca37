package vectorindex

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/brightpath-edu/iepforge/pkg/errorx"
	"github.com/brightpath-edu/iepforge/pkg/logger"
)

// Config bundles the Index's dependencies (§4.3).
type Config struct {
	StorePath   string
	Embedder    EmbeddingProvider
	ChunkingCfg ChunkingConfig
	TopK        int
}

type completedConfig struct{ *Config }

// Complete fills defaults consistent with §4.3/§6's configuration table.
func (c *Config) Complete() *completedConfig {
	if c.ChunkingCfg.MaxChars <= 0 {
		c.ChunkingCfg.MaxChars = 1000
	}
	if c.ChunkingCfg.OverlapChars <= 0 {
		c.ChunkingCfg.OverlapChars = 200
	}
	if c.TopK <= 0 {
		c.TopK = 3
	}
	return &completedConfig{c}
}

// New opens the backing SQLite store and builds an Index.
func (c *completedConfig) New() (*Index, error) {
	if c.Embedder == nil {
		return nil, fmt.Errorf("vectorindex: Embedder is required")
	}
	db, err := openDB(c.StorePath)
	if err != nil {
		return nil, err
	}
	return &Index{db: db, cfg: *c.Config}, nil
}

// Index implements the Vector Index's public operations: index a prior
// IEP's sections as retrievable chunks, and search for the top-K most
// similar chunks to a query (§4.3, §4.5).
type Index struct {
	db  *sql.DB
	cfg Config
}

const errUpstreamUnavailable = 130301

func init() {
	errorx.MustRegister(errorx.NewCoder(errUpstreamUnavailable, 503, "embedding backend unavailable", ""))
}

// Close releases the backing SQLite handle.
func (idx *Index) Close() error { return idx.db.Close() }

// IndexDocument chunks text and stores one embedded Chunk per window, all
// sharing the given metadata (§4.3: "~1000 chars / 200 overlap" windows).
// It returns the number of chunks written, used by callers that report a
// chunks-indexed count (§D reindex_student_history).
func (idx *Index) IndexDocument(ctx context.Context, text string, meta Chunk) (int, error) {
	windows := ChunkText(text, idx.cfg.ChunkingCfg)
	if len(windows) == 0 {
		return 0, nil
	}

	embeddings, err := idx.cfg.Embedder.EmbedBatch(ctx, windows)
	if err != nil {
		return 0, errorx.NewKind(errorx.KindUpstreamUnavailable,
			errorx.WrapC(err, errUpstreamUnavailable, "embed %d chunks", len(windows)))
	}

	for i, text := range windows {
		c := meta
		c.ID = ""
		c.Text = text
		c.Embedding = embeddings[i]
		c.Model = idx.cfg.Embedder.Model()
		if err := upsertChunk(ctx, idx.db, c); err != nil {
			return 0, err
		}
	}
	logger.Info("[VectorIndex] indexed %d chunks for student=%s kind=%s", len(windows), meta.StudentID, meta.Kind)
	return len(windows), nil
}

// DeleteBySourceIEP removes every chunk derived from one prior IEP version.
func (idx *Index) DeleteBySourceIEP(ctx context.Context, sourceIEPID string) error {
	return deleteBySourceIEP(ctx, idx.db, sourceIEPID)
}

// Search embeds query and returns the TopK nearest chunks matching f
// (§4.5: "per-section query-text embedding + vector search with metadata
// filter").
func (idx *Index) Search(ctx context.Context, query string, f Filter) ([]SearchHit, error) {
	vec, err := idx.cfg.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, errorx.NewKind(errorx.KindUpstreamUnavailable,
			errorx.WrapC(err, errUpstreamUnavailable, "embed query"))
	}
	return search(ctx, idx.db, vec, f, idx.cfg.TopK)
}
