package promptbuilder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/brightpath-edu/iepforge/internal/service/vectorindex"
	"github.com/brightpath-edu/iepforge/pkg/logger"
)

// Searcher is the subset of *vectorindex.Index the Prompt Builder depends
// on, so it can be faked in tests without a SQLite-backed index.
type Searcher interface {
	Search(ctx context.Context, query string, f vectorindex.Filter) ([]vectorindex.SearchHit, error)
}

// Config bundles the Prompt Builder's dependencies (§4.5).
type Config struct {
	Index Searcher
	Slots []Slot // nil uses the fixed §4.5 step 2 order
}

type completedConfig struct{ *Config }

// Complete fills Slots with the fixed §4.5 order when unset.
func (c *Config) Complete() *completedConfig {
	if c.Slots == nil {
		c.Slots = fixedSlots
	}
	return &completedConfig{c}
}

// New validates dependencies and builds a Builder.
func (c *completedConfig) New() (*Builder, error) {
	if c.Index == nil {
		return nil, fmt.Errorf("promptbuilder: Index is required")
	}
	return &Builder{index: c.Index, slots: c.Slots}, nil
}

// Builder assembles one RAG-grounded prompt per template section (§4.5).
type Builder struct {
	index Searcher
	slots []Slot
}

// Build retrieves exemplars for pc.Section and renders every slot in fixed
// order, concatenating their non-empty output (§4.5 step 2). A slot that
// errors is logged and skipped, mirroring the teacher's "log and skip"
// per-section failure policy, except for the student profile slot, whose
// data is mandatory and whose error is propagated.
func (b *Builder) Build(ctx context.Context, pc *Context) (*Result, error) {
	exemplars, err := b.retrieveExemplars(ctx, pc)
	if err != nil {
		logger.Warn("[PromptBuilder] exemplar retrieval failed for section=%s: %v", pc.Section.SectionKey, err)
		exemplars = nil
	}

	var parts []string
	exemplarIDs := make([]string, 0, len(exemplars))
	for _, e := range exemplars {
		exemplarIDs = append(exemplarIDs, e.ChunkID)
	}

	for _, slot := range b.slots {
		text, err := slot.Render(ctx, pc, exemplars)
		if err != nil {
			if slot.Name() == "student_profile" {
				return nil, fmt.Errorf("promptbuilder: section %s: %w", pc.Section.SectionKey, err)
			}
			logger.Warn("[PromptBuilder] slot %s failed for section=%s: %v", slot.Name(), pc.Section.SectionKey, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
	}

	promptText := strings.Join(parts, "\n\n")
	return &Result{
		SectionKey:  pc.Section.SectionKey,
		PromptText:  promptText,
		PromptHash:  hashPrompt(promptText),
		ExemplarIDs: exemplarIDs,
	}, nil
}

// retrieveExemplars forms the query text from the section's guidance text,
// the top-ranked needs, and the disability category, then searches the
// Vector Index for similar prior-IEP sections (§4.5 step 1).
func (b *Builder) retrieveExemplars(ctx context.Context, pc *Context) ([]Exemplar, error) {
	query := queryText(pc)
	if query == "" {
		return nil, nil
	}

	disabilityCategory := ""
	if pc.Student != nil {
		disabilityCategory = pc.Student.PrimaryDisabilityCategory()
	}

	hits, err := b.index.Search(ctx, query, vectorindex.Filter{
		SectionKey:         pc.Section.SectionKey,
		DisabilityCategory: disabilityCategory,
	})
	if err != nil {
		return nil, err
	}

	exemplars := make([]Exemplar, len(hits))
	for i, h := range hits {
		exemplars[i] = Exemplar{
			ChunkID:     h.Chunk.ID,
			SourceIEPID: h.Chunk.SourceIEPID,
			Text:        h.Chunk.Text,
			Similarity:  h.Similarity,
		}
	}
	return exemplars, nil
}

// queryText forms the vector-search query: guidance text plus the
// top-ranked needs plus disability category (§4.5 step 1).
func queryText(pc *Context) string {
	var parts []string
	if pc.Section.GuidanceText != "" {
		parts = append(parts, pc.Section.GuidanceText)
	}
	if pc.Profile != nil && len(pc.Profile.Needs) > 0 {
		top := pc.Profile.Needs
		if len(top) > 3 {
			top = top[:3]
		}
		needs := make([]string, len(top))
		for i, n := range top {
			needs[i] = string(n)
		}
		parts = append(parts, strings.Join(needs, ", "))
	}
	if pc.Student != nil && pc.Student.PrimaryDisabilityCategory() != "" {
		parts = append(parts, pc.Student.PrimaryDisabilityCategory())
	}
	return strings.Join(parts, " ")
}

func hashPrompt(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
