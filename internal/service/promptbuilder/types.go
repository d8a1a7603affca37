// Package promptbuilder implements the RAG Prompt Builder (§4.5): for each
// template section, it retrieves exemplars from the Vector Index and
// assembles a labeled-slot prompt, grounded on the teacher's
// service/agents/domain/service/runtime/prompt package (PromptSection /
// Pipeline.Assemble with "log and skip" per-section failure policy).
package promptbuilder

import (
	"context"
	"time"

	"github.com/brightpath-edu/iepforge/internal/domain/profile"
	"github.com/brightpath-edu/iepforge/internal/domain/student"
	"github.com/brightpath-edu/iepforge/internal/domain/template"
)

// Context is the data envelope passed to every Slot.Render (§4.5 step 2:
// "role instruction; section requirements; student profile; quantified
// assessment; ... historical context; similar-IEP exemplars; critical
// constraints; output format instruction").
type Context struct {
	Student       *student.Student
	Profile       *profile.Profile
	Section       template.SectionSpec
	PlanningNotes string
	Now           time.Time
}

// Exemplar is one retrieved similar-IEP snippet, quoted with provenance
// (§4.5 step 2: "as quoted snippets with provenance markers").
type Exemplar struct {
	ChunkID     string
	SourceIEPID string
	Text        string
	Similarity  float64
}

// Slot renders one labeled segment of the assembled prompt. Sections are
// rendered in registration order — unlike the teacher's priority-sorted
// Pipeline, §4.5 step 2 fixes the slot order explicitly, so no separate
// priority field is needed.
type Slot interface {
	Name() string
	Render(ctx context.Context, pc *Context, exemplars []Exemplar) (string, error)
}

// Result is the Prompt Builder's output for one section (§4.5: "a prompt
// string ... plus the list of exemplar chunk ids used").
type Result struct {
	SectionKey  string
	PromptText  string
	PromptHash  string
	ExemplarIDs []string
}
