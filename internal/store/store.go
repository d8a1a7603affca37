// Package store declares the repository interfaces every persistent
// entity in §3 is read and written through. internal/store/boltdb and
// internal/store/inmemory each provide a complete implementation.
package store

import (
	"context"
	"errors"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
	"github.com/brightpath-edu/iepforge/internal/domain/iep"
	"github.com/brightpath-edu/iepforge/internal/domain/profile"
	"github.com/brightpath-edu/iepforge/internal/domain/student"
	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/domain/trace"
)

// ErrNotFound is returned by any repository Get/Update when the id is
// absent. Callers at the service/handler boundary translate it into an
// errorx NotFound Kind.
var ErrNotFound = errors.New("store: not found")

// Students is the read-only mirror the pipeline consults; the system of
// record lives upstream (§1 Non-goals).
type Students interface {
	Get(ctx context.Context, id string) (*student.Student, error)
	Put(ctx context.Context, s *student.Student) error
}

type AssessmentDocuments interface {
	Create(ctx context.Context, d *assessment.Document) error
	Get(ctx context.Context, id string) (*assessment.Document, error)
	Update(ctx context.Context, d *assessment.Document) error
	ListByStudent(ctx context.Context, studentID string) ([]*assessment.Document, error)
}

type ScoreSets interface {
	Put(ctx context.Context, s *assessment.ScoreSet) error
	Get(ctx context.Context, documentID string) (*assessment.ScoreSet, error)
}

type Profiles interface {
	Put(ctx context.Context, p *profile.Profile) error
	Get(ctx context.Context, id string) (*profile.Profile, error)
	ListByStudent(ctx context.Context, studentID string) ([]*profile.Profile, error)
}

type Templates interface {
	Create(ctx context.Context, t *template.Template) error
	Get(ctx context.Context, id string) (*template.Template, error)
	// List filters by disability category / grade band / active status;
	// empty strings mean "any" and activeOnly=false means "any status".
	List(ctx context.Context, disabilityCategory, gradeBand string, activeOnly bool) ([]*template.Template, error)
	// Deactivate clears the Active flag, used when publishing a superseding version.
	Deactivate(ctx context.Context, id string) error
}

type IEPs interface {
	Create(ctx context.Context, i *iep.IEP) error
	Get(ctx context.Context, id string) (*iep.IEP, error)
	Update(ctx context.Context, i *iep.IEP) error
	ListByStudent(ctx context.Context, studentID string) ([]*iep.IEP, error)
	// MaxVersion returns the highest version number for a student, or 0 if
	// the student has no IEPs yet.
	MaxVersion(ctx context.Context, studentID string) (int, error)
	// LatestHead returns the most recently created IEP for a student
	// regardless of status, used as the new version's parent_version_id.
	LatestHead(ctx context.Context, studentID string) (*iep.IEP, error)
	// ActiveForStudent returns the derived "active IEP" view: the latest
	// IEP with status=active for a student (§9 redesign flag), or nil.
	ActiveForStudent(ctx context.Context, studentID string) (*iep.IEP, error)
}

type Traces interface {
	Append(ctx context.Context, t *trace.Trace) error
	ListByCorrelationID(ctx context.Context, correlationID string) ([]*trace.Trace, error)
}

// Store bundles every repository, the unit callers take a dependency on.
type Store struct {
	Students            Students
	AssessmentDocuments AssessmentDocuments
	ScoreSets           ScoreSets
	Profiles            Profiles
	Templates           Templates
	IEPs                IEPs
	Traces              Traces
}
