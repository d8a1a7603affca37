// Package inmemory implements internal/store's repositories over plain
// guarded maps, grounded on the teacher's
// service/agents/store/inmemory package. Used for fast unit tests that
// don't need a BoltDB file on disk.
package inmemory

import (
	"context"
	"sync"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
	"github.com/brightpath-edu/iepforge/internal/domain/iep"
	"github.com/brightpath-edu/iepforge/internal/domain/profile"
	"github.com/brightpath-edu/iepforge/internal/domain/student"
	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/domain/trace"
	"github.com/brightpath-edu/iepforge/internal/store"
)

type studentStore struct {
	mu sync.RWMutex
	m  map[string]*student.Student
}

func newStudentStore() *studentStore { return &studentStore{m: map[string]*student.Student{}} }

func (s *studentStore) Get(_ context.Context, id string) (*student.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.m[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return st, nil
}

func (s *studentStore) Put(_ context.Context, st *student.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[st.ID] = st
	return nil
}

type assessmentDocumentStore struct {
	mu sync.RWMutex
	m  map[string]*assessment.Document
}

func newAssessmentDocumentStore() *assessmentDocumentStore {
	return &assessmentDocumentStore{m: map[string]*assessment.Document{}}
}

func (s *assessmentDocumentStore) Create(_ context.Context, d *assessment.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[d.ID] = d
	return nil
}

func (s *assessmentDocumentStore) Get(_ context.Context, id string) (*assessment.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.m[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (s *assessmentDocumentStore) Update(_ context.Context, d *assessment.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[d.ID]; !ok {
		return store.ErrNotFound
	}
	s.m[d.ID] = d
	return nil
}

func (s *assessmentDocumentStore) ListByStudent(_ context.Context, studentID string) ([]*assessment.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*assessment.Document
	for _, d := range s.m {
		if d.StudentID == studentID {
			out = append(out, d)
		}
	}
	return out, nil
}

type scoreSetStore struct {
	mu sync.RWMutex
	m  map[string]*assessment.ScoreSet
}

func newScoreSetStore() *scoreSetStore { return &scoreSetStore{m: map[string]*assessment.ScoreSet{}} }

func (s *scoreSetStore) Put(_ context.Context, set *assessment.ScoreSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[set.DocumentID] = set
	return nil
}

func (s *scoreSetStore) Get(_ context.Context, documentID string) (*assessment.ScoreSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.m[documentID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return set, nil
}

type profileStore struct {
	mu sync.RWMutex
	m  map[string]*profile.Profile
}

func newProfileStore() *profileStore { return &profileStore{m: map[string]*profile.Profile{}} }

func (s *profileStore) Put(_ context.Context, p *profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[p.ID] = p
	return nil
}

func (s *profileStore) Get(_ context.Context, id string) (*profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.m[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (s *profileStore) ListByStudent(_ context.Context, studentID string) ([]*profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*profile.Profile
	for _, p := range s.m {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	return out, nil
}

type templateStore struct {
	mu sync.RWMutex
	m  map[string]*template.Template
}

func newTemplateStore() *templateStore { return &templateStore{m: map[string]*template.Template{}} }

func (s *templateStore) Create(_ context.Context, t *template.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[t.ID] = t
	return nil
}

func (s *templateStore) Get(_ context.Context, id string) (*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.m[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (s *templateStore) List(_ context.Context, disabilityCategory, gradeBand string, activeOnly bool) ([]*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*template.Template
	for _, t := range s.m {
		if disabilityCategory != "" && t.DisabilityCategory != disabilityCategory {
			continue
		}
		if gradeBand != "" && t.GradeBand != gradeBand {
			continue
		}
		if activeOnly && !t.Active {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *templateStore) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.m[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Active = false
	return nil
}

type iepStore struct {
	mu sync.RWMutex
	m  map[string]*iep.IEP
}

func newIEPStore() *iepStore { return &iepStore{m: map[string]*iep.IEP{}} }

func (s *iepStore) Create(_ context.Context, i *iep.IEP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[i.ID] = i
	return nil
}

func (s *iepStore) Get(_ context.Context, id string) (*iep.IEP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.m[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return i, nil
}

func (s *iepStore) Update(_ context.Context, i *iep.IEP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[i.ID]; !ok {
		return store.ErrNotFound
	}
	s.m[i.ID] = i
	return nil
}

func (s *iepStore) forStudent(studentID string) []*iep.IEP {
	var out []*iep.IEP
	for _, i := range s.m {
		if i.StudentID == studentID {
			out = append(out, i)
		}
	}
	return out
}

func (s *iepStore) ListByStudent(_ context.Context, studentID string) ([]*iep.IEP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forStudent(studentID), nil
}

func (s *iepStore) MaxVersion(_ context.Context, studentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, i := range s.forStudent(studentID) {
		if i.Version > max {
			max = i.Version
		}
	}
	return max, nil
}

func (s *iepStore) LatestHead(_ context.Context, studentID string) (*iep.IEP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var head *iep.IEP
	for _, i := range s.forStudent(studentID) {
		if head == nil || i.Version > head.Version {
			head = i
		}
	}
	return head, nil
}

func (s *iepStore) ActiveForStudent(_ context.Context, studentID string) (*iep.IEP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var active *iep.IEP
	for _, i := range s.forStudent(studentID) {
		if i.Status != iep.StatusActive {
			continue
		}
		if active == nil || i.Version > active.Version {
			active = i
		}
	}
	return active, nil
}

type traceStore struct {
	mu sync.RWMutex
	m  map[string]*trace.Trace
}

func newTraceStore() *traceStore { return &traceStore{m: map[string]*trace.Trace{}} }

func (s *traceStore) Append(_ context.Context, t *trace.Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[t.ID] = t
	return nil
}

func (s *traceStore) ListByCorrelationID(_ context.Context, correlationID string) ([]*trace.Trace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*trace.Trace
	for _, t := range s.m {
		if t.CorrelationID == correlationID {
			out = append(out, t)
		}
	}
	return out, nil
}

// NewStore wires every in-memory repository into a store.Store.
func NewStore() *store.Store {
	return &store.Store{
		Students:            newStudentStore(),
		AssessmentDocuments: newAssessmentDocumentStore(),
		ScoreSets:           newScoreSetStore(),
		Profiles:            newProfileStore(),
		Templates:           newTemplateStore(),
		IEPs:                newIEPStore(),
		Traces:              newTraceStore(),
	}
}
