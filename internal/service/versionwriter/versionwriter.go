// Package versionwriter implements the Versioned Writer half of §4.7: a
// per-student advisory lock serializes version assignment, content keys
// are validated against the owning template, the row is inserted as a new
// draft IEP, and — after the write commits — an index event is fired at
// the Vector Index without rolling back the IEP on failure (§4.7 step 6,
// §5's "writes are fire-and-forget from the pipeline's perspective").
package versionwriter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/brightpath-edu/iepforge/internal/domain/iep"
	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/service/vectorindex"
	"github.com/brightpath-edu/iepforge/internal/store"
	"github.com/brightpath-edu/iepforge/pkg/errorx"
	"github.com/brightpath-edu/iepforge/pkg/logger"
	"github.com/brightpath-edu/iepforge/pkg/utils/json"
)

const (
	errTemplateMismatch = 130701
	errConflict         = 130702
)

func init() {
	errorx.MustRegister(errorx.NewCoder(errTemplateMismatch, 409, "iep content keys do not match template section keys", ""))
	errorx.MustRegister(errorx.NewCoder(errConflict, 409, "version lock acquisition timed out", ""))
}

// Indexer is the subset of *vectorindex.Index the Versioned Writer depends
// on to push newly-written sections as searchable exemplars, narrowed so
// tests can fake it.
type Indexer interface {
	IndexDocument(ctx context.Context, text string, meta vectorindex.Chunk) (int, error)
}

// Config bundles the Versioned Writer's dependencies (§4.7, §6).
type Config struct {
	IEPs               store.IEPs
	Index              Indexer // optional; nil disables post-commit indexing
	LockTimeoutSeconds int
}

type completedConfig struct{ *Config }

// Complete fills the default lock timeout (§6: versioning.lock-timeout-seconds).
func (c *Config) Complete() *completedConfig {
	if c.LockTimeoutSeconds <= 0 {
		c.LockTimeoutSeconds = 10
	}
	return &completedConfig{c}
}

// New builds a Writer from a completed Config.
func (c *completedConfig) New() (*Writer, error) {
	if c.IEPs == nil {
		return nil, fmt.Errorf("versionwriter: IEPs store is required")
	}
	return &Writer{iEPs: c.IEPs, index: c.Index, lockTimeout: time.Duration(c.LockTimeoutSeconds) * time.Second}, nil
}

// Writer implements §4.7's persistence algorithm.
type Writer struct {
	iEPs        store.IEPs
	index       Indexer
	lockTimeout time.Duration

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// Draft is the assembled, flattened content plus everything the Writer
// needs to build and persist the new IEP row.
type Draft struct {
	StudentID          string
	Template           *template.Template
	AcademicYear       string
	Content            map[string]map[string]any
	MeetingDate        time.Time
	EffectiveDate      time.Time
	ReviewDate         time.Time
	CreatedBy          string
	DisabilityCategory string
}

// Write runs the §4.7 persistence algorithm: validate content keys, acquire
// the per-student lock, assign version = max+1, insert the draft row,
// release the lock, then fire a best-effort index event.
func (w *Writer) Write(ctx context.Context, d Draft) (*iep.IEP, error) {
	probe := iep.IEP{Content: d.Content}
	if !probe.KeysMatch(d.Template.SectionKeys()) {
		return nil, errorx.NewKind(errorx.KindTemplateMismatch,
			errorx.WithCode(errTemplateMismatch, "student=%s template=%s", d.StudentID, d.Template.ID))
	}

	unlock, err := w.acquire(ctx, d.StudentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	maxVersion, err := w.iEPs.MaxVersion(ctx, d.StudentID)
	if err != nil {
		return nil, fmt.Errorf("versionwriter: read max version for student %q: %w", d.StudentID, err)
	}
	head, err := w.iEPs.LatestHead(ctx, d.StudentID)
	if err != nil {
		return nil, fmt.Errorf("versionwriter: read latest head for student %q: %w", d.StudentID, err)
	}
	parentID := ""
	if head != nil {
		parentID = head.ID
	}

	content := make(map[string]map[string]any, len(d.Content))
	if err := copier.CopyWithOption(&content, &d.Content, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("versionwriter: deep-copy draft content: %w", err)
	}

	row := &iep.IEP{
		ID:              uuid.NewString(),
		StudentID:       d.StudentID,
		TemplateID:      d.Template.ID,
		TemplateVersion: d.Template.Version,
		AcademicYear:    d.AcademicYear,
		Status:          iep.StatusDraft,
		Content:         content,
		MeetingDate:     d.MeetingDate,
		EffectiveDate:   d.EffectiveDate,
		ReviewDate:      d.ReviewDate,
		Version:         maxVersion + 1,
		ParentVersionID: parentID,
		CreatedBy:       d.CreatedBy,
		CreatedAt:       time.Now(),
	}

	if err := w.iEPs.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("versionwriter: create iep for student %q: %w", d.StudentID, err)
	}

	logger.Info("[VersionWriter] student=%s iep=%s version=%d parent=%s", d.StudentID, row.ID, row.Version, parentID)

	unlock()
	w.indexAsync(row, d)

	return row, nil
}

// acquire claims the per-student semaphore, bounded by lockTimeout (§6:
// versioning.lock-timeout-seconds), surfacing a ConflictError on timeout
// (§7: "version-lock acquisition timed out"). The semaphore is a
// buffered channel rather than a sync.Mutex so the timeout branch can
// simply stop selecting on it: a bare mutex acquired from a spawned
// goroutine would leave that goroutine blocked on Lock() past the
// timeout, and if it later won the lock nothing would ever Unlock it.
func (w *Writer) acquire(ctx context.Context, studentID string) (func(), error) {
	sem := w.semaphoreFor(studentID)

	timer := time.NewTimer(w.lockTimeout)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		released := false
		return func() {
			if !released {
				released = true
				<-sem
			}
		}, nil
	case <-timer.C:
		return nil, errorx.NewKind(errorx.KindConflict,
			errorx.WithCode(errConflict, "student=%s lock_timeout=%s", studentID, w.lockTimeout))
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *Writer) semaphoreFor(studentID string) chan struct{} {
	w.locksMu.Lock()
	defer w.locksMu.Unlock()
	if w.locks == nil {
		w.locks = make(map[string]chan struct{})
	}
	sem, ok := w.locks[studentID]
	if !ok {
		sem = make(chan struct{}, 1)
		w.locks[studentID] = sem
	}
	return sem
}

// indexAsync pushes every section's text to the Vector Index in the
// background, outside the write transaction (§4.7 step 6, §5: "a failure
// here does NOT roll back the IEP").
func (w *Writer) indexAsync(row *iep.IEP, d Draft) {
	if w.index == nil {
		return
	}
	go func() {
		ctx := context.Background()
		for sectionKey, sectionContent := range row.Content {
			text, err := json.Marshal(sectionContent)
			if err != nil {
				logger.Warn("[VersionWriter] marshal section=%s for indexing failed: %v", sectionKey, err)
				continue
			}
			_, err = w.index.IndexDocument(ctx, string(text), vectorindex.Chunk{
				StudentID:          row.StudentID,
				SourceIEPID:        row.ID,
				SectionKey:         sectionKey,
				DisabilityCategory: d.DisabilityCategory,
				Kind:               "prior_iep",
			})
			if err != nil {
				logger.Warn("[VersionWriter] index section=%s for iep=%s failed (eventual consistency): %v", sectionKey, row.ID, err)
			}
		}
	}()
}
