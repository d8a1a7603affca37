// Package templatestore implements the Template Store (§4.4): an
// immutable, versioned IEPTemplate catalog with directory hot-reload,
// grounded on the teacher's memory manager (fsnotify watcher) and its
// BoltDB bucket-per-entity store.
package templatestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/store"
	"github.com/brightpath-edu/iepforge/pkg/errorx"
	"github.com/brightpath-edu/iepforge/pkg/logger"
	"github.com/brightpath-edu/iepforge/pkg/utils/json"
)

// Config bundles the Template Store's dependencies (§4.4, §6).
type Config struct {
	Store     store.Templates
	WatchDir  string // optional; empty disables hot-reload
}

type completedConfig struct{ *Config }

// Complete is a no-op beyond wrapping c, kept for symmetry with the rest of
// this repo's Config/Complete/New bootstrap shape.
func (c *Config) Complete() *completedConfig { return &completedConfig{c} }

// New builds a Store, optionally starting a directory watcher.
func (c *completedConfig) New() (*Store, error) {
	if c.Store == nil {
		return nil, fmt.Errorf("templatestore: Store is required")
	}
	s := &Store{repo: c.Store, watchDir: c.WatchDir}
	if c.WatchDir != "" {
		if err := s.loadDirectory(context.Background()); err != nil {
			return nil, err
		}
		if err := s.startWatcher(); err != nil {
			logger.Warn("[TemplateStore] failed to start directory watcher: %v", err)
		}
	}
	return s, nil
}

// Store implements the Template Store's public operations.
type Store struct {
	repo     store.Templates
	watchDir string
	watcher  *fsnotify.Watcher
	closeCh  chan struct{}
	closed   atomic.Bool
}

const (
	errTemplateMismatch = 130401
	errTemplateNotFound = 130402
)

func init() {
	errorx.MustRegister(errorx.NewCoder(errTemplateMismatch, 409, "template validation failed", ""))
	errorx.MustRegister(errorx.NewCoder(errTemplateNotFound, 404, "template not found", ""))
}

// Get returns a template by id.
func (s *Store) Get(ctx context.Context, id string) (*template.Template, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return t, nil
}

// List returns templates filtered by disability category, grade band, and
// active status (§4.4).
func (s *Store) List(ctx context.Context, disabilityCategory, gradeBand string, activeOnly bool) ([]*template.Template, error) {
	return s.repo.List(ctx, disabilityCategory, gradeBand, activeOnly)
}

// Publish creates a new Template version. If supersedes is non-empty, the
// superseded template is deactivated in the same call (§4.4: "editing
// produces a new template with version+1 and supersedes the old by setting
// the old's active flag false").
func (s *Store) Publish(ctx context.Context, t *template.Template, supersedes string) (*template.Template, error) {
	if err := t.Validate(); err != nil {
		return nil, errorx.NewKind(errorx.KindTemplateMismatch,
			errorx.WrapC(err, errTemplateMismatch, "publish template %q", t.Name))
	}

	t.ID = uuid.NewString()
	t.Active = true
	t.CreatedAt = time.Now()

	if supersedes != "" {
		prev, err := s.repo.Get(ctx, supersedes)
		if err != nil {
			return nil, translateNotFound(err)
		}
		t.Version = prev.Version + 1
		if err := s.repo.Deactivate(ctx, supersedes); err != nil {
			return nil, fmt.Errorf("templatestore: deactivate %q: %w", supersedes, err)
		}
	} else if t.Version == 0 {
		t.Version = 1
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("templatestore: create %q: %w", t.ID, err)
	}
	logger.Info("[TemplateStore] published template=%s name=%s version=%d supersedes=%s", t.ID, t.Name, t.Version, supersedes)
	return t, nil
}

// Deactivate marks a template inactive without superseding it.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return translateNotFound(err)
	}
	return nil
}

// Close stops the directory watcher, if one is running.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.closeCh != nil {
		close(s.closeCh)
	}
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// loadDirectory publishes every *.json file in watchDir as a new template
// version on first load.
func (s *Store) loadDirectory(ctx context.Context) error {
	entries, err := os.ReadDir(s.watchDir)
	if err != nil {
		return fmt.Errorf("templatestore: read dir %q: %w", s.watchDir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := s.loadFile(ctx, filepath.Join(s.watchDir, e.Name())); err != nil {
			logger.Warn("[TemplateStore] failed to load %s: %v", e.Name(), err)
		}
	}
	return nil
}

func (s *Store) loadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var t template.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}
	existing, err := s.findByName(ctx, t.Name)
	if err != nil {
		return err
	}
	supersedes := ""
	if existing != nil {
		if existing.Version == t.Version {
			return nil // unchanged, nothing to publish
		}
		supersedes = existing.ID
	}
	_, err = s.Publish(ctx, &t, supersedes)
	return err
}

func (s *Store) findByName(ctx context.Context, name string) (*template.Template, error) {
	all, err := s.repo.List(ctx, "", "", true)
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, nil
}

// startWatcher hot-reloads the template directory on write/create events,
// grounded on the teacher's memory manager's fsnotify watcher.
func (s *Store) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("templatestore: create watcher: %w", err)
	}
	if err := watcher.Add(s.watchDir); err != nil {
		watcher.Close()
		return fmt.Errorf("templatestore: watch %q: %w", s.watchDir, err)
	}
	s.watcher = watcher
	s.closeCh = make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && strings.HasSuffix(event.Name, ".json") {
					if err := s.loadFile(context.Background(), event.Name); err != nil {
						logger.Warn("[TemplateStore] reload %s failed: %v", event.Name, err)
					}
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-s.closeCh:
				return
			}
		}
	}()

	logger.Info("[TemplateStore] watching %s for template changes", s.watchDir)
	return nil
}

func translateNotFound(err error) error {
	if err == store.ErrNotFound {
		return errorx.NewKind(errorx.KindNotFound, errorx.WithCode(errTemplateNotFound, "template not found"))
	}
	return err
}
