// Package extractor implements the Document Extractor (§4.1): fetch an
// assessment PDF, submit it to an external OCR/form-parser, map the
// returned entities onto ScoreRecords per an assessment-type schema, and
// compute per-field and overall confidence.
package extractor

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
	"github.com/brightpath-edu/iepforge/pkg/errorx"
	"github.com/brightpath-edu/iepforge/pkg/logger"
)

// Fetcher retrieves the raw bytes of a stored assessment document.
type Fetcher interface {
	Fetch(ctx context.Context, storageURI string) ([]byte, error)
}

// Entity is one field the OCR/form-parser recognized, with its own
// confidence, prior to schema mapping.
type Entity struct {
	Label      string
	Value      string
	Confidence float64
	TextSpan   string
}

// OCRResult is the raw output of the form-parser for one document.
type OCRResult struct {
	Entities []Entity
}

// OCRClient submits document bytes to the external OCR/form-parser service.
type OCRClient interface {
	Parse(ctx context.Context, assessmentType assessment.Type, data []byte) (*OCRResult, error)
}

// Config bundles the Extractor's dependencies and retry policy.
type Config struct {
	Fetcher             Fetcher
	OCRClient           OCRClient
	RetryMaxAttempts    int
	RetryBackoffBase    time.Duration
	ManualReviewThreshold float64
}

type completedConfig struct{ *Config }

// Complete fills defaults consistent with §4.1 and §6's configuration table.
func (c *Config) Complete() *completedConfig {
	if c.RetryMaxAttempts <= 0 {
		c.RetryMaxAttempts = 3
	}
	if c.RetryBackoffBase <= 0 {
		c.RetryBackoffBase = time.Second
	}
	if c.ManualReviewThreshold <= 0 {
		c.ManualReviewThreshold = 0.76
	}
	return &completedConfig{c}
}

// New builds an Extractor from a completed Config.
func (c *completedConfig) New() (*Extractor, error) {
	if c.Fetcher == nil {
		return nil, fmt.Errorf("extractor: Fetcher is required")
	}
	if c.OCRClient == nil {
		return nil, fmt.Errorf("extractor: OCRClient is required")
	}
	return &Extractor{cfg: *c.Config}, nil
}

// Extractor implements the public extract(document_ref) operation.
type Extractor struct {
	cfg Config
}

// Result is the Extractor's output for one AssessmentDocument (§4.1).
type Result struct {
	ScoreSet              assessment.ScoreSet
	OverallConfidence     float64
	ManualReviewRequired  bool
}

const (
	errExtractionFailed = 130101
)

func init() {
	errorx.MustRegister(errorx.NewCoder(errExtractionFailed, 422, "document extraction failed", ""))
}

// Extract runs the full §4.1 algorithm against one document reference.
func (e *Extractor) Extract(ctx context.Context, doc *assessment.Document) (*Result, error) {
	data, err := e.fetchWithRetry(ctx, doc.StorageURI)
	if err != nil {
		return nil, errorx.NewKind(errorx.KindExtractionFailed,
			errorx.WrapC(err, errExtractionFailed, "fetch document %q", doc.ID))
	}

	ocrResult, err := e.parseWithRetry(ctx, doc.AssessmentType, data)
	if err != nil {
		return nil, errorx.NewKind(errorx.KindExtractionFailed,
			errorx.WrapC(err, errExtractionFailed, "OCR/form-parse document %q", doc.ID))
	}

	schema := SchemaFor(doc.AssessmentType)
	records := schema.Map(ocrResult.Entities)
	if len(records) == 0 {
		return nil, errorx.NewKind(errorx.KindExtractionFailed,
			errorx.WithCode(errExtractionFailed, "zero entities recovered for document %q", doc.ID))
	}

	sum, manualReview := 0.0, false
	for _, r := range records {
		sum += r.Confidence
		if r.ExtractionFlag != "" {
			manualReview = true
		}
	}
	overall := clamp01(sum / float64(len(records)))
	if overall < e.cfg.ManualReviewThreshold {
		manualReview = true
	}

	logger.Info("[Extractor] document %s: %d records, overall_confidence=%.3f manual_review=%v",
		doc.ID, len(records), overall, manualReview)

	return &Result{
		ScoreSet: assessment.ScoreSet{
			DocumentID: doc.ID,
			Records:    records,
			CreatedAt:  time.Now(),
		},
		OverallConfidence:    overall,
		ManualReviewRequired: manualReview,
	}, nil
}

func (e *Extractor) fetchWithRetry(ctx context.Context, uri string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < e.cfg.RetryMaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, e.cfg.RetryBackoffBase, attempt); err != nil {
				return nil, err
			}
		}
		data, err := e.cfg.Fetcher.Fetch(ctx, uri)
		if err == nil {
			return data, nil
		}
		lastErr = err
		logger.Warn("[Extractor] fetch attempt %d/%d failed: %v", attempt+1, e.cfg.RetryMaxAttempts, err)
	}
	return nil, fmt.Errorf("fetch %q: exhausted %d attempts: %w", uri, e.cfg.RetryMaxAttempts, lastErr)
}

func (e *Extractor) parseWithRetry(ctx context.Context, t assessment.Type, data []byte) (*OCRResult, error) {
	var lastErr error
	for attempt := 0; attempt < e.cfg.RetryMaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, e.cfg.RetryBackoffBase, attempt); err != nil {
				return nil, err
			}
		}
		result, err := e.cfg.OCRClient.Parse(ctx, t, data)
		if err == nil {
			return result, nil
		}
		lastErr = err
		logger.Warn("[Extractor] OCR attempt %d/%d failed: %v", attempt+1, e.cfg.RetryMaxAttempts, err)
	}
	return nil, fmt.Errorf("OCR parse: exhausted %d attempts: %w", e.cfg.RetryMaxAttempts, lastErr)
}

// sleepBackoff waits base * 2^(attempt-1) plus jitter, honoring ctx
// cancellation (§4.1: "base 1s, factor 2, jitter").
func sleepBackoff(ctx context.Context, base time.Duration, attempt int) error {
	backoff := base << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(base)))
	select {
	case <-time.After(backoff + jitter):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
