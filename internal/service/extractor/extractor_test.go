package extractor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
	"github.com/brightpath-edu/iepforge/internal/service/extractor"
	"github.com/brightpath-edu/iepforge/pkg/errorx"
)

type fakeFetcher struct {
	data []byte
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	return f.data, f.err
}

type fakeOCRClient struct {
	result *extractor.OCRResult
	err    error
}

func (f *fakeOCRClient) Parse(_ context.Context, _ assessment.Type, _ []byte) (*extractor.OCRResult, error) {
	return f.result, f.err
}

func newTestExtractor(t *testing.T, fetcher extractor.Fetcher, ocr extractor.OCRClient) *extractor.Extractor {
	t.Helper()
	ex, err := (&extractor.Config{
		Fetcher:          fetcher,
		OCRClient:        ocr,
		RetryMaxAttempts: 1,
		RetryBackoffBase: time.Millisecond,
	}).Complete().New()
	require.NoError(t, err)
	return ex
}

func doc() *assessment.Document {
	return &assessment.Document{
		ID:             "doc-1",
		StudentID:      "student-1",
		StorageURI:     "s3://bucket/doc-1.pdf",
		AssessmentType: assessment.WISCV,
	}
}

// Scenario B (§8): partial extraction recovers some but not all mandatory
// fields, and the document still succeeds with manual_review_required=true.
func TestExtractPartialSetsManualReview(t *testing.T) {
	ocr := &fakeOCRClient{result: &extractor.OCRResult{Entities: []extractor.Entity{
		{Label: "Verbal Comprehension Index", Value: "95", Confidence: 0.9},
		{Label: "Working Memory Index", Value: "88", Confidence: 0.85},
	}}}
	ex := newTestExtractor(t, &fakeFetcher{data: []byte("pdf-bytes")}, ocr)

	result, err := ex.Extract(context.Background(), doc())
	require.NoError(t, err)
	assert.True(t, result.ManualReviewRequired, "three mandatory subtests went unmatched")
	assert.Len(t, result.ScoreSet.Records, 5, "unmatched mandatory subtests still produce a flagged record")

	var flagged int
	for _, r := range result.ScoreSet.Records {
		if r.ExtractionFlag != "" {
			flagged++
			assert.Nil(t, r.StandardScore)
		}
	}
	assert.Equal(t, 3, flagged)
}

func TestExtractFullConfidence(t *testing.T) {
	ocr := &fakeOCRClient{result: &extractor.OCRResult{Entities: []extractor.Entity{
		{Label: "vci", Value: "100", Confidence: 0.95},
		{Label: "vsi", Value: "105", Confidence: 0.95},
		{Label: "fri", Value: "98", Confidence: 0.9},
		{Label: "wmi", Value: "90", Confidence: 0.9},
		{Label: "psi", Value: "102", Confidence: 0.92},
	}}}
	ex := newTestExtractor(t, &fakeFetcher{data: []byte("pdf-bytes")}, ocr)

	result, err := ex.Extract(context.Background(), doc())
	require.NoError(t, err)
	assert.False(t, result.ManualReviewRequired)
	assert.Len(t, result.ScoreSet.Records, 5)
	assert.Greater(t, result.OverallConfidence, 0.8)
}

// Zero entities recovered is a hard extraction failure, not a partial
// success (§4.1 failure semantics).
func TestExtractZeroEntitiesFails(t *testing.T) {
	ocr := &fakeOCRClient{result: &extractor.OCRResult{}}
	ex := newTestExtractor(t, &fakeFetcher{data: []byte("pdf-bytes")}, ocr)

	d := doc()
	d.AssessmentType = assessment.Other

	_, err := ex.Extract(context.Background(), d)
	require.Error(t, err)
	assert.Equal(t, errorx.KindExtractionFailed, errorx.KindOf(err))
}

func TestExtractFetchExhaustsRetries(t *testing.T) {
	fetchErr := errors.New("connection refused")
	ex := newTestExtractor(t, &fakeFetcher{err: fetchErr}, &fakeOCRClient{})

	_, err := ex.Extract(context.Background(), doc())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch document")
}

func TestExtractOutOfRangeScoreLowersConfidence(t *testing.T) {
	ocr := &fakeOCRClient{result: &extractor.OCRResult{Entities: []extractor.Entity{
		{Label: "vci", Value: "999", Confidence: 0.95},
	}}}
	ex := newTestExtractor(t, &fakeFetcher{data: []byte("pdf-bytes")}, ocr)

	result, err := ex.Extract(context.Background(), doc())
	require.NoError(t, err)
	for _, r := range result.ScoreSet.Records {
		if r.SubtestName == "Verbal Comprehension Index" {
			assert.LessOrEqual(t, r.Confidence, 0.5)
		}
	}
}
