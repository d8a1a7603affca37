package quantifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
	"github.com/brightpath-edu/iepforge/internal/domain/profile"
	"github.com/brightpath-edu/iepforge/internal/service/quantifier"
)

func ptr(f float64) *float64 { return &f }

func newTestQuantifier(t *testing.T) *quantifier.Quantifier {
	t.Helper()
	q, err := (&quantifier.Config{}).Complete().New()
	require.NoError(t, err)
	return q
}

func TestQuantifyGroupsDomainsAndComputesComposite(t *testing.T) {
	q := newTestQuantifier(t)
	set := assessment.ScoreSet{
		DocumentID: "doc-1",
		Records: []assessment.ScoreRecord{
			{TestName: "WISC-V", SubtestName: "Verbal Comprehension Index", StandardScore: ptr(115), Confidence: 0.9},
			{TestName: "WISC-V", SubtestName: "Visual Spatial Index", StandardScore: ptr(105), Confidence: 0.9},
			{TestName: "WIAT-IV", SubtestName: "Reading Comprehension", StandardScore: ptr(78), Confidence: 0.85},
		},
	}

	p, err := q.Quantify("student-1", set, "5")
	require.NoError(t, err)

	require.Contains(t, p.Domains, profile.DomainVerbalComprehension)
	vci := p.Domains[profile.DomainVerbalComprehension]
	require.NotNil(t, vci.StandardScore)
	assert.InDelta(t, 115, *vci.StandardScore, 0.01)
	assert.Equal(t, string(assessment.HighAverage), vci.Classification)

	reading := p.Domains[profile.DomainReading]
	assert.Equal(t, string(assessment.Low), reading.Classification)

	assert.Contains(t, p.Strengths, profile.DomainVerbalComprehension)
	assert.Contains(t, p.Needs, profile.DomainReading)
	require.NotNil(t, p.AcademicComposite)
	require.NotNil(t, p.CognitiveComposite)
	assert.Nil(t, p.BehavioralComposite, "no behavioral records contributed")
}

func TestQuantifyUnmappedScoresReportedSeparately(t *testing.T) {
	q := newTestQuantifier(t)
	set := assessment.ScoreSet{
		DocumentID: "doc-1",
		Records: []assessment.ScoreRecord{
			{TestName: "Custom-Test", SubtestName: "Unrecognized Subtest", StandardScore: ptr(100), Confidence: 0.9},
		},
	}

	p, err := q.Quantify("student-1", set, "3")
	require.NoError(t, err)
	assert.Empty(t, p.Domains)
	assert.Equal(t, []string{"Custom-Test/Unrecognized Subtest"}, p.UnmappedScores)
}

func TestQuantifyBehavioralDomainUsesTScoreBands(t *testing.T) {
	q := newTestQuantifier(t)
	set := assessment.ScoreSet{
		DocumentID: "doc-1",
		Records: []assessment.ScoreRecord{
			{TestName: "BASC-3", SubtestName: "Attention Problems", StandardScore: ptr(72), Confidence: 0.9},
		},
	}

	p, err := q.Quantify("student-1", set, "4")
	require.NoError(t, err)
	attention := p.Domains[profile.DomainAttention]
	assert.Equal(t, "Clinically Significant", attention.Classification)
	assert.Contains(t, p.Needs, profile.DomainAttention)
	require.NotNil(t, p.BehavioralComposite)
	assert.Less(t, *p.BehavioralComposite, 50.0, "a clinically-significant T-score should invert to a below-midpoint composite")
}

func TestQuantifyRequiresManualReviewBelowConfidenceFloor(t *testing.T) {
	q := newTestQuantifier(t)
	set := assessment.ScoreSet{
		DocumentID: "doc-1",
		Records: []assessment.ScoreRecord{
			{TestName: "WISC-V", SubtestName: "Verbal Comprehension Index", StandardScore: ptr(100), Confidence: 0.3},
		},
	}

	p, err := q.Quantify("student-1", set, "2")
	require.NoError(t, err)
	assert.True(t, p.RequiresManualReview)
}

func TestQuantifyZeroContributingScoresIsNullNotZero(t *testing.T) {
	q := newTestQuantifier(t)
	set := assessment.ScoreSet{
		DocumentID: "doc-1",
		Records: []assessment.ScoreRecord{
			{TestName: "WISC-V", SubtestName: "Verbal Comprehension Index", ExtractionFlag: "not found"},
		},
	}

	p, err := q.Quantify("student-1", set, "1")
	require.NoError(t, err)
	vci, ok := p.Domains[profile.DomainVerbalComprehension]
	require.True(t, ok)
	assert.Nil(t, vci.StandardScore)
}
