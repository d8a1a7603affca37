// Package assessment models AssessmentDocument, ExtractedScoreSet and
// ScoreRecord, and the closed vocabularies their fields draw from.
package assessment

import (
	"fmt"
	"time"
)

// Type is the declared assessment instrument. The set is closed; unknown
// types fall back to a generic form-parser mapping in the extractor.
type Type string

const (
	WISCV    Type = "WISC-V"
	WIATIV   Type = "WIAT-IV"
	WJIV     Type = "WJ-IV"
	BASC3    Type = "BASC-3"
	CONNERS3 Type = "CONNERS-3"
	KTEA3    Type = "KTEA-3"
	DASII    Type = "DAS-II"
	BRIEF2   Type = "BRIEF-2"
	Other    Type = "Other"
)

// Valid reports whether t is one of the closed vocabulary's types,
// including the Other fallback (§3: "the set is closed; unknown types
// fall back to a generic form-parser mapping").
func (t Type) Valid() bool {
	switch t {
	case WISCV, WIATIV, WJIV, BASC3, CONNERS3, KTEA3, DASII, BRIEF2, Other:
		return true
	default:
		return false
	}
}

// Status is the AssessmentDocument processing state machine: pending ->
// extracting -> (extracted | failed) -> quantified, with no backward
// transitions except an explicit administrative reset back to pending.
type Status string

const (
	StatusPending    Status = "pending"
	StatusExtracting Status = "extracting"
	StatusExtracted  Status = "extracted"
	StatusQuantified Status = "quantified"
	StatusFailed     Status = "failed"
)

var validTransitions = map[Status][]Status{
	StatusPending:    {StatusExtracting},
	StatusExtracting: {StatusExtracted, StatusFailed},
	StatusExtracted:  {StatusQuantified},
	StatusQuantified: {},
	StatusFailed:     {StatusPending}, // administrative reset only.
}

// CanTransition reports whether from -> to is a legal AssessmentDocument
// state transition.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Document is the AssessmentDocument entity (§3).
type Document struct {
	ID                   string    `json:"id"`
	StudentID            string    `json:"student_id"`
	OriginalFileName     string    `json:"original_file_name"`
	StorageURI           string    `json:"storage_uri"`
	AssessmentType       Type      `json:"assessment_type"`
	AssessorName         string    `json:"assessor_name"`
	AssessmentDate       time.Time `json:"assessment_date"`
	ProcessingStatus     Status    `json:"processing_status"`
	OverallConfidence    float64   `json:"overall_confidence"`
	ManualReviewRequired bool      `json:"manual_review_required"`
	ExtractionNotes      string    `json:"extraction_notes,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Classification is the closed vocabulary for a ScoreRecord's performance
// band (§3).
type Classification string

const (
	VeryLow     Classification = "Very Low"
	Low         Classification = "Low"
	LowAverage  Classification = "Low Average"
	Average     Classification = "Average"
	HighAverage Classification = "High Average"
	High        Classification = "High"
	VeryHigh    Classification = "Very High"
)

var classificationOrder = map[Classification]int{
	VeryLow: 0, Low: 1, LowAverage: 2, Average: 3, HighAverage: 4, High: 5, VeryHigh: 6,
}

// AtOrBelowLowAverage reports whether c is Very Low, Low, or Low Average —
// the "needs" threshold from §3/§8 invariant 4.
func (c Classification) AtOrBelowLowAverage() bool {
	rank, ok := classificationOrder[c]
	return ok && rank <= classificationOrder[LowAverage]
}

// AtOrAboveHighAverage reports whether c qualifies a domain as a strength
// (§4.2 step 6).
func (c Classification) AtOrAboveHighAverage() bool {
	rank, ok := classificationOrder[c]
	return ok && rank >= classificationOrder[HighAverage]
}

// Valid reports whether c is drawn from the closed vocabulary.
func (c Classification) Valid() bool {
	_, ok := classificationOrder[c]
	return ok
}

// ScoreRecord is a single subtest result within an ExtractedScoreSet (§3).
type ScoreRecord struct {
	TestName                string          `json:"test_name"`
	SubtestName              string         `json:"subtest_name"`
	StandardScore            *float64        `json:"standard_score,omitempty"`
	ScaledScore               *float64       `json:"scaled_score,omitempty"`
	PercentileRank            *int           `json:"percentile_rank,omitempty"`
	ConfidenceIntervalLow     *float64       `json:"confidence_interval_low,omitempty"`
	ConfidenceIntervalHigh    *float64       `json:"confidence_interval_high,omitempty"`
	Classification            Classification `json:"classification,omitempty"`
	Confidence                float64        `json:"confidence"`
	SourceTextSpan            string         `json:"source_text_span,omitempty"`
	ExtractionFlag            string         `json:"extraction_flag,omitempty"`
}

// Validate enforces the ScoreRecord invariants from §3 and §8 invariant 3.
func (r ScoreRecord) Validate() error {
	if r.PercentileRank != nil && (*r.PercentileRank < 0 || *r.PercentileRank > 100) {
		return fmt.Errorf("score record %s/%s: percentile %d out of [0,100]", r.TestName, r.SubtestName, *r.PercentileRank)
	}
	if r.Classification != "" && !r.Classification.Valid() {
		return fmt.Errorf("score record %s/%s: classification %q not in closed vocabulary", r.TestName, r.SubtestName, r.Classification)
	}
	missingNumeric := r.StandardScore == nil && r.ScaledScore == nil && r.PercentileRank == nil
	if missingNumeric && r.ExtractionFlag == "" {
		return fmt.Errorf("score record %s/%s: missing numeric fields require an extraction_flag", r.TestName, r.SubtestName)
	}
	return nil
}

// ScoreSet is the ExtractedScoreSet entity (§3): an ordered list of
// ScoreRecords tied to one AssessmentDocument.
type ScoreSet struct {
	DocumentID string        `json:"document_id"`
	Records    []ScoreRecord `json:"records"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Validate checks every record's invariants, short-circuiting at the first
// violation so the caller can classify it as a ValidationError.
func (s ScoreSet) Validate() error {
	for i, r := range s.Records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

// DisplayConfidence remaps a raw [0,1] confidence into the 0.76-0.98
// reporting range referenced by spec.md §9's open question. Storage always
// keeps the raw value; only presentation layers call this.
func DisplayConfidence(raw float64) float64 {
	if raw < 0 {
		raw = 0
	}
	if raw > 1 {
		raw = 1
	}
	const lo, hi = 0.76, 0.98
	return lo + raw*(hi-lo)
}
