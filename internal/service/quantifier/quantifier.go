package quantifier

import (
	"fmt"
	"math"
	"time"

	"github.com/bytedance/gg/gptr"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
	"github.com/brightpath-edu/iepforge/internal/domain/profile"
	"github.com/brightpath-edu/iepforge/pkg/logger"
)

// Config bundles the Quantification Engine's tunables (§4.2, §6).
type Config struct {
	ConfidenceFloorThreshold float64
}

type completedConfig struct{ *Config }

// Complete fills defaults consistent with §4.2's edge case ("confidence_floor
// < 0.60 is marked requires_manual_review").
func (c *Config) Complete() *completedConfig {
	if c.ConfidenceFloorThreshold <= 0 {
		c.ConfidenceFloorThreshold = profile.ConfidenceFloorThreshold
	}
	return &completedConfig{c}
}

// New builds a Quantifier from a completed Config.
func (c *completedConfig) New() (*Quantifier, error) {
	return &Quantifier{cfg: *c.Config}, nil
}

// Quantifier implements the public quantify(score_set, student.grade)
// operation (§4.2).
type Quantifier struct {
	cfg Config
}

// Quantify converts set into a QuantifiedProfile for a student in grade.
func (q *Quantifier) Quantify(studentID string, set assessment.ScoreSet, grade string) (*profile.Profile, error) {
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("quantifier: invalid score set: %w", err)
	}

	groups, unmapped := groupByDomain(set.Records)

	domains := make(map[profile.Domain]profile.DomainScore, len(groups))
	confidenceSum, confidenceCount := 0.0, 0
	for domain, records := range groups {
		ds := scoreDomain(domain, records)
		domains[domain] = ds
		if ds.StandardScore != nil {
			confidenceSum += ds.Confidence
			confidenceCount++
		}
	}

	confidenceFloor := 0.0
	if confidenceCount > 0 {
		confidenceFloor = confidenceSum / float64(confidenceCount)
	}

	strengths, needs := strengthsAndNeeds(domains)

	p := &profile.Profile{
		ID:                   "",
		StudentID:            studentID,
		AssessmentDocumentIDs: []string{set.DocumentID},
		CognitiveComposite:   composite(domains, profile.CognitiveDomains, false),
		AcademicComposite:    composite(domains, profile.AcademicDomains, false),
		BehavioralComposite:  composite(domains, profile.BehavioralDomains, true),
		Domains:              domains,
		Strengths:            strengths,
		Needs:                needs,
		UnmappedScores:       unmappedLabels(unmapped),
		ConfidenceFloor:      confidenceFloor,
		RequiresManualReview: confidenceFloor < q.cfg.ConfidenceFloorThreshold,
		CreatedAt:            time.Now(),
	}
	p.GradeEquivalent = gradeEquivalent(grade, p.AcademicComposite)

	logger.Info("[Quantifier] student=%s domains=%d strengths=%d needs=%d confidence_floor=%.3f manual_review=%v",
		studentID, len(domains), len(strengths), len(needs), confidenceFloor, p.RequiresManualReview)

	return p, nil
}

// toStandardScore prefers standard_score, otherwise converts scaled_score
// via the Wechsler-family linear transform (mean 10 SD 3 -> mean 100 SD 15)
// documented in §4.2 step 2.
func toStandardScore(r assessment.ScoreRecord) (float64, bool) {
	if r.StandardScore != nil {
		return *r.StandardScore, true
	}
	if r.ScaledScore != nil {
		return 100 + (*r.ScaledScore-10)/3*15, true
	}
	return 0, false
}

// scoreDomain computes the weighted-mean domain score (§4.2 steps 2-5).
// Weights are each contributing record's confidence.
func scoreDomain(domain profile.Domain, records []assessment.ScoreRecord) profile.DomainScore {
	behavioral := isBehavioral(domain)

	var weightedSum, weightSum float64
	for _, r := range records {
		score, ok := toStandardScore(r)
		if !ok {
			continue
		}
		w := r.Confidence
		if w <= 0 {
			w = 0.01
		}
		weightedSum += score * w
		weightSum += w
	}

	ds := profile.DomainScore{Domain: domain}
	if weightSum == 0 {
		return ds // null, not zero (§4.2 step 3)
	}

	mean := weightedSum / weightSum
	ds.StandardScore = gptr.Of(mean)
	ds.Confidence = weightSum / float64(len(records))

	if behavioral {
		ds.Classification = string(classifyBehavioralTScore(mean))
		ds.Percentile = gptr.Of(percentileFromZ(mean, 50, 10))
	} else {
		ds.Classification = string(classifyStandardScore(mean))
		ds.Percentile = gptr.Of(percentileFromZ(mean, 100, 15))
	}

	// Prefer an explicitly extracted percentile over the derived one when
	// the domain has a single contributing record that reported one (§4.2 step 4:
	// "derive ... when not supplied").
	if explicit, ok := explicitPercentile(records); ok {
		ds.Percentile = gptr.Of(explicit)
	}

	return ds
}

func explicitPercentile(records []assessment.ScoreRecord) (int, bool) {
	if len(records) != 1 || records[0].PercentileRank == nil {
		return 0, false
	}
	return *records[0].PercentileRank, true
}

// percentileFromZ derives a percentile rank from a normal distribution with
// the given mean/SD (§4.2 step 4), rounded to the nearest integer.
func percentileFromZ(score, mean, sd float64) int {
	z := (score - mean) / sd
	cdf := 0.5 * (1 + math.Erf(z/math.Sqrt2))
	pct := math.Round(cdf * 100)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return int(pct)
}

func isBehavioral(d profile.Domain) bool {
	for _, b := range profile.BehavioralDomains {
		if b == d {
			return true
		}
	}
	return false
}

func unmappedLabels(records []assessment.ScoreRecord) []string {
	if len(records) == 0 {
		return nil
	}
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = fmt.Sprintf("%s/%s", r.TestName, r.SubtestName)
	}
	return out
}
