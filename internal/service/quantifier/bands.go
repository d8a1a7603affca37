package quantifier

import "github.com/brightpath-edu/iepforge/internal/domain/assessment"

// classifyStandardScore bands a cognitive/academic standard score (mean
// 100, SD 15) per §4.2 step 5.
func classifyStandardScore(score float64) assessment.Classification {
	switch {
	case score < 70:
		return assessment.VeryLow
	case score < 80:
		return assessment.Low
	case score < 90:
		return assessment.LowAverage
	case score < 110:
		return assessment.Average
	case score < 120:
		return assessment.HighAverage
	case score < 130:
		return assessment.High
	default:
		return assessment.VeryHigh
	}
}

// behavioralBand is the closed vocabulary for behavioral T-score bands
// (§4.2 step 5), distinct from the cognitive/academic Classification
// vocabulary since behavioral domains invert: higher = more concern.
type behavioralBand string

const (
	behavioralTypical              behavioralBand = "Typical"
	behavioralAtRisk               behavioralBand = "At-Risk"
	behavioralClinicallySignificant behavioralBand = "Clinically Significant"
)

// classifyBehavioralTScore bands a behavioral T-score per §4.2 step 5.
func classifyBehavioralTScore(tScore float64) behavioralBand {
	switch {
	case tScore >= 70:
		return behavioralClinicallySignificant
	case tScore >= 60:
		return behavioralAtRisk
	default:
		return behavioralTypical
	}
}

// isConcern reports whether a behavioral band counts as a need
// (§4.2 step 6: "Needs list = ... behavioral At-Risk/Clinically
// Significant").
func (b behavioralBand) isConcern() bool {
	return b == behavioralAtRisk || b == behavioralClinicallySignificant
}
