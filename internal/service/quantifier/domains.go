// Package quantifier implements the Quantification Engine (§4.2): it
// converts an ExtractedScoreSet into a normalized QuantifiedProfile with
// per-domain standard scores, percentiles, classifications, composites,
// strengths/needs, and a grade-equivalent estimate.
package quantifier

import (
	"strings"

	"github.com/bytedance/gg/gslice"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
	"github.com/brightpath-edu/iepforge/internal/domain/profile"
)

// subtestSynonym maps a normalized subtest-name fragment to the Domain it
// feeds (§4.2 step 1: "group ScoreRecords into fixed score domains").
var subtestSynonym = map[string]profile.Domain{
	"verbal comprehension": profile.DomainVerbalComprehension,
	"vci":                  profile.DomainVerbalComprehension,
	"visual spatial":        profile.DomainVisualSpatial,
	"vsi":                   profile.DomainVisualSpatial,
	"fluid reasoning":       profile.DomainFluidReasoning,
	"fri":                   profile.DomainFluidReasoning,
	"working memory":        profile.DomainWorkingMemory,
	"wmi":                   profile.DomainWorkingMemory,
	"processing speed":      profile.DomainProcessingSpeed,
	"psi":                   profile.DomainProcessingSpeed,
	"reading":               profile.DomainReading,
	"math":                  profile.DomainMath,
	"numerical":             profile.DomainMath,
	"writing":               profile.DomainWriting,
	"written expression":    profile.DomainWriting,
	"essay":                 profile.DomainWriting,
	"oral language":         profile.DomainOralLanguage,
	"listening comprehension": profile.DomainOralLanguage,
	"attention":             profile.DomainAttention,
	"social":                profile.DomainSocial,
	"emotional":             profile.DomainEmotional,
	"anxiety":               profile.DomainEmotional,
}

// domainFor returns the Domain a ScoreRecord's subtest name maps to, or ""
// if the record is unmapped (§4.2 edge case: "unmapped scores are listed
// separately, never silently dropped").
func domainFor(r assessment.ScoreRecord) profile.Domain {
	name := strings.ToLower(r.SubtestName)
	for fragment, domain := range subtestSynonym {
		if strings.Contains(name, fragment) {
			return domain
		}
	}
	return ""
}

// allDomains is every Domain the quantifier recognizes, spanning cognitive,
// academic, and behavioral composites.
var allDomains = append(append(append([]profile.Domain{}, profile.CognitiveDomains...),
	profile.AcademicDomains...), profile.BehavioralDomains...)

// groupByDomain partitions records into per-Domain buckets using
// gslice.Filter — the teacher's collection-plumbing library — and returns
// any records that didn't match a known domain (§4.2 edge case: "unmapped
// scores are listed separately, never silently dropped").
func groupByDomain(records []assessment.ScoreRecord) (map[profile.Domain][]assessment.ScoreRecord, []assessment.ScoreRecord) {
	groups := make(map[profile.Domain][]assessment.ScoreRecord)
	for _, d := range allDomains {
		domain := d
		matched := gslice.Filter(records, func(r assessment.ScoreRecord) bool { return domainFor(r) == domain })
		if len(matched) > 0 {
			groups[domain] = matched
		}
	}

	unmapped := gslice.Filter(records, func(r assessment.ScoreRecord) bool { return domainFor(r) == "" })
	return groups, unmapped
}
