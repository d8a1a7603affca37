package quantifier

import (
	"sort"
	"strconv"

	"github.com/bytedance/gg/gptr"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
	"github.com/brightpath-edu/iepforge/internal/domain/profile"
)

// standardScoreRange is the plausible range of standard scores (mean 100
// SD 15) used to normalize composites to 0-100 (§4.2 step 7).
const standardScoreMin, standardScoreMax = 40.0, 160.0

// behavioralTScoreRange is the plausible range of T-scores (mean 50 SD 10).
const behavioralTScoreMin, behavioralTScoreMax = 30.0, 90.0

// composite averages the StandardScore of every domain in domainSet that
// has one, then normalizes to 0-100. When invert is true (behavioral
// domains) the normalized value is flipped so a higher composite always
// means fewer concerns (§4.2 step 7).
func composite(domains map[profile.Domain]profile.DomainScore, domainSet []profile.Domain, invert bool) *float64 {
	var sum float64
	var count int
	for _, d := range domainSet {
		ds, ok := domains[d]
		if !ok || ds.StandardScore == nil {
			continue
		}
		sum += *ds.StandardScore
		count++
	}
	if count == 0 {
		return nil
	}
	mean := sum / float64(count)

	lo, hi := standardScoreMin, standardScoreMax
	if invert {
		lo, hi = behavioralTScoreMin, behavioralTScoreMax
	}
	normalized := normalize(mean, lo, hi)
	if invert {
		normalized = 100 - normalized
	}
	return gptr.Of(normalized)
}

func normalize(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	n := (v - lo) / (hi - lo) * 100
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// strengthsAndNeeds implements §4.2 step 6: strengths are domains at or
// above High Average sorted descending by score; needs are domains at or
// below Low Average (or a behavioral concern band) sorted ascending by
// score, most severe first.
func strengthsAndNeeds(domains map[profile.Domain]profile.DomainScore) (strengths, needs []profile.Domain) {
	type scored struct {
		domain profile.Domain
		score  float64
	}
	var strong, weak []scored

	for domain, ds := range domains {
		if ds.StandardScore == nil {
			continue
		}
		score := *ds.StandardScore
		if isBehavioral(domain) {
			if behavioralBand(ds.Classification).isConcern() {
				weak = append(weak, scored{domain, score})
			}
			continue
		}
		class := assessment.Classification(ds.Classification)
		if class.AtOrAboveHighAverage() {
			strong = append(strong, scored{domain, score})
		} else if class.AtOrBelowLowAverage() {
			weak = append(weak, scored{domain, score})
		}
	}

	sort.Slice(strong, func(i, j int) bool { return strong[i].score > strong[j].score })
	sort.Slice(weak, func(i, j int) bool { return weak[i].score < weak[j].score })

	for _, s := range strong {
		strengths = append(strengths, s.domain)
	}
	for _, w := range weak {
		needs = append(needs, w.domain)
	}
	return strengths, needs
}

// gradeEquivalent derives "G.T" (§4.2 step 8): one grade level per 15
// standard-score points the academic_composite's underlying mean is below
// 100, floored at 0.
func gradeEquivalent(grade string, academicComposite *float64) string {
	currentGrade := parseGrade(grade)
	if academicComposite == nil {
		return ""
	}
	// academicComposite is already normalized 0-100; invert back to a
	// standard-score-equivalent deviation from the 100-mean midpoint (the
	// normalization's own midpoint, i.e. 50 on the 0-100 scale == 100
	// standard-score).
	deviation := (50 - *academicComposite) / 50 * 60
	offset := deviation / 15
	if offset < 0 {
		offset = 0
	}
	equivalentGrade := float64(currentGrade) - offset
	if equivalentGrade < 0 {
		equivalentGrade = 0
	}
	whole := int(equivalentGrade)
	tenth := int((equivalentGrade - float64(whole)) * 10)
	return gradeEquivalentString(whole, tenth)
}

func parseGrade(grade string) int {
	switch grade {
	case "K", "k", "Kindergarten":
		return 0
	}
	n := 0
	for _, r := range grade {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func gradeEquivalentString(whole, tenth int) string {
	return strconv.Itoa(whole) + "." + strconv.Itoa(tenth%10)
}
