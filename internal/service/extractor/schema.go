package extractor

import (
	"strconv"
	"strings"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
)

// subtestPattern declares one expected subtest within an assessment type's
// schema: its canonical name, acceptable synonyms (case-insensitive), and
// whether it is mandatory for the document to be considered fully extracted
// (§4.1 step 3).
type subtestPattern struct {
	TestName    string
	SubtestName string
	Synonyms    []string
	Mandatory   bool
}

// Schema maps OCR entities onto ScoreRecords for one assessment type.
type Schema struct {
	assessmentType assessment.Type
	subtests       []subtestPattern
}

var schemas = map[assessment.Type]*Schema{
	assessment.WISCV: {
		assessmentType: assessment.WISCV,
		subtests: []subtestPattern{
			{TestName: "WISC-V", SubtestName: "Verbal Comprehension Index", Synonyms: []string{"vci", "verbal comprehension"}, Mandatory: true},
			{TestName: "WISC-V", SubtestName: "Visual Spatial Index", Synonyms: []string{"vsi", "visual spatial"}, Mandatory: true},
			{TestName: "WISC-V", SubtestName: "Fluid Reasoning Index", Synonyms: []string{"fri", "fluid reasoning"}, Mandatory: true},
			{TestName: "WISC-V", SubtestName: "Working Memory Index", Synonyms: []string{"wmi", "working memory"}, Mandatory: true},
			{TestName: "WISC-V", SubtestName: "Processing Speed Index", Synonyms: []string{"psi", "processing speed"}, Mandatory: true},
		},
	},
	assessment.WIATIV: {
		assessmentType: assessment.WIATIV,
		subtests: []subtestPattern{
			{TestName: "WIAT-IV", SubtestName: "Reading Comprehension", Synonyms: []string{"reading comp"}, Mandatory: true},
			{TestName: "WIAT-IV", SubtestName: "Math Problem Solving", Synonyms: []string{"math problem solving", "numerical operations"}, Mandatory: true},
			{TestName: "WIAT-IV", SubtestName: "Essay Composition", Synonyms: []string{"written expression", "essay"}, Mandatory: false},
		},
	},
	assessment.BASC3: {
		assessmentType: assessment.BASC3,
		subtests: []subtestPattern{
			{TestName: "BASC-3", SubtestName: "Attention Problems", Synonyms: []string{"attention"}, Mandatory: true},
			{TestName: "BASC-3", SubtestName: "Social Skills", Synonyms: []string{"social skills"}, Mandatory: false},
			{TestName: "BASC-3", SubtestName: "Anxiety", Synonyms: []string{"emotional", "anxiety"}, Mandatory: false},
		},
	},
}

// genericSchema is used for assessment.Other and any declared type with no
// dedicated pattern set (§4.1 step 3: "Unknown assessment types fall back
// to a generic form-parser mapping").
var genericSchema = &Schema{assessmentType: assessment.Other}

// SchemaFor returns the declared schema for t, or the generic fallback.
func SchemaFor(t assessment.Type) *Schema {
	if s, ok := schemas[t]; ok {
		return s
	}
	return genericSchema
}

// Map converts raw OCR entities into ScoreRecords. Every subtestPattern
// that matches an entity (by synonym) produces one ScoreRecord; unmatched
// mandatory subtests become a ScoreRecord with only an extraction_flag so
// the document can still reach a terminal state with partial data (§4.1:
// "Partial extractions ... succeed with manual_review_required=true").
func (s *Schema) Map(entities []Entity) []assessment.ScoreRecord {
	if len(s.subtests) == 0 {
		return mapGeneric(entities)
	}

	byLabel := make(map[string]Entity, len(entities))
	for _, e := range entities {
		byLabel[normalizeLabel(e.Label)] = e
	}

	var records []assessment.ScoreRecord
	for _, pat := range s.subtests {
		entity, matched := matchEntity(pat, byLabel)
		if !matched {
			if pat.Mandatory {
				records = append(records, assessment.ScoreRecord{
					TestName:       pat.TestName,
					SubtestName:    pat.SubtestName,
					ExtractionFlag: "mandatory field not found by form-parser",
				})
			}
			continue
		}
		records = append(records, buildRecord(pat.TestName, pat.SubtestName, entity))
	}
	return records
}

func matchEntity(pat subtestPattern, byLabel map[string]Entity) (Entity, bool) {
	if e, ok := byLabel[normalizeLabel(pat.SubtestName)]; ok {
		return e, true
	}
	for _, syn := range pat.Synonyms {
		if e, ok := byLabel[normalizeLabel(syn)]; ok {
			return e, true
		}
	}
	return Entity{}, false
}

// mapGeneric maps every recognized entity straight through as its own
// ScoreRecord, test_name = "Other" (§4.1 step 3 fallback path).
func mapGeneric(entities []Entity) []assessment.ScoreRecord {
	records := make([]assessment.ScoreRecord, 0, len(entities))
	for _, e := range entities {
		records = append(records, buildRecord("Other", e.Label, e))
	}
	return records
}

func buildRecord(testName, subtestName string, e Entity) assessment.ScoreRecord {
	rec := assessment.ScoreRecord{
		TestName:       testName,
		SubtestName:    subtestName,
		SourceTextSpan: e.TextSpan,
	}

	schemaConfidence := 1.0
	if score, ok := parseScore(e.Value); ok {
		rec.StandardScore = &score
		if score < 40 || score > 160 {
			schemaConfidence = 0.5 // out-of-range for a standard-score field; lower schema confidence.
		}
	} else {
		rec.ExtractionFlag = "value not parseable as a numeric score"
	}

	// Effective per-field confidence is min(parser_confidence, schema_confidence) (§4.1 step 4).
	rec.Confidence = minF(e.Confidence, schemaConfidence)
	return rec
}

func parseScore(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
