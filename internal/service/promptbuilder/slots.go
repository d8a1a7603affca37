package promptbuilder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/brightpath-edu/iepforge/internal/domain/profile"
)

// criticalConstraints is inserted verbatim into every prompt (§4.5).
var criticalConstraints = []string{
	"Do not invent demographic facts beyond the provided student profile.",
	"Use the quantified data; do not replace numbers with prose paraphrases that lose magnitude.",
	"Connect assessment findings to instructional strategies and measurable objectives.",
	"Reference grade-level academic frameworks.",
	"Return a single JSON object matching the declared field structure; no markdown, no commentary.",
	"Escape embedded quotes.",
}

type roleInstructionSlot struct{}

func (roleInstructionSlot) Name() string { return "role_instruction" }

func (roleInstructionSlot) Render(_ context.Context, pc *Context, _ []Exemplar) (string, error) {
	return fmt.Sprintf("You are an experienced special education case manager drafting the %q section of an Individualized Education Program.", pc.Section.HumanTitle), nil
}

type sectionRequirementsSlot struct{}

func (sectionRequirementsSlot) Name() string { return "section_requirements" }

func (sectionRequirementsSlot) Render(_ context.Context, pc *Context, _ []Exemplar) (string, error) {
	var b strings.Builder
	b.WriteString("Section requirements:\n")
	if pc.Section.GuidanceText != "" {
		fmt.Fprintf(&b, "- Guidance: %s\n", pc.Section.GuidanceText)
	}
	for _, f := range pc.Section.RequiredFields {
		fmt.Fprintf(&b, "- Required field %q (type: %s)\n", f.Path, f.Type)
	}
	if pc.Section.MaxLengthChars > 0 {
		fmt.Fprintf(&b, "- Maximum length: %d characters\n", pc.Section.MaxLengthChars)
	}
	return b.String(), nil
}

type studentProfileSlot struct{}

func (studentProfileSlot) Name() string { return "student_profile" }

func (studentProfileSlot) Render(_ context.Context, pc *Context, _ []Exemplar) (string, error) {
	s := pc.Student
	if s == nil {
		return "", fmt.Errorf("promptbuilder: student profile slot requires a student")
	}
	var b strings.Builder
	b.WriteString("Student profile (use these exact fields; do not alter or round them):\n")
	fmt.Fprintf(&b, "- Name: %s\n", s.FullName())
	fmt.Fprintf(&b, "- Grade: %d\n", s.Grade)
	fmt.Fprintf(&b, "- School: %s (%s)\n", s.SchoolName, s.SchoolDistrict)
	fmt.Fprintf(&b, "- Primary disability category: %s\n", s.PrimaryDisabilityCategory())
	return b.String(), nil
}

type quantifiedAssessmentSlot struct{}

func (quantifiedAssessmentSlot) Name() string { return "quantified_assessment" }

func (quantifiedAssessmentSlot) Render(_ context.Context, pc *Context, _ []Exemplar) (string, error) {
	p := pc.Profile
	if p == nil {
		return "Quantified assessment: none available; note this explicitly rather than inventing scores.", nil
	}
	var b strings.Builder
	b.WriteString("Quantified assessment data:\n")
	fmt.Fprintf(&b, "- Strengths (in priority order): %s\n", domainList(p.Strengths))
	fmt.Fprintf(&b, "- Needs (most severe first): %s\n", domainList(p.Needs))
	if p.CognitiveComposite != nil {
		fmt.Fprintf(&b, "- Cognitive composite: %.1f\n", *p.CognitiveComposite)
	}
	if p.AcademicComposite != nil {
		fmt.Fprintf(&b, "- Academic composite: %.1f\n", *p.AcademicComposite)
	}
	if p.BehavioralComposite != nil {
		fmt.Fprintf(&b, "- Behavioral composite: %.1f\n", *p.BehavioralComposite)
	}
	if p.GradeEquivalent != "" {
		fmt.Fprintf(&b, "- Grade equivalent: %s\n", p.GradeEquivalent)
	}
	if p.LearningProfile != "" {
		fmt.Fprintf(&b, "- Learning profile: %s\n", p.LearningProfile)
	}
	var domainKeys []string
	for d := range p.Domains {
		domainKeys = append(domainKeys, string(d))
	}
	sort.Strings(domainKeys)
	for _, k := range domainKeys {
		ds := p.Domains[profile.Domain(k)]
		if ds.StandardScore == nil {
			continue
		}
		fmt.Fprintf(&b, "- %s: standard_score=%.1f classification=%s\n", k, *ds.StandardScore, ds.Classification)
	}
	return b.String(), nil
}

func domainList(domains []profile.Domain) string {
	if len(domains) == 0 {
		return "none identified"
	}
	strs := make([]string, len(domains))
	for i, d := range domains {
		strs[i] = string(d)
	}
	return strings.Join(strs, ", ")
}

type planningContextSlot struct{}

func (planningContextSlot) Name() string { return "planning_context" }

func (planningContextSlot) Render(_ context.Context, pc *Context, _ []Exemplar) (string, error) {
	if pc.PlanningNotes == "" {
		return "", nil
	}
	return "Educational planning and historical context:\n" + pc.PlanningNotes, nil
}

type exemplarsSlot struct{}

func (exemplarsSlot) Name() string { return "exemplars" }

func (exemplarsSlot) Render(_ context.Context, _ *Context, exemplars []Exemplar) (string, error) {
	if len(exemplars) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString("Similar prior IEP section exemplars (for style and structure only; do not copy facts):\n")
	for _, e := range exemplars {
		fmt.Fprintf(&b, "> [source_iep=%s similarity=%.2f] %s\n", e.SourceIEPID, e.Similarity, e.Text)
	}
	return b.String(), nil
}

type criticalConstraintsSlot struct{}

func (criticalConstraintsSlot) Name() string { return "critical_constraints" }

func (criticalConstraintsSlot) Render(_ context.Context, _ *Context, _ []Exemplar) (string, error) {
	var b strings.Builder
	b.WriteString("Critical constraints:\n")
	for _, c := range criticalConstraints {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	return b.String(), nil
}

type outputFormatSlot struct{}

func (outputFormatSlot) Name() string { return "output_format" }

func (outputFormatSlot) Render(_ context.Context, pc *Context, _ []Exemplar) (string, error) {
	fields := make([]string, len(pc.Section.RequiredFields))
	for i, f := range pc.Section.RequiredFields {
		fields[i] = fmt.Sprintf("%q (%s)", f.Path, f.Type)
	}
	return fmt.Sprintf("Return only valid JSON matching the field structure: {%s}. No markdown, no commentary.", strings.Join(fields, ", ")), nil
}

// fixedSlots is the fixed assembly order from §4.5 step 2.
var fixedSlots = []Slot{
	roleInstructionSlot{},
	sectionRequirementsSlot{},
	studentProfileSlot{},
	quantifiedAssessmentSlot{},
	planningContextSlot{},
	exemplarsSlot{},
	criticalConstraintsSlot{},
	outputFormatSlot{},
}
