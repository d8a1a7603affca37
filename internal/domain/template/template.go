// Package template models IEPTemplate and SectionSpec (§3, §4.4). Templates
// are immutable once published; "editing" creates a new version and
// supersedes the old one.
package template

import (
	"fmt"
	"time"
)

// FieldSpec is one required field a generated section must populate,
// declared as a field-path with an expected type (§3).
type FieldSpec struct {
	Path string `json:"path"`
	Type string `json:"type"` // "string" | "list_of_strings" | "number" | "object"
}

// SectionSpec declares one template section's contract (§3).
type SectionSpec struct {
	SectionKey     string      `json:"section_key"`
	HumanTitle     string      `json:"human_title"`
	RequiredFields []FieldSpec `json:"required_fields"`
	GuidanceText   string      `json:"guidance_text"`
	MaxLengthChars int         `json:"max_length_chars"`
}

// Template is the IEPTemplate entity (§3). Sections is ordered; that order
// is the section-generation order (§4.6, §5).
type Template struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	DisabilityCategory string       `json:"disability_category"`
	GradeBand         string        `json:"grade_band"`
	Version           int           `json:"version"`
	Active            bool          `json:"active"`
	Sections          []SectionSpec `json:"sections"`
	CreatedAt         time.Time     `json:"created_at"`
}

// SectionKeys returns the ordered list of section_key values this template
// declares, for comparison against an IEP's content keys (§4.4, §8 invariant 2).
func (t Template) SectionKeys() []string {
	keys := make([]string, len(t.Sections))
	for i, s := range t.Sections {
		keys[i] = s.SectionKey
	}
	return keys
}

// Section looks up a SectionSpec by key.
func (t Template) Section(key string) (SectionSpec, bool) {
	for _, s := range t.Sections {
		if s.SectionKey == key {
			return s, true
		}
	}
	return SectionSpec{}, false
}

// Validate enforces that every section declares a non-empty key and at
// least one required field.
func (t Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template: name is required")
	}
	if len(t.Sections) == 0 {
		return fmt.Errorf("template %s: must declare at least one section", t.Name)
	}
	seen := make(map[string]bool, len(t.Sections))
	for _, s := range t.Sections {
		if s.SectionKey == "" {
			return fmt.Errorf("template %s: section missing section_key", t.Name)
		}
		if seen[s.SectionKey] {
			return fmt.Errorf("template %s: duplicate section_key %q", t.Name, s.SectionKey)
		}
		seen[s.SectionKey] = true
		if len(s.RequiredFields) == 0 {
			return fmt.Errorf("template %s: section %q declares no required_fields", t.Name, s.SectionKey)
		}
	}
	return nil
}
