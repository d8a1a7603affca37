// Package iep models the IEP entity and its draft/active/archived state
// machine (§3, §4.7).
package iep

import "time"

// Status is the IEP lifecycle state (§4.7).
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

var validTransitions = map[Status][]Status{
	StatusDraft:    {StatusActive},
	StatusActive:   {StatusArchived},
	StatusArchived: {},
}

// CanTransition reports whether from -> to is legal. "any -> draft" is
// forbidden except by creating a brand new version row (admin_reset_assessment
// never targets an IEP directly), so draft never appears as a destination here.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IEP is the IEP entity (§3). Content is keyed by section_key and must
// equal the owning template's section keys (§8 invariant 2).
type IEP struct {
	ID              string                    `json:"id"`
	StudentID       string                    `json:"student_id"`
	TemplateID      string                    `json:"template_id"`
	TemplateVersion int                       `json:"template_version"`
	AcademicYear    string                    `json:"academic_year"`
	Status          Status                    `json:"status"`
	Content         map[string]map[string]any `json:"content"`
	MeetingDate     time.Time                 `json:"meeting_date"`
	EffectiveDate   time.Time                 `json:"effective_date"`
	ReviewDate      time.Time                 `json:"review_date"`
	Version         int                       `json:"version"`
	ParentVersionID string                    `json:"parent_version_id,omitempty"`
	CreatedBy       string                    `json:"created_by"`
	CreatedAt       time.Time                 `json:"created_at"`
	ApprovedAt      *time.Time                `json:"approved_at,omitempty"`
	ApprovedBy      string                    `json:"approved_by,omitempty"`
}

// ContentKeys returns the content map's keys for comparison against a
// template's section keys (§4.4, §8 invariant 2).
func (i IEP) ContentKeys() []string {
	keys := make([]string, 0, len(i.Content))
	for k := range i.Content {
		keys = append(keys, k)
	}
	return keys
}

// KeysMatch reports whether i.Content's keys are exactly the given section
// keys, order-independent (§4.4's persistence guard).
func (i IEP) KeysMatch(sectionKeys []string) bool {
	if len(i.Content) != len(sectionKeys) {
		return false
	}
	for _, k := range sectionKeys {
		if _, ok := i.Content[k]; !ok {
			return false
		}
	}
	return true
}
