// Package student models the Student entity. Students are owned by an
// external CRUD system; the pipeline only reads them.
package student

import "time"

// Student is the read-only identity and demographic record the pipeline
// consumes. It is never written by pipeline components.
//
// There is deliberately no stored "active IEP" pointer here: the active IEP
// is a derived view (the latest IEP with status=active for this student),
// computed by the IEP store, never a back-reference kept in sync by hand.
type Student struct {
	ID              string    `json:"id"`
	ExternalID      string    `json:"external_student_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	DateOfBirth     time.Time `json:"date_of_birth"`
	Grade           int       `json:"grade"`
	SchoolDistrict  string    `json:"school_district"`
	SchoolName      string    `json:"school_name"`
	DisabilityCodes []string  `json:"disability_codes"`
	EnrollmentDate  time.Time `json:"enrollment_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// FullName joins the name parts the way prompts and CLI tables display them.
func (s Student) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	return s.FirstName + " " + s.LastName
}

// PrimaryDisabilityCategory returns the first disability code, used to
// select a template's disability_category when the caller doesn't specify
// one explicitly. Empty when the student has no disability codes on file.
func (s Student) PrimaryDisabilityCategory() string {
	if len(s.DisabilityCodes) == 0 {
		return ""
	}
	return s.DisabilityCodes[0]
}
