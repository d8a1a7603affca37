package boltdb

import "github.com/brightpath-edu/iepforge/internal/store"

// NewStore wires every BoltDB-backed repository into a store.Store.
func NewStore(db *DB) *store.Store {
	return &store.Store{
		Students:            NewStudentStore(db),
		AssessmentDocuments: NewAssessmentDocumentStore(db),
		ScoreSets:           NewScoreSetStore(db),
		Profiles:            NewProfileStore(db),
		Templates:           NewTemplateStore(db),
		IEPs:                NewIEPStore(db),
		Traces:              NewTraceStore(db),
	}
}
