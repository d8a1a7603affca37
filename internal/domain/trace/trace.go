// Package trace models GenerationTrace, the append-only audit record
// emitted by every pipeline stage (§3, §7).
package trace

import "time"

// Outcome is the result recorded for one traced stage invocation.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeRetried Outcome = "retried"
	OutcomeFailed  Outcome = "failed"
)

// Stage names one pipeline component's invocation, used as the `stage`
// field on both GenerationTrace rows and structured log lines.
type Stage string

const (
	StageExtract    Stage = "extract"
	StageQuantify   Stage = "quantify"
	StageVectorSearch Stage = "vector_search"
	StagePromptBuild Stage = "prompt_build"
	StageGenerate   Stage = "generate"
	StageFlatten    Stage = "flatten"
	StageVersionWrite Stage = "version_write"
	StageIndex      Stage = "index"
)

// Trace is the GenerationTrace entity (§3). Immutable and append-only.
type Trace struct {
	ID              string    `json:"id"`
	CorrelationID   string    `json:"correlation_id"`
	Stage           Stage     `json:"stage"`
	DurationMS      int64     `json:"duration_ms"`
	InputSizeBytes  int64     `json:"input_size_bytes"`
	OutputSizeBytes int64     `json:"output_size_bytes"`
	Outcome         Outcome   `json:"outcome"`
	ErrorKind       string    `json:"error_kind,omitempty"`
	ModelID         string    `json:"model_id,omitempty"`
	PromptHash      string    `json:"prompt_hash,omitempty"`
	ResponseHash    string    `json:"response_hash,omitempty"`
	Note            string    `json:"note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Valid enforces §8 invariant 5: outcome=ok implies duration_ms > 0 and a
// non-empty prompt_hash when the stage is one that builds a prompt.
func (t Trace) Valid() bool {
	if t.Outcome == OutcomeOK && t.DurationMS <= 0 {
		return false
	}
	if t.Outcome == OutcomeOK && t.Stage == StageGenerate && t.PromptHash == "" {
		return false
	}
	return true
}
