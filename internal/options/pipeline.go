package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// PipelineOptions configures the orchestrator's wall-clock budget (§5, §6).
type PipelineOptions struct {
	DeadlineSeconds                 int     `json:"deadline-seconds" mapstructure:"deadline-seconds"`
	ConfidenceFloorForDraftOnly     float64 `json:"confidence-floor-for-draft-only" mapstructure:"confidence-floor-for-draft-only"`
}

func NewPipelineOptions() *PipelineOptions {
	return &PipelineOptions{
		DeadlineSeconds:             300,
		ConfidenceFloorForDraftOnly: 0.60,
	}
}

func (o *PipelineOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.DeadlineSeconds, "pipeline.deadline-seconds", o.DeadlineSeconds, "Whole-pipeline wall-clock budget (§5).")
	fs.Float64Var(&o.ConfidenceFloorForDraftOnly, "quantification.confidence-floor-for-draft-only", o.ConfidenceFloorForDraftOnly, "Below this confidence_floor, the resulting IEP is forced to status=draft.")
}

func (o *PipelineOptions) Validate() []error {
	var errs []error
	if o.DeadlineSeconds < 1 {
		errs = append(errs, fmt.Errorf("pipeline.deadline-seconds must be >= 1"))
	}
	if o.ConfidenceFloorForDraftOnly < 0 || o.ConfidenceFloorForDraftOnly > 1 {
		errs = append(errs, fmt.Errorf("quantification.confidence-floor-for-draft-only must be in [0,1]"))
	}
	return errs
}
