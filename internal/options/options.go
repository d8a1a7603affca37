// Package options declares the iepforge server's flag/config tree, mirroring
// the teacher's k8s-style Options -> Config -> Complete -> New assembly.
package options

import (
	"encoding/json"

	"github.com/brightpath-edu/iepforge/pkg/utils/cliflag"
)

// Options is the root of the configuration tree.
type Options struct {
	ServerRunOptions  *ServerRunOptions  `json:"server" mapstructure:"server"`
	LLMOptions        *LLMOptions        `json:"llm" mapstructure:"llm"`
	ExtractionOptions *ExtractionOptions `json:"extraction" mapstructure:"extraction"`
	VectorOptions     *VectorOptions     `json:"vector" mapstructure:"vector"`
	FlattenerOptions  *FlattenerOptions  `json:"flattener" mapstructure:"flattener"`
	VersioningOptions *VersioningOptions `json:"versioning" mapstructure:"versioning"`
	PipelineOptions   *PipelineOptions   `json:"pipeline" mapstructure:"pipeline"`
	AuthOptions       *AuthOptions       `json:"auth" mapstructure:"auth"`
	TemplateOptions   *TemplateOptions   `json:"templates" mapstructure:"templates"`
}

// NewOptions builds an Options tree populated with defaults.
func NewOptions() *Options {
	return &Options{
		ServerRunOptions:  NewServerRunOptions(),
		LLMOptions:        NewLLMOptions(),
		ExtractionOptions: NewExtractionOptions(),
		VectorOptions:     NewVectorOptions(),
		FlattenerOptions:  NewFlattenerOptions(),
		VersioningOptions: NewVersioningOptions(),
		PipelineOptions:   NewPipelineOptions(),
		AuthOptions:       NewAuthOptions(),
		TemplateOptions:   NewTemplateOptions(),
	}
}

// Flags registers every sub-option's flags under its own named flag set, so
// --help groups them the way the teacher's CLIs do.
func (o *Options) Flags() (fss cliflag.NamedFlagSets) {
	o.ServerRunOptions.AddFlags(fss.FlagSet("server"))
	o.LLMOptions.AddFlags(fss.FlagSet("llm"))
	o.ExtractionOptions.AddFlags(fss.FlagSet("extraction"))
	o.VectorOptions.AddFlags(fss.FlagSet("vector"))
	o.FlattenerOptions.AddFlags(fss.FlagSet("flattener"))
	o.VersioningOptions.AddFlags(fss.FlagSet("versioning"))
	o.PipelineOptions.AddFlags(fss.FlagSet("pipeline"))
	o.AuthOptions.AddFlags(fss.FlagSet("auth"))
	o.TemplateOptions.AddFlags(fss.FlagSet("templates"))
	return fss
}

// Validate aggregates every sub-option's Validate().
func (o *Options) Validate() []error {
	var errs []error
	errs = append(errs, o.ServerRunOptions.Validate()...)
	errs = append(errs, o.LLMOptions.Validate()...)
	errs = append(errs, o.ExtractionOptions.Validate()...)
	errs = append(errs, o.VectorOptions.Validate()...)
	errs = append(errs, o.FlattenerOptions.Validate()...)
	errs = append(errs, o.VersioningOptions.Validate()...)
	errs = append(errs, o.PipelineOptions.Validate()...)
	errs = append(errs, o.AuthOptions.Validate()...)
	errs = append(errs, o.TemplateOptions.Validate()...)
	return errs
}

// String renders the tree as JSON, used for --dump-config style diagnostics.
func (o *Options) String() string {
	data, _ := json.MarshalIndent(o, "", "  ")
	return string(data)
}
