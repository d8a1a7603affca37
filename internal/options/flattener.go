package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// FlattenerOptions configures the Response Flattener (§4.7).
type FlattenerOptions struct {
	MaxDepth int `json:"max-depth" mapstructure:"max-depth"`
}

func NewFlattenerOptions() *FlattenerOptions {
	return &FlattenerOptions{MaxDepth: 5}
}

func (o *FlattenerOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.MaxDepth, "flattener.max-depth", o.MaxDepth, "Objects nested past this depth are flagged and left untouched.")
}

func (o *FlattenerOptions) Validate() []error {
	var errs []error
	if o.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("flattener.max-depth must be >= 1"))
	}
	return errs
}
