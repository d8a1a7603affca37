package options

import (
	"github.com/spf13/pflag"
)

// TemplateOptions configures the Template Store's directory hot-reload
// (§4.4, §6).
type TemplateOptions struct {
	WatchDir string `json:"watch-dir" mapstructure:"watch-dir"`
}

func NewTemplateOptions() *TemplateOptions {
	return &TemplateOptions{WatchDir: "configs/templates"}
}

func (o *TemplateOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.WatchDir, "templates.watch-dir", o.WatchDir, "Directory of *.json IEPTemplate definitions, hot-reloaded on write (§4.4).")
}

func (o *TemplateOptions) Validate() []error {
	return nil
}
