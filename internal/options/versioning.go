package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// VersioningOptions configures the per-student advisory lock used by the
// Versioned Writer (§4.7).
type VersioningOptions struct {
	StorePath          string `json:"store-path" mapstructure:"store-path"`
	LockTimeoutSeconds int    `json:"lock-timeout-seconds" mapstructure:"lock-timeout-seconds"`
}

func NewVersioningOptions() *VersioningOptions {
	return &VersioningOptions{
		StorePath:          "data/iepforge.db",
		LockTimeoutSeconds: 10,
	}
}

func (o *VersioningOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.StorePath, "versioning.store-path", o.StorePath, "BoltDB file backing entity storage.")
	fs.IntVar(&o.LockTimeoutSeconds, "versioning.lock-timeout-seconds", o.LockTimeoutSeconds, "Per-student advisory lock acquisition timeout.")
}

func (o *VersioningOptions) Validate() []error {
	var errs []error
	if o.LockTimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("versioning.lock-timeout-seconds must be >= 1"))
	}
	return errs
}
