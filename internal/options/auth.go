package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// AuthOptions holds a static principal table for the upstream-auth shim.
// Authentication/authorization itself is out of scope (§1); this is only
// the boundary the ingress layer trusts to already have authenticated the
// caller and attached a bearer token it can map to a Principal.
type AuthOptions struct {
	TokenFile string `json:"token-file" mapstructure:"token-file"`
}

func NewAuthOptions() *AuthOptions {
	return &AuthOptions{TokenFile: "configs/principals.yaml"}
}

func (o *AuthOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.TokenFile, "auth.token-file", o.TokenFile, "YAML file mapping bearer tokens to principal id + role.")
}

func (o *AuthOptions) Validate() []error {
	var errs []error
	if o.TokenFile == "" {
		errs = append(errs, fmt.Errorf("auth.token-file is required"))
	}
	return errs
}
