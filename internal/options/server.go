package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ServerRunOptions binds the HTTP ingress listener.
type ServerRunOptions struct {
	BindAddress    string `json:"bind-address" mapstructure:"bind-address"`
	AdminAddress   string `json:"admin-address" mapstructure:"admin-address"`
	RequestTimeoutSeconds int `json:"request-timeout-seconds" mapstructure:"request-timeout-seconds"`
}

func NewServerRunOptions() *ServerRunOptions {
	return &ServerRunOptions{
		BindAddress:           "0.0.0.0:8080",
		AdminAddress:          "127.0.0.1:8081",
		RequestTimeoutSeconds: 30,
	}
}

func (o *ServerRunOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.BindAddress, "server.bind-address", o.BindAddress, "Address the ingress HTTP server listens on.")
	fs.StringVar(&o.AdminAddress, "server.admin-address", o.AdminAddress, "Address the admin/pprof listener binds to.")
	fs.IntVar(&o.RequestTimeoutSeconds, "server.request-timeout-seconds", o.RequestTimeoutSeconds, "Per-request timeout in seconds.")
}

func (o *ServerRunOptions) Validate() []error {
	var errs []error
	if o.BindAddress == "" {
		errs = append(errs, fmt.Errorf("server.bind-address is required"))
	}
	if o.RequestTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("server.request-timeout-seconds must be > 0"))
	}
	return errs
}
