// Package config wraps a validated Options tree into the running
// configuration object the server bootstrap hands down to every module.
package config

import "github.com/brightpath-edu/iepforge/internal/options"

// Config is the running configuration of the iepforge service.
type Config struct {
	*options.Options
}

// CreateConfigFromOptions builds a Config from a (presumed already
// validated) Options tree.
func CreateConfigFromOptions(opts *options.Options) (*Config, error) {
	return &Config{opts}, nil
}
