package cmd

import (
	"net/url"
	"os"
)

// readFile reads a local file given as a CLI flag value, e.g. a
// section-spec JSON file for `templates publish --sections`.
func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// toURLValues drops empty entries so optional filters don't reach the
// server as blank query parameters.
func toURLValues(fields map[string]string) url.Values {
	values := url.Values{}
	for k, v := range fields {
		if v != "" {
			values.Set(k, v)
		}
	}
	return values
}
