// Package json wraps bytedance/sonic as a drop-in for the hot-path JSON
// marshaling this service does on every IEP content write/read and trace
// payload, while keeping the standard json.RawMessage/Marshaler contracts
// consumers expect.
package json

import "github.com/bytedance/sonic"

var api = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}
