// Package errorx implements a numbered error-coder registry: every error
// surfaced at the HTTP boundary carries a stable integer code, an HTTP
// status and a human message, so clients can switch on `error.code` instead
// of parsing message strings.
package errorx

import (
	"fmt"
	"net/http"
	"sync"
)

// Coder is a registered error code. Implementations are immutable once
// registered.
type Coder interface {
	Code() int
	HTTPStatus() int
	String() string
	Reference() string
}

type coder struct {
	code int
	http int
	msg  string
	ref  string
}

func (c *coder) Code() int         { return c.code }
func (c *coder) HTTPStatus() int   { return c.http }
func (c *coder) String() string    { return c.msg }
func (c *coder) Reference() string { return c.ref }

var (
	registryMu sync.RWMutex
	registry   = map[int]Coder{
		unknownCode: &coder{code: unknownCode, http: http.StatusInternalServerError, msg: "internal server error"},
	}
)

const unknownCode = 1

// Register adds a Coder to the registry. It returns an error instead of
// panicking when the code is already registered with a different message,
// so callers that want to tolerate re-registration in tests can check it.
func Register(c Coder) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if existing, ok := registry[c.Code()]; ok && existing.String() != c.String() {
		return fmt.Errorf("errorx: code %d already registered as %q", c.Code(), existing.String())
	}
	registry[c.Code()] = c
	return nil
}

// MustRegister is Register, but panics on conflict. Intended for package
// init() blocks where a conflict is a programming error.
func MustRegister(c Coder) {
	if err := Register(c); err != nil {
		panic(err)
	}
}

// NewCoder builds an ad-hoc, unregistered Coder. Useful for packages that
// want a stable HTTP status/message pair without a package-level numeric
// code table (e.g. generic wrapping helpers).
func NewCoder(code, httpStatus int, msg, reference string) Coder {
	return &coder{code: code, http: httpStatus, msg: msg, ref: reference}
}

// ParseCoder looks up a registered Coder by code, falling back to the
// unknown-error coder.
func ParseCoder(code int) Coder {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if c, ok := registry[code]; ok {
		return c
	}
	return registry[unknownCode]
}

// withCode is the error type returned by WithCode/WrapC. It satisfies both
// error and Coder so handlers can type-assert it back out of an err chain.
type withCode struct {
	coder Coder
	msg   string
	cause error
}

func (w *withCode) Error() string {
	if w.cause != nil {
		return fmt.Sprintf("%s: %s", w.msg, w.cause.Error())
	}
	return w.msg
}

func (w *withCode) Unwrap() error { return w.cause }

func (w *withCode) Code() int         { return w.coder.Code() }
func (w *withCode) HTTPStatus() int   { return w.coder.HTTPStatus() }
func (w *withCode) String() string    { return w.coder.String() }
func (w *withCode) Reference() string { return w.coder.Reference() }

// WithCode builds a new error carrying the given registered code, formatting
// msg/args as the error's own message (the registered Coder's message is
// used for the HTTP envelope, this one is for logs/debugging).
func WithCode(code int, format string, args ...any) error {
	return &withCode{coder: ParseCoder(code), msg: fmt.Sprintf(format, args...)}
}

// WrapC wraps an existing error with a registered code and a contextual
// message, preserving err in the Unwrap chain.
func WrapC(err error, code int, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &withCode{coder: ParseCoder(code), msg: fmt.Sprintf(format, args...), cause: err}
}

// FromError extracts the Coder carried by err, if any, falling back to the
// unknown-error coder for plain errors.
func FromError(err error) Coder {
	if err == nil {
		return ParseCoder(unknownCode)
	}
	if c, ok := err.(*withCode); ok {
		return c.coder
	}
	if e, ok := err.(Coder); ok {
		return e
	}
	return ParseCoder(unknownCode)
}
