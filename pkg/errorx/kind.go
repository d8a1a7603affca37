package errorx

import "net/http"

// Kind is the pipeline's error taxonomy (spec §7) — a small enum layered on
// top of the numeric Coder registry so orchestrator code can branch on
// "what kind of failure was this" without parsing HTTP status codes or
// string-matching messages.
type Kind string

const (
	KindValidation         Kind = "ValidationError"
	KindNotFound           Kind = "NotFound"
	KindUpstreamUnavailable Kind = "UpstreamUnavailable"
	KindExtractionFailed   Kind = "ExtractionFailed"
	KindGenerationFailed   Kind = "GenerationFailed"
	KindTemplateMismatch   Kind = "TemplateMismatch"
	KindIllegalTransition  Kind = "IllegalTransition"
	KindDeadlineExceeded   Kind = "DeadlineExceeded"
	KindConflict           Kind = "ConflictError"
)

var kindHTTPStatus = map[Kind]int{
	KindValidation:          http.StatusUnprocessableEntity,
	KindNotFound:            http.StatusNotFound,
	KindUpstreamUnavailable: http.StatusServiceUnavailable,
	KindExtractionFailed:    http.StatusUnprocessableEntity,
	KindGenerationFailed:    http.StatusUnprocessableEntity,
	KindTemplateMismatch:    http.StatusConflict,
	KindIllegalTransition:   http.StatusConflict,
	KindDeadlineExceeded:    http.StatusGatewayTimeout,
	KindConflict:            http.StatusConflict,
}

// kindError carries a Kind plus an underlying withCode error so both the
// HTTP envelope (code/message) and orchestrator branching (Kind) work off
// the same value.
type kindError struct {
	kind Kind
	err  error
}

func (k *kindError) Error() string { return k.err.Error() }
func (k *kindError) Unwrap() error { return k.err }
func (k *kindError) Code() int         { return FromError(k.err).Code() }
func (k *kindError) HTTPStatus() int   { return FromError(k.err).HTTPStatus() }
func (k *kindError) String() string    { return FromError(k.err).String() }
func (k *kindError) Reference() string { return FromError(k.err).Reference() }

// NewKind wraps err (built via WithCode/WrapC) with a taxonomy Kind.
func NewKind(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// KindOf extracts the Kind attached by NewKind, or "" if err carries none.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if ke, ok := err.(*kindError); ok {
		return ke.kind
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return KindOf(u.Unwrap())
	}
	return ""
}

// HTTPStatusForKind is the default status mapping for a taxonomy Kind (§6).
func HTTPStatusForKind(k Kind) int {
	if status, ok := kindHTTPStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether a Kind is one the caller may legitimately
// retry (only transient upstream failures; everything else is either a
// programming/input error or already retry-exhausted).
func IsRetryable(k Kind) bool {
	return k == KindUpstreamUnavailable
}
