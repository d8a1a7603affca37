package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// ExtractionOptions configures the Document Extractor's OCR/form-parser
// client and retry policy (§4.1, §6).
type ExtractionOptions struct {
	OCREndpoint          string `json:"ocr-endpoint" mapstructure:"ocr-endpoint"`
	RetryMaxAttempts     int    `json:"retry-max-attempts" mapstructure:"retry-max-attempts"`
	RetryBackoffBaseSeconds float64 `json:"retry-backoff-base-seconds" mapstructure:"retry-backoff-base-seconds"`
	FetchTimeoutSeconds  int    `json:"fetch-timeout-seconds" mapstructure:"fetch-timeout-seconds"`
}

func NewExtractionOptions() *ExtractionOptions {
	return &ExtractionOptions{
		OCREndpoint:             "http://localhost:9400/v1/parse",
		RetryMaxAttempts:        3,
		RetryBackoffBaseSeconds: 1,
		FetchTimeoutSeconds:     30,
	}
}

func (o *ExtractionOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.OCREndpoint, "extraction.ocr-endpoint", o.OCREndpoint, "OCR/form-parser service endpoint.")
	fs.IntVar(&o.RetryMaxAttempts, "extraction.retry.max-attempts", o.RetryMaxAttempts, "Bounded retries on transient fetch/OCR errors (§4.1).")
	fs.Float64Var(&o.RetryBackoffBaseSeconds, "extraction.retry.backoff-base-seconds", o.RetryBackoffBaseSeconds, "Exponential backoff base, factor 2, with jitter.")
	fs.IntVar(&o.FetchTimeoutSeconds, "extraction.fetch-timeout-seconds", o.FetchTimeoutSeconds, "Per-attempt document fetch/OCR call timeout.")
}

func (o *ExtractionOptions) Validate() []error {
	var errs []error
	if o.RetryMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("extraction.retry.max-attempts must be >= 1"))
	}
	if o.RetryBackoffBaseSeconds <= 0 {
		errs = append(errs, fmt.Errorf("extraction.retry.backoff-base-seconds must be > 0"))
	}
	return errs
}
