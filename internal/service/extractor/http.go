package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/brightpath-edu/iepforge/internal/domain/assessment"
)

// FileOrHTTPFetcher resolves a storage_uri that is either a local file path
// (optionally file://) or an http(s):// URL, the two storage backends §4.1
// names as in scope ("the underlying object store is out of scope; only
// the fetch(storage_uri) contract matters").
//
// This is stdlib net/http rather than a pack HTTP client library: no
// wrapper client (resty or similar) appears anywhere in the corpus, and a
// single GET-or-read-file call doesn't warrant introducing one.
type FileOrHTTPFetcher struct {
	Client *http.Client
}

// NewFileOrHTTPFetcher builds a fetcher with a bounded per-call timeout.
func NewFileOrHTTPFetcher(timeout time.Duration) *FileOrHTTPFetcher {
	return &FileOrHTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *FileOrHTTPFetcher) Fetch(ctx context.Context, storageURI string) ([]byte, error) {
	u, err := url.Parse(storageURI)
	if err != nil {
		return nil, fmt.Errorf("extractor: parse storage_uri %q: %w", storageURI, err)
	}

	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, storageURI, nil)
		if err != nil {
			return nil, fmt.Errorf("extractor: build fetch request: %w", err)
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("extractor: fetch %q: %w", storageURI, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("extractor: fetch %q: status %d", storageURI, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	case "file", "":
		path := u.Path
		if u.Scheme == "" {
			path = storageURI
		}
		return os.ReadFile(path)
	default:
		return nil, fmt.Errorf("extractor: unsupported storage_uri scheme %q", u.Scheme)
	}
}

// HTTPOCRClient submits document bytes to an external OCR/form-parser
// service over a plain JSON POST, grounded on §4.1's "submits the document
// to an external OCR/form-parser service" contract. The response shape
// (entities[].{label,value,confidence,text_span}) is the minimal wire
// format a self-hosted OCR shim would return.
type HTTPOCRClient struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPOCRClient builds a client bound to endpoint with a per-call
// timeout (§6: extraction.ocr-endpoint, extraction.fetch-timeout-seconds).
func NewHTTPOCRClient(endpoint string, timeout time.Duration) *HTTPOCRClient {
	return &HTTPOCRClient{Endpoint: endpoint, Client: &http.Client{Timeout: timeout}}
}

type ocrEntityWire struct {
	Label      string  `json:"label"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	TextSpan   string  `json:"text_span"`
}

type ocrResponseWire struct {
	Entities []ocrEntityWire `json:"entities"`
}

func (c *HTTPOCRClient) Parse(ctx context.Context, assessmentType assessment.Type, data []byte) (*OCRResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("extractor: build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Assessment-Type", string(assessmentType))

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extractor: ocr call to %q: %w", c.Endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extractor: ocr call to %q: status %d", c.Endpoint, resp.StatusCode)
	}

	var wire ocrResponseWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("extractor: decode ocr response: %w", err)
	}

	entities := make([]Entity, len(wire.Entities))
	for i, e := range wire.Entities {
		entities[i] = Entity{
			Label:      strings.TrimSpace(e.Label),
			Value:      e.Value,
			Confidence: e.Confidence,
			TextSpan:   e.TextSpan,
		}
	}
	return &OCRResult{Entities: entities}, nil
}
