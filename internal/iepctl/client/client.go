// Package client implements iepctl's HTTP client against the iepforge
// ingress server, grounded on the teacher's internal/echoctl/cmd/chat's
// bare net/http client and on internal/service/extractor/http.go's
// fetch-over-HTTP shape used elsewhere in this repo — no wrapper client
// library (resty or similar) appears anywhere in the corpus, so this
// stays on the standard library.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client calls the iepforge HTTP API with a bearer token attached to
// every request (§6 auth boundary).
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New builds a Client bound to baseURL (e.g. http://localhost:8080).
func New(baseURL, token string) *Client {
	return &Client{BaseURL: baseURL, Token: token, HTTP: &http.Client{Timeout: 30 * time.Second}}
}

// APIError is the decoded {"error":{...}} envelope every non-2xx iepforge
// response returns.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("iepforge: %s (code=%d, status=%d)", e.Message, e.Code, e.StatusCode)
}

// do issues one request, decoding a JSON body into out when out is
// non-nil and the response is 2xx, or returning an *APIError otherwise.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("iepctl: marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("iepctl: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("iepctl: call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error APIError `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		envelope.Error.StatusCode = resp.StatusCode
		return &envelope.Error
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("iepctl: decode response from %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}
