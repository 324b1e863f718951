package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request is a replayable description of one backend call.
type Request struct {
	Method      string
	Path        string // relative to the base URL, e.g. "/api/v1/users/current-user"
	Query       url.Values
	Header      http.Header
	Body        []byte
	ContentType string
}

// NewJSONRequest encodes body as JSON. A nil body sends no payload.
func NewJSONRequest(method, path string, body any) (Request, error) {
	req := Request{Method: method, Path: path}
	if body == nil {
		return req, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return Request{}, fmt.Errorf("failed to encode request body: %w", err)
	}
	req.Body = data
	req.ContentType = "application/json"
	return req, nil
}

// WithQuery returns a copy of r with q merged into its query.
func (r Request) WithQuery(q url.Values) Request {
	merged := url.Values{}
	for k, v := range r.Query {
		merged[k] = append([]string(nil), v...)
	}
	for k, v := range q {
		merged[k] = append(merged[k], v...)
	}
	r.Query = merged
	return r
}

// Attempt wraps a request with its retry marker and the credential it was sent with.
type Attempt struct {
	Request Request
	N       int // 0 for the first dispatch, 1 for the single retry
	Token   string
}

// Retried reports whether this attempt is the retry.
func (a Attempt) Retried() bool { return a.N > 0 }

// Retry returns the follow-up attempt for the same request.
func (a Attempt) Retry() Attempt {
	return Attempt{Request: a.Request, N: a.N + 1}
}

// Response is a fully read backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

func (a Attempt) httpRequest(ctx context.Context, baseURL string) (*http.Request, error) {
	u := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(a.Request.Path, "/")
	if len(a.Request.Query) > 0 {
		u += "?" + a.Request.Query.Encode()
	}

	var body io.Reader
	if a.Request.Body != nil {
		body = bytes.NewReader(a.Request.Body)
	}

	method := a.Request.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range a.Request.Header {
		req.Header[k] = append([]string(nil), v...)
	}
	if a.Request.ContentType != "" {
		req.Header.Set("Content-Type", a.Request.ContentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	return req, nil
}
