// API service for making raw requests to the backend through the pipeline
package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/desertthunder/vtx/internal/pipeline"
)

// APIService sends raw requests for "vtx api". Responses of any status are returned
// as is; only transport and session failures produce an error.
type APIService struct {
	c *client
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	return a.do(ctx, pipeline.Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	req := pipeline.Request{Method: http.MethodPost, Path: path, Body: data}
	if len(data) > 0 {
		req.ContentType = "application/json"
	}
	return a.do(ctx, req)
}

// Send performs an arbitrary method with an optional JSON body.
func (a *APIService) Send(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	req := pipeline.Request{Method: method, Path: path, Body: data}
	if len(data) > 0 {
		req.ContentType = "application/json"
	}
	return a.do(ctx, req)
}

func (a *APIService) do(ctx context.Context, req pipeline.Request) (*APIResponse, error) {
	resp, err := a.c.doer.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       resp.Body,
	}

	var jsonData any
	if err := json.Unmarshal(resp.Body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
