// package services defines the typed API modules for the video-sharing backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/pipeline"
	"github.com/desertthunder/vtx/internal/shared"
)

const apiPrefix = "/api/v1"

// Doer sends a request and returns the fully read response.
type Doer interface {
	Do(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
}

// Services bundles every module over one [Doer].
type Services struct {
	Users         *UserService
	Videos        *VideoService
	Subscriptions *SubscriptionService
	History       *HistoryService
	API           *APIService
}

// New wires every module to d. baseURL is only used to build browser-facing links.
func New(d Doer, baseURL string) *Services {
	c := &client{doer: d, baseURL: baseURL}
	return &Services{
		Users:         &UserService{c: c},
		Videos:        &VideoService{c: c},
		Subscriptions: &SubscriptionService{c: c},
		History:       &HistoryService{c: c},
		API:           &APIService{c: c},
	}
}

type client struct {
	doer    Doer
	baseURL string
}

// doRequest sends req and decodes the envelope's data into result when result is non-nil.
func (c *client) doRequest(ctx context.Context, req pipeline.Request, result any) error {
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return newAPIError(req, resp)
	}

	if result == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}

	var env models.Envelope[json.RawMessage]
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return fmt.Errorf("%w: %s %s: %v", shared.ErrMalformedResponse, req.Method, req.Path, err)
	}

	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}

	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("%w: %s %s: %v", shared.ErrMalformedResponse, req.Method, req.Path, err)
	}

	return nil
}

func (c *client) get(ctx context.Context, path string, q url.Values, result any) error {
	return c.doRequest(ctx, pipeline.Request{Method: http.MethodGet, Path: path, Query: q}, result)
}

func (c *client) sendJSON(ctx context.Context, method, path string, body, result any) error {
	req, err := pipeline.NewJSONRequest(method, path, body)
	if err != nil {
		return err
	}
	return c.doRequest(ctx, req, result)
}

func (c *client) sendForm(ctx context.Context, method, path string, form *Form, result any) error {
	body, contentType, err := form.Encode()
	if err != nil {
		return err
	}
	return c.doRequest(ctx, pipeline.Request{Method: method, Path: path, Body: body, ContentType: contentType}, result)
}

func endpoint(parts ...string) string {
	p := apiPrefix
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func pageQuery(q models.PageQuery, defaultLimit int) url.Values {
	page, limit := q.Page, q.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}
}

// decodeList accepts a bare array or an object holding the array under docs, videos or comments.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
		}
		return items, nil
	}

	var wrapped struct {
		Docs     []T `json:"docs"`
		Videos   []T `json:"videos"`
		Comments []T `json:"comments"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}

	switch {
	case wrapped.Docs != nil:
		return wrapped.Docs, nil
	case wrapped.Videos != nil:
		return wrapped.Videos, nil
	default:
		return wrapped.Comments, nil
	}
}

func (c *client) getList(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, path, q, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
