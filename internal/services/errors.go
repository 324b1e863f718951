package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/vtx/internal/pipeline"
	"github.com/desertthunder/vtx/internal/shared"
)

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
	Method  string
	Path    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// Unwrap maps the status onto the shared sentinel errors.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return shared.ErrUnauthorized
	case e.Status == http.StatusNotFound && strings.Contains(e.Path, apiPrefix+"/video/"):
		return shared.ErrVideoNotFound
	case e.Status == http.StatusServiceUnavailable:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

// IsStatus reports whether err is an [*APIError] with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// ErrorMessage returns the backend's message for err, or err's text.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func newAPIError(req pipeline.Request, resp *pipeline.Response) *APIError {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	e := &APIError{Status: resp.StatusCode, Method: method, Path: req.Path}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &body); err == nil {
		e.Message = strings.TrimSpace(body.Message)
		if e.Message == "" {
			e.Message = strings.TrimSpace(body.Error)
		}
	}

	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}

	return e
}
