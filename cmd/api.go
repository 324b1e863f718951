package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vtx/internal/services"
	"github.com/desertthunder/vtx/internal/shared"
)

// apiPath validates a raw path argument and splits off its query string. Bare paths
// are taken relative to /api/v1.
func apiPath(raw string) (string, url.Values, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() {
		return "", nil, fmt.Errorf("%w: path must be relative to the backend, got %q", shared.ErrInvalidArgument, raw)
	}

	path := u.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasPrefix(path, "/api/") {
		path = "/api/v1" + path
	}
	return path, u.Query(), nil
}

// APIGet makes a direct GET request through the authenticated pipeline
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, query, err := apiPath(cmd.StringArg("path"))
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.services.API.Get(ctx, path, query)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return r.writeAPIResponse(cmd, resp)
}

// APIPost sends a JSON body through the authenticated pipeline
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path, _, err := apiPath(cmd.StringArg("path"))
	if err != nil {
		return err
	}
	method := strings.ToUpper(cmd.String("method"))
	if method == "" {
		method = http.MethodPost
	}

	data := cmd.String("data")
	if data != "" {
		var jsonTest any
		if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
			return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
		}
	}

	r.logger.Info("request", "method", method, "path", path)

	var resp *services.APIResponse
	if method == http.MethodPost {
		resp, err = r.services.API.Post(ctx, path, []byte(data))
	} else {
		resp, err = r.services.API.Send(ctx, method, path, []byte(data))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return r.writeAPIResponse(cmd, resp)
}

func (r *Runner) writeAPIResponse(cmd *cli.Command, resp *services.APIResponse) error {
	if resp.IsJSON {
		pretty := cmd.Bool("pretty") && !cmd.Bool("json")
		if err := r.writeJSON(resp.JSONData, pretty); err != nil {
			return err
		}
	} else if len(resp.Body) > 0 {
		r.output.Write(resp.Body)
		r.output.Write([]byte("\n"))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	return nil
}
