package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/vtx/internal/shared"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type refreshTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	refreshTokens
	Data    refreshTokens `json:"data"`
	Message string        `json:"message"`
}

func (r refreshResponse) tokens() refreshTokens {
	if r.Data.AccessToken != "" {
		return r.Data
	}
	return r.refreshTokens
}

// refresh issues the single refresh call of a flight and persists returned tokens.
//
// The call is detached from the caller's cancellation so one abandoned request cannot
// fail the refresh for every request queued behind it.
func (p *Pipeline) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.refreshTimeout)
	defer cancel()

	req, err := NewJSONRequest(http.MethodPost, RefreshPath, refreshRequest{RefreshToken: p.creds.RefreshToken(ctx)})
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	a := Attempt{Request: req, N: 1}
	resp, err := p.send(ctx, &a)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	var body refreshResponse
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &body); err != nil && resp.OK() {
			return fmt.Errorf("%w: %w: %v", shared.ErrRefreshFailed, shared.ErrMalformedResponse, err)
		}
	}

	if !resp.OK() {
		msg := strings.TrimSpace(body.Message)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: status %d: %s", shared.ErrRefreshFailed, resp.StatusCode, msg)
	}

	tokens := body.tokens()
	if tokens.AccessToken != "" {
		if err := p.creds.SetToken(ctx, tokens.AccessToken); err != nil {
			p.logger.Error("failed to persist refreshed access token", "error", err)
		}
	}
	if tokens.RefreshToken != "" {
		if err := p.creds.SetRefreshToken(ctx, tokens.RefreshToken); err != nil {
			p.logger.Error("failed to persist refreshed refresh token", "error", err)
		}
	}

	p.logger.Info("access token refreshed", "rotated", tokens.AccessToken != "")
	return nil
}
