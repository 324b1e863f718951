package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/vtx/internal/models"
)

// HistoryService covers users/history.
type HistoryService struct {
	c *client
}

// List returns one page of watched videos, most recent first.
func (s *HistoryService) List(ctx context.Context, q models.PageQuery) ([]models.Video, error) {
	raw, err := s.c.getList(ctx, endpoint("users", "history"), pageQuery(q, 12))
	if err != nil {
		return nil, err
	}
	return decodeList[models.Video](raw)
}

// Clear empties the watch history.
func (s *HistoryService) Clear(ctx context.Context) error {
	return s.c.doRequest(ctx, jsonless(http.MethodDelete, endpoint("users", "history")), nil)
}

// Remove drops one video from the history.
func (s *HistoryService) Remove(ctx context.Context, videoID string) error {
	return s.c.doRequest(ctx, jsonless(http.MethodDelete, endpoint("users", "history", videoID)), nil)
}
