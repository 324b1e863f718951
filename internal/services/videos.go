package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/pipeline"
	"github.com/desertthunder/vtx/internal/shared"
)

// VideoService covers the video/* endpoints.
type VideoService struct {
	c *client
}

// VideoUpload is the upload form. Video is required.
type VideoUpload struct {
	Title       string
	Description string
	IsPublished bool
	Video       *FormFile
	Thumbnail   *FormFile
}

// VideoUpdate edits an existing video. Nil or empty fields are left unchanged.
type VideoUpdate struct {
	Title       string
	Description string
	IsPublished *bool
	Thumbnail   *FormFile
}

func jsonless(method, path string) pipeline.Request {
	return pipeline.Request{Method: method, Path: path}
}

// List returns a page of the public catalog.
func (s *VideoService) List(ctx context.Context, q models.PageQuery) (*models.Page[models.Video], error) {
	var page models.Page[models.Video]
	if err := s.c.get(ctx, endpoint("video", "album"), pageQuery(q, 9), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get returns one video.
func (s *VideoService) Get(ctx context.Context, id string) (*models.Video, error) {
	return s.one(ctx, jsonless(http.MethodGet, endpoint("video", id)))
}

// Upload sends a new video with its thumbnail.
func (s *VideoService) Upload(ctx context.Context, up VideoUpload) (*models.Video, error) {
	if up.Video == nil {
		return nil, fmt.Errorf("%w: video file", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(up.Title) == "" {
		return nil, fmt.Errorf("%w: title", shared.ErrMissingArgument)
	}

	if up.Video.Field == "" {
		up.Video.Field = "videoFile"
	}
	if up.Thumbnail != nil && up.Thumbnail.Field == "" {
		up.Thumbnail.Field = "thumbnail"
	}

	form := NewForm().
		File(up.Video).
		File(up.Thumbnail).
		Field("title", up.Title).
		Field("description", up.Description).
		Field("isPublished", strconv.FormatBool(up.IsPublished))

	var video models.Video
	if err := s.c.sendForm(ctx, http.MethodPost, endpoint("video", "videoUpload"), form, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// Comments lists the comments on a video.
func (s *VideoService) Comments(ctx context.Context, id string) ([]models.Comment, error) {
	raw, err := s.c.getList(ctx, endpoint("video", id, "comments"), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Comment](raw)
}

// AddComment posts text as a comment on the video.
func (s *VideoService) AddComment(ctx context.Context, id, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text", shared.ErrMissingArgument)
	}

	var comment models.Comment
	body := map[string]string{"text": text}
	if err := s.c.sendJSON(ctx, http.MethodPost, endpoint("video", id, "comments"), body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// AdminOwnerView returns a video including unpublished or unapproved state, for its owner or an admin.
func (s *VideoService) AdminOwnerView(ctx context.Context, id string) (*models.Video, error) {
	return s.one(ctx, jsonless(http.MethodGet, endpoint("video", "adminOwner", id)))
}

// Update edits title, description, publish flag or thumbnail.
func (s *VideoService) Update(ctx context.Context, id string, up VideoUpdate) (*models.Video, error) {
	if up.Thumbnail != nil && up.Thumbnail.Field == "" {
		up.Thumbnail.Field = "thumbnail"
	}

	form := NewForm().
		Field("title", up.Title).
		Field("description", up.Description).
		File(up.Thumbnail)
	if up.IsPublished != nil {
		form.Field("isPublished", strconv.FormatBool(*up.IsPublished))
	}

	var video models.Video
	if err := s.c.sendForm(ctx, http.MethodPut, endpoint("video", id), form, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// Delete removes a video.
func (s *VideoService) Delete(ctx context.Context, id string) error {
	return s.c.doRequest(ctx, jsonless(http.MethodDelete, endpoint("video", id)), nil)
}

// TogglePublish flips the published flag.
func (s *VideoService) TogglePublish(ctx context.Context, id string) (*models.Video, error) {
	return s.one(ctx, jsonless(http.MethodPatch, endpoint("video", "toggle", "publish", id)))
}

// TogglePrivacy flips the video between public and private.
func (s *VideoService) TogglePrivacy(ctx context.Context, id string) (*models.Video, error) {
	return s.one(ctx, jsonless(http.MethodPut, endpoint("video", "privacy", id)))
}

// UserVideos lists the viewer's own uploads.
func (s *VideoService) UserVideos(ctx context.Context, q models.PageQuery) ([]models.Video, error) {
	raw, err := s.c.getList(ctx, endpoint("video", "user"), pageQuery(q, 9))
	if err != nil {
		return nil, err
	}
	return decodeList[models.Video](raw)
}

// PendingVideos returns a page of videos awaiting approval. Admins see every pending
// video; other users see their own.
func (s *VideoService) PendingVideos(ctx context.Context, q models.PageQuery) (*models.Page[models.Video], error) {
	var page models.Page[models.Video]
	if err := s.c.get(ctx, endpoint("video", "pendingVideos"), pageQuery(q, 12), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Approve marks a video approved. Admin only.
func (s *VideoService) Approve(ctx context.Context, id string) (*models.Video, error) {
	req, err := pipeline.NewJSONRequest(http.MethodPut, endpoint("video", "approval", id), struct{}{})
	if err != nil {
		return nil, err
	}
	return s.one(ctx, req)
}

// Search finds videos matching query.
func (s *VideoService) Search(ctx context.Context, query string, q models.PageQuery) (*models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return &models.SearchResult{}, nil
	}

	values := pageQuery(q, 12)
	values.Set("query", query)

	var result models.SearchResult
	if err := s.c.get(ctx, endpoint("video", "search"), values, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *VideoService) one(ctx context.Context, req pipeline.Request) (*models.Video, error) {
	var video models.Video
	if err := s.c.doRequest(ctx, req, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

