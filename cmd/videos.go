package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vtx/internal/formatter"
	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/services"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/desertthunder/vtx/internal/tasks"
)

func pageQueryFrom(cmd *cli.Command) models.PageQuery {
	return models.PageQuery{Page: int(cmd.Int("page")), Limit: int(cmd.Int("limit"))}
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

func (r *Runner) writeVideos(cmd *cli.Command, videos []models.Video, footer string) error {
	if cmd.Bool("json") {
		return r.writeJSON(videos, cmd.Bool("pretty"))
	}
	if len(videos) == 0 {
		return r.writePlain("No videos found\n")
	}
	if err := formatter.WriteVideoList(r.output, videos); err != nil {
		return err
	}
	if footer != "" {
		return r.writePlainln("%s", footer)
	}
	return nil
}

func pageFooter(p *models.Page[models.Video]) string {
	footer := fmt.Sprintf("Page %d of %d (%d videos)", max(p.Page, 1), max(p.TotalPages, 1), p.TotalDocs)
	if next, ok := p.Next(); ok {
		footer += fmt.Sprintf(", next: --page %d", next)
	}
	return footer
}

func (r *Runner) writeVideo(cmd *cli.Command, v *models.Video) error {
	if cmd.Bool("json") {
		return r.writeJSON(v, cmd.Bool("pretty"))
	}

	r.writePlainHeader(v.Title)
	r.writePlain("ID:        %s\n", v.ID)
	if owner := v.OwnerName(); owner != "" {
		r.writePlain("Owner:     %s\n", owner)
	}
	r.writePlain("Duration:  %s\n", v.DurationString())
	r.writePlain("Views:     %d\n", v.Views)
	r.writePlain("Published: %v\n", v.IsPublished)
	r.writePlain("Approved:  %v\n", v.IsApproved)
	if v.Privacy != "" {
		r.writePlain("Privacy:   %s\n", v.Privacy)
	}
	if v.VideoFile != "" {
		r.writePlain("File:      %s\n", v.VideoFile)
	}
	if v.Description != "" {
		r.writePlainln("%s", v.Description)
	}
	return nil
}

// VideosList prints a page of the catalog.
func (r *Runner) VideosList(ctx context.Context, cmd *cli.Command) error {
	page, err := r.services.Videos.List(ctx, pageQueryFrom(cmd))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}
	return r.writeVideos(cmd, page.Docs, pageFooter(page))
}

// VideosGet prints one video.
func (r *Runner) VideosGet(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	var video *models.Video
	if cmd.Bool("owner") {
		video, err = r.services.Videos.AdminOwnerView(ctx, id)
	} else {
		video, err = r.services.Videos.Get(ctx, id)
	}
	if err != nil {
		return err
	}
	return r.writeVideo(cmd, video)
}

// VideosSearch prints videos matching the query.
func (r *Runner) VideosSearch(ctx context.Context, cmd *cli.Command) error {
	query, err := requireArg(cmd, "query")
	if err != nil {
		return err
	}

	result, err := r.services.Videos.Search(ctx, query, pageQueryFrom(cmd))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	p := result.Pagination
	footer := fmt.Sprintf("Page %d of %d (%d results)", max(p.CurrentPage, 1), max(p.TotalPages, 1), p.TotalResults)
	return r.writeVideos(cmd, result.Videos, footer)
}

// VideosMine prints the viewer's uploads.
func (r *Runner) VideosMine(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}
	videos, err := r.services.Videos.UserVideos(ctx, pageQueryFrom(cmd))
	if err != nil {
		return err
	}
	return r.writeVideos(cmd, videos, "")
}

// VideosComments prints the comments on a video.
func (r *Runner) VideosComments(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	comments, err := r.services.Videos.Comments(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(comments, cmd.Bool("pretty"))
	}
	if len(comments) == 0 {
		return r.writePlain("No comments yet\n")
	}

	for _, c := range comments {
		author := "anonymous"
		if c.User != nil && c.User.Username != "" {
			author = c.User.Username
		}
		r.writePlain("%s: %s\n", author, c.Text)
	}
	return nil
}

// VideosComment posts a comment.
func (r *Runner) VideosComment(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	comment, err := r.services.Videos.AddComment(ctx, id, cmd.StringArg("text"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Comment posted (%s)\n", comment.ID)
}

// VideosUpload uploads a video file.
func (r *Runner) VideosUpload(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	up := services.VideoUpload{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
		IsPublished: cmd.Bool("publish"),
		Video:       &services.FormFile{Path: cmd.String("file")},
	}
	if thumb := cmd.String("thumbnail"); thumb != "" {
		up.Thumbnail = &services.FormFile{Path: thumb}
	}

	r.logger.Info("uploading video", "file", cmd.String("file"), "title", up.Title)
	video, err := r.services.Videos.Upload(ctx, up)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Uploaded %q (%s)\n", video.Title, video.ID)
}

// VideosUpdate edits a video.
func (r *Runner) VideosUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	up := services.VideoUpdate{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
	}
	if thumb := cmd.String("thumbnail"); thumb != "" {
		up.Thumbnail = &services.FormFile{Path: thumb}
	}
	if cmd.IsSet("publish") {
		publish := cmd.Bool("publish")
		up.IsPublished = &publish
	}
	if up.Title == "" && up.Description == "" && up.Thumbnail == nil && up.IsPublished == nil {
		return fmt.Errorf("%w: nothing to update", shared.ErrMissingArgument)
	}

	video, err := r.services.Videos.Update(ctx, id, up)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated %q\n", video.Title)
}

// VideosDelete removes a video.
func (r *Runner) VideosDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}
	if err := r.services.Videos.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted %s\n", id)
}

// VideosPublish toggles the published flag.
func (r *Runner) VideosPublish(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	video, err := r.services.Videos.TogglePublish(ctx, id)
	if err != nil {
		return err
	}
	state := "unpublished"
	if video.IsPublished {
		state = "published"
	}
	return r.writePlain("✓ %s is now %s\n", id, state)
}

// VideosPrivacy toggles between public and private.
func (r *Runner) VideosPrivacy(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	video, err := r.services.Videos.TogglePrivacy(ctx, id)
	if err != nil {
		return err
	}
	privacy := video.Privacy
	if privacy == "" {
		privacy = "updated"
	}
	return r.writePlain("✓ %s privacy: %s\n", id, privacy)
}

// exportSource resolves --source into a resource name and a page fetcher.
func (r *Runner) exportSource(source string, limit int) (string, tasks.PageFetcher, error) {
	switch {
	case source == "" || source == "catalog":
		return "catalog", func(ctx context.Context, page int) (*models.Page[models.Video], error) {
			return r.services.Videos.List(ctx, models.PageQuery{Page: page, Limit: limit})
		}, nil

	case source == "pending":
		return "pending", func(ctx context.Context, page int) (*models.Page[models.Video], error) {
			return r.services.Videos.PendingVideos(ctx, models.PageQuery{Page: page, Limit: limit})
		}, nil

	case strings.HasPrefix(source, "channel:"):
		username := strings.TrimSpace(strings.TrimPrefix(source, "channel:"))
		if username == "" {
			return "", nil, fmt.Errorf("%w: channel:<username>", shared.ErrInvalidFlag)
		}
		return "channel_" + username, func(ctx context.Context, page int) (*models.Page[models.Video], error) {
			channel, err := r.services.Users.ChannelProfile(ctx, username, models.PageQuery{Page: page, Limit: limit})
			if err != nil {
				return nil, err
			}
			return &models.Page[models.Video]{
				Docs:        channel.UploadedVideos,
				TotalDocs:   channel.VideosCount,
				Page:        page,
				Limit:       limit,
				HasNextPage: channel.HasNextPage,
				HasPrevPage: channel.HasPreviousPage,
			}, nil
		}, nil

	default:
		return "", nil, fmt.Errorf("%w: unknown source %q", shared.ErrInvalidFlag, source)
	}
}

// VideosExport writes every page of a collection to disk, or lists past runs.
func (r *Runner) VideosExport(ctx context.Context, cmd *cli.Command) error {
	resource, fetch, err := r.exportSource(cmd.String("source"), r.config.Export.PageSize)
	if err != nil {
		return err
	}

	if cmd.Bool("history") {
		return r.writeExportHistory(resource)
	}

	workers := int(cmd.Int("workers"))
	if workers <= 0 {
		workers = r.config.Export.Workers
	}
	opts := tasks.ExportOpts{
		Resource:   resource,
		Name:       resource,
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		Workers:    workers,
		RateLimit:  r.config.Export.RateLimit,
		MaxPages:   int(cmd.Int("max-pages")),
		Thumbnails: cmd.Bool("thumbnails"),
		Client:     r.httpClient,
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.engine.Export(ctx, progress, fetch, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("Files:")
	for _, f := range result.Files {
		r.writePlain("  %s\n", f)
	}
	if result.Failed() {
		r.logger.Warn("some pages could not be fetched", "error", result.Err())
		return r.writePlain("%d pages failed; rerun to retry them\n", len(result.FailedPages))
	}
	return nil
}

func (r *Runner) writeExportHistory(resource string) error {
	runs, err := r.engine.History(resource, 20)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return r.writePlain("No exports recorded\n")
	}

	for _, run := range runs {
		status := "running"
		switch {
		case run.Succeeded():
			status = "ok"
		case run.CompletedAt() != nil:
			status = "failed: " + run.ErrorMessage()
		}
		r.writePlain("%s  %-10s %-8s %3d pages %5d videos  %s  [%s]\n",
			run.StartedAt().Local().Format("2006-01-02 15:04"),
			run.Resource(), run.Format(), run.Pages(), run.Items(), run.OutputDir(), status)
	}
	return nil
}
