package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/vtx/internal/models"
)

var (
	_ list.Item = videoItem{}
	_ list.Item = commentItem{}
)

// videoItem wraps [models.Video] to implement [list.Item].
type videoItem struct {
	video models.Video
}

func (i videoItem) FilterValue() string { return i.video.Title }
func (i videoItem) Title() string       { return i.video.Title }
func (i videoItem) Description() string {
	parts := []string{i.video.DurationString(), fmt.Sprintf("%d views", i.video.Views)}
	if owner := i.video.OwnerName(); owner != "" {
		parts = append([]string{owner}, parts...)
	}
	if !i.video.IsPublished {
		parts = append(parts, "unpublished")
	}
	return strings.Join(parts, " • ")
}

// commentItem wraps [models.Comment] to implement [list.Item].
type commentItem struct {
	comment models.Comment
}

func (i commentItem) FilterValue() string { return i.comment.Text }
func (i commentItem) Title() string       { return i.comment.Text }
func (i commentItem) Description() string {
	author := "anonymous"
	if i.comment.User != nil && i.comment.User.Username != "" {
		author = i.comment.User.Username
	}
	if i.comment.CreatedAt.IsZero() {
		return author
	}
	return fmt.Sprintf("%s • %s", author, i.comment.CreatedAt.Format("2006-01-02"))
}

func videoItems(videos []models.Video) []list.Item {
	items := make([]list.Item, len(videos))
	for i, v := range videos {
		items[i] = videoItem{video: v}
	}
	return items
}

func commentItems(comments []models.Comment) []list.Item {
	items := make([]list.Item, len(comments))
	for i, c := range comments {
		items[i] = commentItem{comment: c}
	}
	return items
}
