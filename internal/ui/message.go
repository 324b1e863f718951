package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPageFetched MsgKind = iota
	MsgDetailFetched
	MsgProgressUpdate
	MsgExportComplete
)

// Kind reports which constructor produced the message.
func (m Msg) Kind() MsgKind { return m.kind }

type pageData struct {
	page *models.Page[models.Video]
	err  error
}

type detailData struct {
	video    *models.Video
	comments []models.Comment
	err      error
}

type exportData struct {
	result *tasks.ExportResult
	err    error
}

// pageFetchedMsg is the constructor for [MsgPageFetched]
func pageFetchedMsg(page *models.Page[models.Video], err error) Msg {
	return Msg{kind: MsgPageFetched, data: pageData{page, err}}
}

// detailFetchedMsg is the constructor for [MsgDetailFetched]
func detailFetchedMsg(video *models.Video, comments []models.Comment, err error) Msg {
	return Msg{kind: MsgDetailFetched, data: detailData{video, comments, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// exportCompleteMsg is the constructor for [MsgExportComplete]
func exportCompleteMsg(result *tasks.ExportResult, err error) Msg {
	return Msg{kind: MsgExportComplete, data: exportData{result, err}}
}
