package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	VideoListView ViewState = iota
	DetailView
	ConfirmView
	ExportView
	ResultView
)

// VideoSource is the catalog the TUI browses. [services.VideoService] satisfies it.
type VideoSource interface {
	List(ctx context.Context, q models.PageQuery) (*models.Page[models.Video], error)
	Get(ctx context.Context, id string) (*models.Video, error)
	Comments(ctx context.Context, id string) ([]models.Comment, error)
}

// ExportFunc exports the whole catalog, reporting progress on prog.
type ExportFunc func(ctx context.Context, prog chan<- tasks.ProgressUpdate) (*tasks.ExportResult, error)

// Options configures a [Model]. Export may be nil to disable exporting.
type Options struct {
	Videos   VideoSource
	Export   ExportFunc
	User     *models.User
	PageSize int
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	videos   VideoSource
	export   ExportFunc
	user     *models.User
	pageSize int

	width  int
	height int

	videoList   list.Model
	page        *models.Page[models.Video]
	pageNum     int
	loading     bool
	commentList list.Model
	selected    *models.Video

	progressChan chan tasks.ProgressUpdate
	doneChan     chan exportData
	progress     tasks.ProgressUpdate
	result       *tasks.ExportResult

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.PageSize <= 0 {
		opts.PageSize = 9
	}
	m := &Model{
		ctx:      ctx,
		view:     VideoListView,
		videos:   opts.Videos,
		export:   opts.Export,
		user:     opts.User,
		pageSize: opts.PageSize,
		pageNum:  1,
		help:     help.New(),
		keys:     newKeyMap(),
	}
	m.videoList = newList(nil, "Videos")
	m.commentList = newList(nil, "Comments")
	return m
}

func newList(items []list.Item, title string) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// Init fetches the first page of videos.
func (m *Model) Init() tea.Cmd {
	return m.fetchPage(1)
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState { return m.view }

// Err returns the last error shown to the user.
func (m *Model) Err() error { return m.err }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.videoList.SetSize(msg.Width-4, msg.Height-8)
		m.commentList.SetSize(msg.Width-4, max(msg.Height-16, 4))
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case VideoListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ExportView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPageFetched:
		d := msg.data.(pageData)
		m.loading = false
		if d.err != nil {
			m.err = d.err
			return m, nil
		}
		m.err = nil
		m.page = d.page
		m.pageNum = max(d.page.Page, 1)
		cmd := m.videoList.SetItems(videoItems(d.page.Docs))
		m.videoList.Title = m.listTitle()
		m.videoList.ResetSelected()
		return m, cmd

	case MsgDetailFetched:
		d := msg.data.(detailData)
		m.loading = false
		if d.err != nil {
			m.err = d.err
			m.view = VideoListView
			return m, nil
		}
		m.err = nil
		m.selected = d.video
		cmd := m.commentList.SetItems(commentItems(d.comments))
		m.commentList.Title = fmt.Sprintf("Comments (%d)", len(d.comments))
		m.view = DetailView
		return m, cmd

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgExportComplete:
		d := msg.data.(exportData)
		m.result = d.result
		m.err = d.err
		m.progressChan = nil
		m.doneChan = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case VideoListView:
		return m.renderVideoList()
	case DetailView:
		return m.renderDetail()
	case ConfirmView:
		return m.renderConfirm()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.videoList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.videoList, cmd = m.videoList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.videoList.SelectedItem().(videoItem); ok && !m.loading {
			return m, m.fetchDetail(item.video.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		if next, ok := m.nextPage(); ok && !m.loading {
			return m, m.fetchPage(next)
		}
		return m, nil
	case key.Matches(msg, m.keys.prev):
		if m.pageNum > 1 && !m.loading {
			return m, m.fetchPage(m.pageNum - 1)
		}
		return m, nil
	case key.Matches(msg, m.keys.export):
		if m.export != nil {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.videoList, cmd = m.videoList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = VideoListView
		m.selected = nil
		return m, nil
	}

	var cmd tea.Cmd
	m.commentList, cmd = m.commentList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = ExportView
		return m, m.startExport()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = VideoListView
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart), key.Matches(msg, m.keys.back):
		m.view = VideoListView
		m.result = nil
		m.err = nil
		m.progress = tasks.ProgressUpdate{}
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case VideoListView:
		m.videoList, cmd = m.videoList.Update(msg)
	case DetailView:
		m.commentList, cmd = m.commentList.Update(msg)
	}
	return m, cmd
}

func (m *Model) nextPage() (int, bool) {
	if m.page == nil {
		return 0, false
	}
	return m.page.Next()
}

func (m *Model) fetchPage(n int) tea.Cmd {
	m.loading = true
	ctx, videos, q := m.ctx, m.videos, models.PageQuery{Page: n, Limit: m.pageSize}
	return func() tea.Msg {
		page, err := videos.List(ctx, q)
		if err == nil && page == nil {
			page = &models.Page[models.Video]{Page: n}
		}
		return pageFetchedMsg(page, err)
	}
}

func (m *Model) fetchDetail(id string) tea.Cmd {
	m.loading = true
	ctx, videos := m.ctx, m.videos
	return func() tea.Msg {
		video, err := videos.Get(ctx, id)
		if err != nil {
			return detailFetchedMsg(nil, nil, err)
		}
		// A video with unreadable comments still opens with an empty thread.
		comments, _ := videos.Comments(ctx, id)
		return detailFetchedMsg(video, comments, nil)
	}
}

func (m *Model) startExport() tea.Cmd {
	prog := make(chan tasks.ProgressUpdate, 50)
	done := make(chan exportData, 1)
	m.progressChan = prog
	m.doneChan = done

	ctx, export := m.ctx, m.export
	go func() {
		result, err := export(ctx, prog)
		close(prog)
		done <- exportData{result: result, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	prog, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		if prog == nil {
			return exportCompleteMsg(nil, nil)
		}
		update, ok := <-prog
		if !ok {
			d := <-done
			return exportCompleteMsg(d.result, d.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) listTitle() string {
	title := fmt.Sprintf("Videos (page %d", m.pageNum)
	if m.page != nil && m.page.TotalPages > 0 {
		title += fmt.Sprintf(" of %d", m.page.TotalPages)
	}
	title += ")"
	if m.user != nil {
		title += " • " + m.user.DisplayName()
	}
	return title
}

func (m *Model) renderVideoList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.next, m.keys.prev}
	if m.export != nil {
		helpKeys = append(helpKeys, m.keys.export)
	}
	helpKeys = append(helpKeys, m.keys.quit)

	var b strings.Builder
	b.WriteString(m.videoList.View())
	if m.loading {
		b.WriteString("\n" + styles.help.Render("Loading..."))
	}
	if m.err != nil {
		b.WriteString("\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	b.WriteString("\n\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderDetail() string {
	v := m.selected
	if v == nil {
		return styles.err.Render("No video selected\n\nPress esc to go back")
	}

	rows := []string{
		styles.field("Owner", v.OwnerName()),
		styles.field("Duration", v.DurationString()),
		styles.field("Views", fmt.Sprintf("%d", v.Views)),
		styles.field("Published", yesNo(v.IsPublished)),
		styles.field("Approved", yesNo(v.IsApproved)),
	}
	if v.Privacy != "" {
		rows = append(rows, styles.field("Privacy", v.Privacy))
	}
	if !v.CreatedAt.IsZero() {
		rows = append(rows, styles.field("Uploaded", v.CreatedAt.Format("2006-01-02")))
	}
	if v.Description != "" {
		rows = append(rows, "", v.Description)
	}

	title := styles.title.Render(v.Title)
	panel := styles.panel.Render(strings.Join(rows, "\n"))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, panel, m.commentList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Export the video catalog?")

	info := "\nEvery page of the catalog will be fetched and written to disk.\n"
	if m.page != nil && m.page.TotalDocs > 0 {
		info = fmt.Sprintf("\n%d videos across %d pages will be fetched and written to disk.\n", m.page.TotalDocs, m.page.TotalPages)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Exporting Videos")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchPages:
		if m.progress.Total > 0 {
			phase = fmt.Sprintf("Fetching pages (%d/%d)", m.progress.Step, m.progress.Total)
		} else {
			phase = "Fetching pages..."
		}
	case tasks.WriteFiles:
		phase = "Writing files..."
	case tasks.Complete:
		phase = "Finishing..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Export failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.result == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	title := styles.ok.Render("✓ Export Complete!")
	info := fmt.Sprintf("\nVideos: %d\nPages: %d\n", m.result.Videos, m.result.Pages)

	var files strings.Builder
	for _, f := range m.result.Files {
		files.WriteString("\n  • " + f)
	}

	var failed string
	if n := len(m.result.FailedPages); n > 0 {
		failed = "\n\n" + styles.warn.Render(fmt.Sprintf("Failed to fetch %d pages:", n))
		for _, p := range m.result.FailedPages {
			failed += fmt.Sprintf("\n  • page %d: %v", p.Page, p.Err)
		}
	}

	return fmt.Sprintf("%s\n%sFiles:%s%s\n\n%s", title, info, files.String(), failed, helpView)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
