package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/desertthunder/vtx/internal/tasks"
)

type fakeSource struct {
	pages       int
	listErr     error
	getErr      error
	commentsErr error
	queries     []models.PageQuery
}

func (f *fakeSource) List(_ context.Context, q models.PageQuery) (*models.Page[models.Video], error) {
	f.queries = append(f.queries, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	page := &models.Page[models.Video]{Page: q.Page, TotalPages: f.pages, TotalDocs: f.pages * 2, HasNextPage: q.Page < f.pages}
	for i := range 2 {
		page.Docs = append(page.Docs, models.Video{
			ID:          fmt.Sprintf("p%d-%d", q.Page, i),
			Title:       fmt.Sprintf("Page %d Video %d", q.Page, i),
			Owner:       &models.Owner{ID: "u1", Username: "ada"},
			IsPublished: true,
		})
	}
	return page, nil
}

func (f *fakeSource) Get(_ context.Context, id string) (*models.Video, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.Video{ID: id, Title: "Video " + id, Description: "about " + id, Views: 7}, nil
}

func (f *fakeSource) Comments(_ context.Context, id string) ([]models.Comment, error) {
	if f.commentsErr != nil {
		return nil, f.commentsErr
	}
	return []models.Comment{{ID: "c1", Text: "nice", User: &models.Owner{Username: "bob"}}}, nil
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and feeds the resulting messages back into m until no Msg is produced.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for range 100 {
		if cmd == nil {
			return
		}
		msg, ok := cmd().(Msg)
		if !ok {
			return
		}
		_, cmd = m.Update(msg)
	}
	t.Fatal("too many messages")
}

func newLoadedModel(t *testing.T, src *fakeSource, export ExportFunc) *Model {
	t.Helper()
	m := NewModel(context.Background(), Options{Videos: src, Export: export, User: &models.User{Username: "ada"}})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	drain(t, m, m.Init())
	return m
}

func TestModelBrowse(t *testing.T) {
	t.Run("loads first page", func(t *testing.T) {
		src := &fakeSource{pages: 3}
		m := newLoadedModel(t, src, nil)

		if m.ViewState() != VideoListView {
			t.Fatalf("expected VideoListView, got %v", m.ViewState())
		}
		if len(src.queries) != 1 || src.queries[0].Page != 1 || src.queries[0].Limit != 9 {
			t.Errorf("unexpected queries: %+v", src.queries)
		}
		if got := len(m.videoList.Items()); got != 2 {
			t.Errorf("expected 2 items, got %d", got)
		}
		if !strings.Contains(m.videoList.Title, "page 1 of 3") || !strings.Contains(m.videoList.Title, "ada") {
			t.Errorf("unexpected title %q", m.videoList.Title)
		}
	})

	t.Run("pages forward and back", func(t *testing.T) {
		src := &fakeSource{pages: 2}
		m := newLoadedModel(t, src, nil)

		_, cmd := m.Update(keyRunes("n"))
		drain(t, m, cmd)
		if m.pageNum != 2 {
			t.Fatalf("expected page 2, got %d", m.pageNum)
		}

		_, cmd = m.Update(keyRunes("n"))
		if cmd != nil {
			t.Error("expected no fetch past the last page")
		}

		_, cmd = m.Update(keyRunes("p"))
		drain(t, m, cmd)
		if m.pageNum != 1 {
			t.Errorf("expected page 1, got %d", m.pageNum)
		}
	})

	t.Run("list error is shown", func(t *testing.T) {
		src := &fakeSource{listErr: shared.ErrNetwork}
		m := newLoadedModel(t, src, nil)

		if !errors.Is(m.Err(), shared.ErrNetwork) {
			t.Fatalf("expected ErrNetwork, got %v", m.Err())
		}
		if !strings.Contains(m.View(), "network error") {
			t.Errorf("expected error in view, got %q", m.View())
		}
	})

	t.Run("opens detail and goes back", func(t *testing.T) {
		src := &fakeSource{pages: 1}
		m := newLoadedModel(t, src, nil)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		drain(t, m, cmd)

		if m.ViewState() != DetailView {
			t.Fatalf("expected DetailView, got %v", m.ViewState())
		}
		view := m.View()
		if !strings.Contains(view, "Video p1-0") || !strings.Contains(view, "about p1-0") {
			t.Errorf("detail view missing video fields: %q", view)
		}
		if got := len(m.commentList.Items()); got != 1 {
			t.Errorf("expected 1 comment, got %d", got)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.ViewState() != VideoListView {
			t.Errorf("expected VideoListView after esc, got %v", m.ViewState())
		}
	})

	t.Run("detail opens without comments", func(t *testing.T) {
		src := &fakeSource{pages: 1, commentsErr: shared.ErrAPIRequest}
		m := newLoadedModel(t, src, nil)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		drain(t, m, cmd)

		if m.ViewState() != DetailView || len(m.commentList.Items()) != 0 {
			t.Errorf("expected detail with no comments, got view %v with %d", m.ViewState(), len(m.commentList.Items()))
		}
	})

	t.Run("detail error stays on list", func(t *testing.T) {
		src := &fakeSource{pages: 1, getErr: shared.ErrVideoNotFound}
		m := newLoadedModel(t, src, nil)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		drain(t, m, cmd)

		if m.ViewState() != VideoListView || !errors.Is(m.Err(), shared.ErrVideoNotFound) {
			t.Errorf("expected list view with ErrVideoNotFound, got %v / %v", m.ViewState(), m.Err())
		}
	})

	t.Run("quit", func(t *testing.T) {
		m := newLoadedModel(t, &fakeSource{pages: 1}, nil)
		_, cmd := m.Update(keyRunes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestModelExport(t *testing.T) {
	t.Run("disabled without exporter", func(t *testing.T) {
		m := newLoadedModel(t, &fakeSource{pages: 1}, nil)
		m.Update(keyRunes("e"))
		if m.ViewState() != VideoListView {
			t.Errorf("expected to stay on list, got %v", m.ViewState())
		}
	})

	t.Run("cancel at confirm", func(t *testing.T) {
		called := false
		export := func(context.Context, chan<- tasks.ProgressUpdate) (*tasks.ExportResult, error) {
			called = true
			return nil, nil
		}
		m := newLoadedModel(t, &fakeSource{pages: 1}, export)

		m.Update(keyRunes("e"))
		if m.ViewState() != ConfirmView {
			t.Fatalf("expected ConfirmView, got %v", m.ViewState())
		}
		m.Update(keyRunes("n"))
		if m.ViewState() != VideoListView || called {
			t.Errorf("expected cancel back to list without exporting")
		}
	})

	t.Run("runs to result", func(t *testing.T) {
		export := func(_ context.Context, prog chan<- tasks.ProgressUpdate) (*tasks.ExportResult, error) {
			prog <- tasks.ProgressUpdate{Phase: tasks.FetchPages, Step: 1, Total: 2, Message: "page 1"}
			prog <- tasks.ProgressUpdate{Phase: tasks.WriteFiles, Step: 1, Total: 1, Message: "writing"}
			return &tasks.ExportResult{
				Pages:       2,
				Videos:      4,
				Files:       []string{"out/videos.json"},
				FailedPages: []tasks.PageError{{Page: 3, Err: shared.ErrNetwork}},
			}, nil
		}
		m := newLoadedModel(t, &fakeSource{pages: 2}, export)

		m.Update(keyRunes("e"))
		_, cmd := m.Update(keyRunes("y"))
		if m.ViewState() != ExportView {
			t.Fatalf("expected ExportView, got %v", m.ViewState())
		}
		drain(t, m, cmd)

		if m.ViewState() != ResultView {
			t.Fatalf("expected ResultView, got %v", m.ViewState())
		}
		view := m.View()
		for _, want := range []string{"Export Complete", "Videos: 4", "out/videos.json", "page 3"} {
			if !strings.Contains(view, want) {
				t.Errorf("result view missing %q: %q", want, view)
			}
		}

		m.Update(keyRunes("r"))
		if m.ViewState() != VideoListView {
			t.Errorf("expected VideoListView after restart, got %v", m.ViewState())
		}
	})

	t.Run("failure is shown", func(t *testing.T) {
		export := func(context.Context, chan<- tasks.ProgressUpdate) (*tasks.ExportResult, error) {
			return nil, shared.ErrSessionExpired
		}
		m := newLoadedModel(t, &fakeSource{pages: 1}, export)

		m.Update(keyRunes("e"))
		_, cmd := m.Update(keyRunes("y"))
		drain(t, m, cmd)

		if !strings.Contains(m.View(), "Export failed: session expired") {
			t.Errorf("expected failure in view, got %q", m.View())
		}
	})
}

func TestVideoItem(t *testing.T) {
	item := videoItem{video: models.Video{Title: "Intro", Duration: 75, Views: 3, Owner: &models.Owner{Username: "ada"}}}
	if item.Title() != "Intro" || item.FilterValue() != "Intro" {
		t.Errorf("unexpected title %q", item.Title())
	}
	if got := item.Description(); got != "ada • 1:15 • 3 views • unpublished" {
		t.Errorf("unexpected description %q", got)
	}

	c := commentItem{comment: models.Comment{Text: "hi"}}
	if c.Description() != "anonymous" {
		t.Errorf("unexpected comment description %q", c.Description())
	}
}
