package tasks

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

// PageFetcher returns one page of a paged video collection. Pages start at 1.
type PageFetcher func(ctx context.Context, page int) (*models.Page[models.Video], error)

// ExportOpts configures one export.
type ExportOpts struct {
	Resource   string       // Short name of the collection, used in progress and run history
	Name       string       // Title written into the export (default: Resource)
	Format     string       // formatter format: json, csv, markdown, txt
	OutputDir  string       // Directory the files are written to
	Workers    int          // Concurrent page fetches (default: 4, max 10)
	RateLimit  float64      // Page requests per second (default: 5)
	MaxPages   int          // Stop after this many pages, 0 for all
	Thumbnails bool         // Download thumbnails for Markdown exports
	Client     *http.Client // Client for thumbnail downloads
}

// PageError is a page that could not be fetched.
type PageError struct {
	Page int
	Err  error
}

// ExportResult summarises an export.
type ExportResult struct {
	Run         *models.ExportRun
	Pages       int
	Videos      int
	Files       []string
	FailedPages []PageError
}

// ExportEngine runs paged exports.
type ExportEngine struct {
	runs   models.Repository[*models.ExportRun]
	logger *log.Logger
}

// NewExportEngine creates an engine. runs may be nil to skip run history.
func NewExportEngine(runs models.Repository[*models.ExportRun], logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &ExportEngine{runs: runs, logger: logger}
}

// History lists recorded runs, newest first. resource may be empty.
func (e *ExportEngine) History(resource string, limit int) ([]*models.ExportRun, error) {
	if e.runs == nil {
		return nil, nil
	}
	criteria := map[string]any{}
	if resource != "" {
		criteria["resource"] = resource
	}
	if limit > 0 {
		criteria["limit"] = limit
	}
	return e.runs.List(criteria)
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ExportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *ExportEngine) startRun(run *models.ExportRun) {
	if e.runs == nil {
		return
	}
	if err := e.runs.Create(run); err != nil {
		e.logger.Warn("failed to record export run", "error", err)
	}
}

func (e *ExportEngine) finishRun(run *models.ExportRun, err error) {
	run.Complete(err)
	if e.runs == nil || run.ID() == "" {
		return
	}
	if err := e.runs.Update(run); err != nil {
		e.logger.Warn("failed to update export run", "id", run.ID(), "error", err)
	}
}
