package models

import (
	"fmt"
	"time"
)

// ExportRun records one paged export and its outcome.
type ExportRun struct {
	id           string
	resource     string
	format       string
	outputDir    string
	pages        int
	items        int
	errorMessage string
	startedAt    time.Time
	completedAt  *time.Time
}

// NewExportRun creates a run that starts now.
func NewExportRun(resource, format, outputDir string) *ExportRun {
	return &ExportRun{
		resource:  resource,
		format:    format,
		outputDir: outputDir,
		startedAt: time.Now().UTC(),
	}
}

func (r *ExportRun) ID() string              { return r.id }
func (r *ExportRun) SetID(id string)         { r.id = id }
func (r *ExportRun) Resource() string        { return r.resource }
func (r *ExportRun) Format() string          { return r.format }
func (r *ExportRun) OutputDir() string       { return r.outputDir }
func (r *ExportRun) Pages() int              { return r.pages }
func (r *ExportRun) Items() int              { return r.items }
func (r *ExportRun) ErrorMessage() string    { return r.errorMessage }
func (r *ExportRun) StartedAt() time.Time    { return r.startedAt }
func (r *ExportRun) CompletedAt() *time.Time { return r.completedAt }

// CreatedAt is the start time.
func (r *ExportRun) CreatedAt() time.Time { return r.startedAt }

// UpdatedAt is the completion time, or the start time while the run is open.
func (r *ExportRun) UpdatedAt() time.Time {
	if r.completedAt != nil {
		return *r.completedAt
	}
	return r.startedAt
}

// SetStartedAt overrides the start time. Repositories use it when loading rows.
func (r *ExportRun) SetStartedAt(t time.Time) { r.startedAt = t }

// SetCounts records progress so far.
func (r *ExportRun) SetCounts(pages, items int) {
	r.pages = pages
	r.items = items
}

// Complete closes the run, recording err when it failed.
func (r *ExportRun) Complete(err error) {
	now := time.Now().UTC()
	r.completedAt = &now
	if err != nil {
		r.errorMessage = err.Error()
	}
}

// Restore sets the closing fields of a run loaded from storage.
func (r *ExportRun) Restore(completedAt *time.Time, errorMessage string) {
	r.completedAt = completedAt
	r.errorMessage = errorMessage
}

// Succeeded reports whether the run completed without error.
func (r *ExportRun) Succeeded() bool {
	return r.completedAt != nil && r.errorMessage == ""
}

func (r *ExportRun) Validate() error {
	if r.resource == "" {
		return fmt.Errorf("resource is required")
	}
	if r.format == "" {
		return fmt.Errorf("format is required")
	}
	if r.outputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}
