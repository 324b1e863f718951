package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPages Phase = iota
	WriteFiles
	Complete
)

func (p Phase) String() string {
	switch p {
	case FetchPages:
		return "fetch_pages"
	case WriteFiles:
		return "write_files"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func fetchingPageUpdate(page, total int, resource string) ProgressUpdate {
	if total == 0 {
		return ProgressUpdate{
			Phase:   FetchPages,
			Step:    page,
			Message: fmt.Sprintf("Fetching %s page %d...", resource, page),
		}
	}
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    page,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching %s page %d...", page, total, resource, page),
	}
}

func pageFetchedUpdate(done, total, page, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    done,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ page %d (%d videos)", done, total, page, count),
	}
}

func pageFailedUpdate(done, total, page int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    done,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ page %d: %v", done, total, page, err),
	}
}

func writingUpdate(format string, videos int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFiles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d videos as %s...", videos, format),
	}
}

func completeUpdate(result *ExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Exported %d videos from %d pages (%d files)", result.Videos, result.Pages, len(result.Files)),
		Data:    result,
	}
}
