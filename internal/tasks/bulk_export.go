package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/vtx/internal/formatter"
	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

// Export walks every page fetch returns and writes the videos with the formatter.
//
// The first page must succeed; later page failures are collected in
// [ExportResult.FailedPages]. Cancelling ctx aborts the walk with ctx.Err().
func (e *ExportEngine) Export(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	fetch PageFetcher,
	opts ExportOpts,
) (result *ExportResult, err error) {
	if fetch == nil {
		return nil, fmt.Errorf("%w: page fetcher", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format

	if opts.Resource == "" {
		opts.Resource = "videos"
	}
	if opts.Name == "" {
		opts.Name = opts.Resource
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("%s_export_%d", opts.Resource, time.Now().Unix())
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	run := models.NewExportRun(opts.Resource, opts.Format, opts.OutputDir)
	e.startRun(run)
	result = &ExportResult{Run: run}
	defer func() { e.finishRun(run, err) }()

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	pages, err := e.walk(ctx, prog, fetch, limiter, opts, result)
	if err != nil {
		return result, err
	}

	collection := &formatter.Collection{Name: opts.Name, ExportedAt: time.Now().UTC()}
	for _, p := range pages {
		collection.Videos = append(collection.Videos, p.videos...)
	}
	result.Pages = len(pages)
	result.Videos = len(collection.Videos)
	run.SetCounts(result.Pages, result.Videos)

	e.sendProgress(prog, writingUpdate(opts.Format, result.Videos))

	files, err := formatter.WriteExport(ctx, collection, opts.OutputDir, opts.Resource, formatter.ExportOpts{
		Format:     opts.Format,
		Thumbnails: opts.Thumbnails,
		Client:     opts.Client,
		Warn:       func(msg string, kv ...any) { e.logger.Warn(msg, kv...) },
	})
	if err != nil {
		return result, fmt.Errorf("export fetched %d videos but failed to write: %w", result.Videos, err)
	}
	result.Files = files

	e.logger.Info("export complete", "resource", opts.Resource, "pages", result.Pages, "videos", result.Videos, "failed_pages", len(result.FailedPages))
	e.sendProgress(prog, completeUpdate(result))
	return result, nil
}

type fetchedPage struct {
	number int
	videos []models.Video
}

// walk fetches page 1 and then the rest, concurrently when the page count is known.
func (e *ExportEngine) walk(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	fetch PageFetcher,
	limiter *rate.Limiter,
	opts ExportOpts,
	result *ExportResult,
) ([]fetchedPage, error) {
	e.sendProgress(prog, fetchingPageUpdate(1, 0, opts.Resource))

	first, err := e.fetchOne(ctx, fetch, limiter, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}

	pages := []fetchedPage{{number: 1, videos: first.Docs}}

	total := first.TotalPages
	if opts.MaxPages > 0 && total > opts.MaxPages {
		total = opts.MaxPages
	}
	e.sendProgress(prog, pageFetchedUpdate(1, max(total, 1), 1, len(first.Docs)))

	if total > 1 {
		rest, err := e.fetchConcurrent(ctx, prog, fetch, limiter, opts, total, result)
		if err != nil {
			return nil, err
		}
		return append(pages, rest...), nil
	}

	if first.TotalPages == 0 {
		rest, err := e.follow(ctx, prog, fetch, limiter, opts, first, result)
		if err != nil {
			return nil, err
		}
		return append(pages, rest...), nil
	}

	return pages, nil
}

// fetchConcurrent fetches pages 2..total with at most opts.Workers in flight.
func (e *ExportEngine) fetchConcurrent(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	fetch PageFetcher,
	limiter *rate.Limiter,
	opts ExportOpts,
	total int,
	result *ExportResult,
) ([]fetchedPage, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	var (
		mu    sync.Mutex
		pages []fetchedPage
		done  = 1
	)

	for n := 2; n <= total; n++ {
		g.Go(func() error {
			page, err := e.fetchOne(gctx, fetch, limiter, n)

			mu.Lock()
			defer mu.Unlock()
			done++

			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				result.FailedPages = append(result.FailedPages, PageError{Page: n, Err: err})
				e.sendProgress(prog, pageFailedUpdate(done, total, n, err))
				return nil
			}

			pages = append(pages, fetchedPage{number: n, videos: page.Docs})
			e.sendProgress(prog, pageFetchedUpdate(done, total, n, len(page.Docs)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].number < pages[j].number })
	sort.Slice(result.FailedPages, func(i, j int) bool { return result.FailedPages[i].Page < result.FailedPages[j].Page })
	return pages, nil
}

// follow walks nextPage links one at a time. A failed page ends the walk since the
// following cursor is unknown.
func (e *ExportEngine) follow(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	fetch PageFetcher,
	limiter *rate.Limiter,
	opts ExportOpts,
	current *models.Page[models.Video],
	result *ExportResult,
) ([]fetchedPage, error) {
	var pages []fetchedPage
	seen := map[int]bool{1: true}

	for {
		next, ok := current.Next()
		if !ok || seen[next] {
			return pages, nil
		}
		if opts.MaxPages > 0 && len(pages)+1 >= opts.MaxPages {
			return pages, nil
		}
		seen[next] = true

		e.sendProgress(prog, fetchingPageUpdate(next, 0, opts.Resource))
		page, err := e.fetchOne(ctx, fetch, limiter, next)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			result.FailedPages = append(result.FailedPages, PageError{Page: next, Err: err})
			e.sendProgress(prog, pageFailedUpdate(len(pages)+2, 0, next, err))
			return pages, nil
		}

		pages = append(pages, fetchedPage{number: next, videos: page.Docs})
		e.sendProgress(prog, pageFetchedUpdate(len(pages)+1, 0, next, len(page.Docs)))
		current = page
	}
}

func (e *ExportEngine) fetchOne(ctx context.Context, fetch PageFetcher, limiter *rate.Limiter, n int) (*models.Page[models.Video], error) {
	if err := limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	page, err := fetch(ctx, n)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, fmt.Errorf("%w: page %d is empty", shared.ErrMalformedResponse, n)
	}
	return page, nil
}

// Failed reports whether any page could not be fetched.
func (r *ExportResult) Failed() bool { return len(r.FailedPages) > 0 }

// Err joins the page failures, or returns nil.
func (r *ExportResult) Err() error {
	errs := make([]error, 0, len(r.FailedPages))
	for _, f := range r.FailedPages {
		errs = append(errs, fmt.Errorf("page %d: %w", f.Page, f.Err))
	}
	return errors.Join(errs...)
}
