package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
	"golang.org/x/time/rate"
)

// TitleFetcher looks up full details for an exact title.
type TitleFetcher interface {
	LookupTitle(ctx context.Context, title string) (*models.MovieDetail, error)
}

// HydrateOpts contains configuration for a hydration batch.
type HydrateOpts struct {
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Lookups per second (default: 5)
}

// TitleFailure is a title that could not be hydrated.
type TitleFailure struct {
	Title string
	Error error
}

// HydrateResult holds the hydrated details in input order plus the excluded titles.
type HydrateResult struct {
	Movies []models.MovieDetail
	Failed []TitleFailure
}

type hydrateJob struct {
	index int
	title string
}

type hydrateOutcome struct {
	index  int
	title  string
	detail *models.MovieDetail
	err    error
}

// Hydrate fetches details for titles concurrently with rate limiting and progress tracking.
//
// Blank titles are skipped. A lookup failure excludes that title only. The returned error is
// non-nil only when ctx ends before every title was attempted; the partial result is still returned.
func Hydrate(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	fetcher TitleFetcher,
	titles []string,
	opts HydrateOpts,
) (*HydrateResult, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("%w: title fetcher not initialized", shared.ErrServiceUnavailable)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	cleaned := make([]string, 0, len(titles))
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}

	result := &HydrateResult{Movies: []models.MovieDetail{}}
	total := len(cleaned)
	if total == 0 {
		return result, nil
	}

	sendProgress(prog, hydrateStartUpdate(total))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), opts.NumWorkers)
	jobs := make(chan hydrateJob, total)
	outcomes := make(chan hydrateOutcome, total)

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go hydrateWorker(ctx, &wg, limiter, fetcher, jobs, outcomes)
	}

	for i, title := range cleaned {
		jobs <- hydrateJob{index: i, title: title}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	details := make([]*models.MovieDetail, total)
	completed := 0
	for out := range outcomes {
		completed++
		if out.err != nil {
			result.Failed = append(result.Failed, TitleFailure{Title: out.title, Error: out.err})
		} else {
			details[out.index] = out.detail
		}
		sendProgress(prog, hydrateTitleUpdate(completed, total, out.title, out.err))
	}

	for _, d := range details {
		if d != nil {
			result.Movies = append(result.Movies, *d)
		}
	}

	sendProgress(prog, hydrateDoneUpdate(len(result.Movies), total))

	if completed < total {
		return result, fmt.Errorf("hydration interrupted after %d of %d titles: %w", completed, total, ctx.Err())
	}
	return result, nil
}

// hydrateWorker looks up titles from the jobs channel until it closes or ctx ends.
func hydrateWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	fetcher TitleFetcher,
	jobs <-chan hydrateJob,
	outcomes chan<- hydrateOutcome,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		detail, err := fetcher.LookupTitle(ctx, job.title)
		if err == nil && detail == nil {
			err = fmt.Errorf("%w: %s", shared.ErrMovieNotFound, job.title)
		}
		outcomes <- hydrateOutcome{index: job.index, title: job.title, detail: detail, err: err}
	}
}
