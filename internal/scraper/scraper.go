// Package scraper downloads problem statements into the local cache.
//
// Runs are resumable: problems that already have a cached statement are
// skipped, and a failed page is simply left for the next run.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/icpc-trainer/probgraph/internal/logging"
	"github.com/icpc-trainer/probgraph/internal/problem"
)

const (
	// BaseURL is the site statements are scraped from.
	BaseURL = "https://codeforces.com"

	// DefaultWorkers is the size of the worker pool.
	DefaultWorkers = 3

	// DefaultInterval spaces requests across all workers (about 1.5 req/s).
	DefaultInterval = 670 * time.Millisecond

	// MaxAttempts bounds retries per page.
	MaxAttempts = 3

	// progressEvery controls how often progress is logged.
	progressEvery = 25

	unavailableMarker = "Codeforces is temporarily unavailable"
)

// errSkip marks a page that will not yield a statement on retry.
var errSkip = errors.New("no statement")

// Store is the statement cache the scraper reads and fills.
type Store interface {
	StatementKeys() (map[string]bool, error)
	SaveStatement(key, text string) error
	PurgeEmptyStatements() (int, error)
}

// Stats summarizes a scrape run.
type Stats struct {
	Cached    int           `json:"cached"`
	Purged    int           `json:"purged"`
	Attempted int           `json:"attempted"`
	Scraped   int           `json:"scraped"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}

// Scraper fetches statements with a bounded worker pool sharing one
// rate limiter.
type Scraper struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	workers int
	sleep   func(ctx context.Context, d time.Duration) error
	log     zerolog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(s *Scraper) {
		s.baseURL = u
	}
}

// WithWorkers sets the worker count.
func WithWorkers(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithInterval sets the global spacing between requests. Zero disables it.
func WithInterval(d time.Duration) Option {
	return func(s *Scraper) {
		if d <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// New creates a scraper.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client:  &http.Client{Timeout: 20 * time.Second},
		limiter: rate.NewLimiter(rate.Every(DefaultInterval), 1),
		baseURL: BaseURL,
		workers: DefaultWorkers,
		sleep:   sleepCtx,
		log:     logging.Component("scraper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run scrapes every problem without a cached statement. Individual page
// failures are logged and skipped; only store errors and cancellation
// abort the run.
func (s *Scraper) Run(ctx context.Context, problems []problem.Problem, store Store) (Stats, error) {
	start := time.Now()
	var stats Stats

	purged, err := store.PurgeEmptyStatements()
	if err != nil {
		return stats, fmt.Errorf("purging empty statements: %w", err)
	}
	stats.Purged = purged
	if purged > 0 {
		s.log.Info().Int("purged", purged).Msg("removed empty entries from a previous run")
	}

	cached, err := store.StatementKeys()
	if err != nil {
		return stats, fmt.Errorf("listing cached statements: %w", err)
	}

	var todo []problem.Problem
	for _, p := range problems {
		if cached[p.Key()] {
			stats.Cached++
			continue
		}
		todo = append(todo, p)
	}
	stats.Attempted = len(todo)
	s.log.Info().Int("cached", stats.Cached).Int("remaining", len(todo)).Int("workers", s.workers).Msg("scraping statements")

	var scraped, skipped, done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, p := range todo {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			text, err := s.fetchOne(gctx, p.ID)
			switch {
			case err == nil:
				if err := store.SaveStatement(p.Key(), text); err != nil {
					return fmt.Errorf("saving %s: %w", p.Key(), err)
				}
				scraped.Add(1)
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				skipped.Add(1)
				s.log.Debug().Err(err).Str("key", p.Key()).Msg("skipped")
			}

			if n := done.Add(1); n%progressEvery == 0 || int(n) == len(todo) {
				s.logProgress(int(n), len(todo), start)
			}
			return nil
		})
	}

	err = g.Wait()
	stats.Scraped = int(scraped.Load())
	stats.Skipped = int(skipped.Load())
	stats.Duration = time.Since(start)
	if err != nil {
		return stats, err
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	s.log.Info().Int("scraped", stats.Scraped).Int("skipped", stats.Skipped).Dur("took", stats.Duration).Msg("scrape finished")
	return stats, nil
}

func (s *Scraper) logProgress(done, total int, start time.Time) {
	elapsed := time.Since(start)
	var eta time.Duration
	if done > 0 {
		eta = time.Duration(float64(elapsed) / float64(done) * float64(total-done))
	}
	s.log.Info().Int("done", done).Int("total", total).Dur("eta", eta.Round(time.Second)).Msg("scrape progress")
}

// fetchOne downloads and parses one statement.
//
// 404 and pages without a statement are skipped at once. 503 (or the
// site's maintenance page) and 403 wait 4s, 8s, 16s. Other failures wait
// 2s, 4s.
func (s *Scraper) fetchOne(ctx context.Context, id problem.ID) (string, error) {
	url := fmt.Sprintf("%s/contest/%d/problem/%s", s.baseURL, id.Contest, id.Index)

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		status, body, err := s.get(ctx, url)
		var wait time.Duration
		switch {
		case err != nil:
			lastErr = err
			wait = time.Duration(1<<(attempt+1)) * time.Second
		case status == http.StatusNotFound:
			return "", fmt.Errorf("%w: %s returned 404", errSkip, id.Key())
		case status == http.StatusServiceUnavailable || status == http.StatusForbidden ||
			strings.Contains(body, unavailableMarker):
			lastErr = fmt.Errorf("%s returned %d", id.Key(), status)
			wait = time.Duration(1<<(attempt+2)) * time.Second
		case status != http.StatusOK:
			lastErr = fmt.Errorf("%s returned %d", id.Key(), status)
			wait = time.Duration(1<<(attempt+1)) * time.Second
		default:
			text, err := ParseStatement(strings.NewReader(body))
			if err != nil {
				return "", err
			}
			if text == "" {
				return "", fmt.Errorf("%w: empty statement for %s", errSkip, id.Key())
			}
			return text, nil
		}

		if attempt == MaxAttempts-1 {
			break
		}
		s.log.Debug().Err(lastErr).Dur("wait", wait).Msg("retrying")
		if err := s.sleep(ctx, wait); err != nil {
			return "", err
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("giving up after %d attempts: %w", MaxAttempts, lastErr)
}

func (s *Scraper) get(ctx context.Context, url string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; pgraph/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(body), nil
}
