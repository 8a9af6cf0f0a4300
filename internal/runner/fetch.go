package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"mercascan/internal/config"
	"mercascan/internal/fetcher"
	"mercascan/internal/types"
)

var sourceIDRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// FetchURLs downloads each page and saves the markup under outDir, named by
// a sanitized form of the URL. Transient failures are retried per the
// process configuration; pages that still fail are logged and skipped.
func (r *Runner) FetchURLs(ctx context.Context, urls []string, outDir string) (*Summary, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs to fetch")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	f, err := fetcher.New(r.cfg, r.logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	defer f.Close()

	summary := &Summary{}
	jobs := make(chan string)

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Process.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rawURL := range jobs {
				r.metrics.ActiveWorkers.Add(1)
				if err := r.fetchOne(ctx, f, rawURL, outDir); err != nil {
					r.metrics.PagesFailed.Add(1)
					r.logger.Warn("fetch failed", "url", rawURL, "error", err)
				}
				r.metrics.ActiveWorkers.Add(-1)
			}
		}()
	}

	for _, rawURL := range urls {
		select {
		case jobs <- rawURL:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	summary.Pages = r.metrics.PagesTotal.Load()
	summary.Failed = r.metrics.PagesFailed.Load()
	return summary, nil
}

func (r *Runner) fetchOne(ctx context.Context, f fetcher.Fetcher, rawURL, outDir string) error {
	if err := config.ValidateURL(rawURL); err != nil {
		return err
	}
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return err
	}
	r.metrics.PagesTotal.Add(1)

	var resp *types.Response
	for attempt := 0; ; attempt++ {
		resp, err = f.Fetch(ctx, req)
		if err == nil {
			break
		}

		var ferr *types.FetchError
		retryable := errors.As(err, &ferr) && ferr.Retryable
		if !retryable || attempt >= r.cfg.Process.MaxRetries {
			return err
		}
		r.metrics.PagesRetried.Add(1)

		delay := r.cfg.Process.RetryDelay
		if ferr.RetryAfter > 0 {
			delay = ferr.RetryAfter
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	r.metrics.BytesRead.Add(int64(len(resp.Body)))

	name := sourceIDRe.ReplaceAllString(req.Domain()+"_"+req.URL.Path, "_")
	path := filepath.Join(outDir, name+".html")
	if err := os.WriteFile(path, resp.Body, 0o644); err != nil {
		return fmt.Errorf("save page: %w", err)
	}
	r.logger.Debug("page saved", "url", rawURL, "path", path, "size", len(resp.Body))
	return nil
}
