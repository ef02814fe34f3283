// Package batch warms the asset cache with a worker pool before a build pass.
package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Hansen-L/TTS-Exporter/internal/build"
	"github.com/Hansen-L/TTS-Exporter/internal/logging"
	"github.com/Hansen-L/TTS-Exporter/internal/scene"
)

// Config holds the shared resources of a prefetch run.
type Config struct {
	Fetcher build.Fetcher
	Workers int
	Log     *log.Logger
	// Progress is the interval between progress lines; zero means 2s.
	Progress time.Duration
}

// Result holds the outcome of fetching one URL.
type Result struct {
	URL   string
	Path  string
	Error string

	err error
}

// Assets lists the URLs a build pass will fetch, in first-use order without duplicates.
func Assets(entities []scene.Entity) []string {
	seen := make(map[string]bool)
	var urls []string
	add := func(u string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		urls = append(urls, u)
	}
	for _, e := range entities {
		switch e.Kind {
		case scene.KindCustomModel:
			add(e.Model.MeshURL)
			add(e.Model.DiffuseURL)
		case scene.KindPlane:
			add(e.Plane.ImageURL)
		case scene.KindCard:
			add(e.Card.FaceURL)
		}
	}
	return urls
}

// Prefetch fetches every URL using a worker pool. Failures are reported per URL and do
// not stop the other workers; wrap the fetcher with Settled so the build pass reports them
// in order without a second request.
func Prefetch(ctx context.Context, cfg Config, urls []string) []Result {
	l := logging.OrDiscard(cfg.Log)
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	interval := cfg.Progress
	if interval <= 0 {
		interval = 2 * time.Second
	}

	total := len(urls)
	results := make([]Result, total)
	var processed atomic.Int64
	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if p := processed.Load(); p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					l.Info("prefetching", "done", p, "total", total, "per_sec", rate)
				}
			}
		}
	}()

	// Worker pool
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = fetchOne(ctx, cfg.Fetcher, urls[i])
				processed.Add(1)
			}
		}()
	}

	for i := range urls {
		if ctx.Err() == nil {
			select {
			case jobs <- i:
				continue
			case <-ctx.Done():
			}
		}
		for j := i; j < total; j++ {
			results[j] = Result{URL: urls[j], Error: ctx.Err().Error(), err: ctx.Err()}
		}
		break
	}
	close(jobs)

	wg.Wait()
	close(done)

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			l.Warn("prefetch failed", "url", r.URL, "err", r.Error)
		}
	}
	l.Info("prefetch finished", "urls", total, "failed", failed, "took", time.Since(start).Round(time.Millisecond))
	return results
}

func fetchOne(ctx context.Context, f build.Fetcher, url string) Result {
	p, err := f.Fetch(ctx, url)
	if err != nil {
		return Result{URL: url, Error: err.Error(), err: err}
	}
	return Result{URL: url, Path: p}
}

// Settled wraps f so URLs that failed during prefetch fail again with the same error
// instead of being requested a second time.
func Settled(f build.Fetcher, results []Result) build.Fetcher {
	failed := make(map[string]error)
	for _, r := range results {
		if r.err != nil {
			failed[r.URL] = r.err
		}
	}
	return &settled{next: f, failed: failed}
}

type settled struct {
	next   build.Fetcher
	failed map[string]error
}

func (s *settled) Fetch(ctx context.Context, url string) (string, error) {
	if err, ok := s.failed[url]; ok {
		return "", err
	}
	return s.next.Fetch(ctx, url)
}
