// Package fetch downloads save-file assets into a local cache directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Hansen-L/TTS-Exporter/internal/logging"
)

// ErrStatus is wrapped by Fetch when the server answers with a non-2xx status.
var ErrStatus = errors.New("unexpected http status")

// Fetcher resolves asset URLs to local files, downloading each URL at most once.
type Fetcher struct {
	dir    string
	client *http.Client
	log    *log.Logger

	mu       sync.Mutex
	index    *Index
	inflight map[string]chan struct{} // url → closed when its download ends
	reserved map[string]bool          // file names claimed by running downloads
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the default HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets the per-request timeout. A client passed with WithClient is copied
// first, so the caller's client keeps its own timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		c := *f.client
		c.Timeout = d
		f.client = &c
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) { f.log = logging.OrDiscard(l) }
}

// New creates the cache directory if needed and loads its index.
func New(dir string, opts ...Option) (*Fetcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("fetch: create cache dir: %w", err)
	}
	idx, err := LoadIndex(dir)
	if err != nil {
		return nil, err
	}
	f := &Fetcher{
		dir:    dir,
		client: &http.Client{Timeout: 60 * time.Second},
		log:    logging.Discard(),
		index:  idx,

		inflight: make(map[string]chan struct{}),
		reserved: make(map[string]bool),
	}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// Dir returns the cache directory.
func (f *Fetcher) Dir() string {
	return f.dir
}

// Cached returns the number of URLs recorded in the cache index.
func (f *Fetcher) Cached() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index.Len()
}

// Fetch returns a local path for rawURL. file:// URLs and plain paths resolve in place;
// http(s) URLs are served from the cache or downloaded into it.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.New("fetch: empty url")
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain path; a one-letter scheme is a Windows drive.
		return localPath(rawURL)
	}
	switch u.Scheme {
	case "file":
		p := u.Path
		if u.Host != "" && u.Host != "localhost" {
			p = "//" + u.Host + p
		}
		return localPath(filepath.FromSlash(p))
	case "http", "https":
	default:
		return "", fmt.Errorf("fetch: unsupported scheme %q in %s", u.Scheme, rawURL)
	}

	return f.fetchRemote(ctx, rawURL)
}

// fetchRemote serves rawURL from the cache or downloads it. Concurrent calls for the same
// URL share one download.
func (f *Fetcher) fetchRemote(ctx context.Context, rawURL string) (string, error) {
	for {
		f.mu.Lock()
		if p, ok := f.index.ResolvePath(rawURL); ok {
			f.mu.Unlock()
			f.log.Debug("cache hit", "url", rawURL, "path", p)
			return p, nil
		}
		if wait, busy := f.inflight[rawURL]; busy {
			f.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return "", fmt.Errorf("fetch: %s: %w", rawURL, ctx.Err())
			}
		}
		done := make(chan struct{})
		f.inflight[rawURL] = done
		f.mu.Unlock()

		start := time.Now()
		p, size, err := f.download(ctx, rawURL)

		f.mu.Lock()
		delete(f.inflight, rawURL)
		close(done)
		f.mu.Unlock()

		if err != nil {
			return "", err
		}
		f.log.Info("downloaded", "url", rawURL, "path", p, "bytes", size, "took", time.Since(start).Round(time.Millisecond))
		return p, nil
	}
}

func (f *Fetcher) download(ctx context.Context, rawURL string) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("fetch: %s: %w", rawURL, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetch: %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, fmt.Errorf("fetch: %s: %s: %w", rawURL, resp.Status, ErrStatus)
	}

	f.mu.Lock()
	name := f.uniqueName(rawURL, FileName(resp))
	f.reserved[name] = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		delete(f.reserved, name)
		f.mu.Unlock()
	}()

	tmp, err := os.CreateTemp(f.dir, ".download-*")
	if err != nil {
		return "", 0, fmt.Errorf("fetch: %s: %w", rawURL, err)
	}
	size, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("fetch: %s: write: %w", rawURL, err)
	}

	dst := filepath.Join(f.dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("fetch: %s: %w", rawURL, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.index.Put(rawURL, name); err != nil {
		return "", 0, err
	}
	return dst, size, nil
}

// uniqueName appends -1, -2, ... before the extension while name belongs to another URL
// or to a download in progress. Callers hold f.mu.
func (f *Fetcher) uniqueName(rawURL, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; ; i++ {
		if !f.reserved[candidate] {
			owner, taken := f.index.Owner(candidate)
			if taken && owner == rawURL {
				return candidate
			}
			if !taken {
				if _, err := os.Stat(filepath.Join(f.dir, candidate)); err != nil {
					return candidate
				}
			}
		}
		candidate = stem + "-" + strconv.Itoa(i) + ext
	}
}

// FileName picks the local file name for a response: the Content-Disposition filename,
// else the last element of the final (post-redirect) URL path. '|' becomes '_'.
func FileName(resp *http.Response) string {
	name := ""
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			name = params["filename"]
		}
	}
	if name == "" && resp.Request != nil && resp.Request.URL != nil {
		name = path.Base(resp.Request.URL.Path)
	}
	return sanitize(name)
}

func sanitize(name string) string {
	name = strings.ReplaceAll(name, "|", "_")
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "" || name == "." || name == "/" || name == ".." || strings.HasPrefix(name, IndexFile) {
		return "download"
	}
	return name
}

func localPath(p string) (string, error) {
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("fetch: local file: %w", err)
	}
	return p, nil
}
