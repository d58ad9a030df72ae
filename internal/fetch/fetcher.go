// Package fetch implements the verify-or-download primitive shared by every
// dependency phase: a file whose digest already matches is left alone,
// anything else is downloaded again and re-verified.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when Config fields are unset.
const (
	defaultDialTimeout   = 15 * time.Second
	defaultHeaderTimeout = 30 * time.Second
	defaultUserAgent     = "gamelaunch"
)

// Config tunes a Fetcher.
type Config struct {
	// Client overrides the HTTP client. When nil a client with transport-level
	// connect and response-header timeouts is built.
	Client    *http.Client
	UserAgent string
	Logger    *zerolog.Logger
}

// Fetcher verifies and downloads files.
type Fetcher struct {
	client    *http.Client
	userAgent string
	log       zerolog.Logger
}

// Request describes one target file.
type Request struct {
	URL    string
	Path   string
	Digest Digest
}

// Result reports what Ensure did.
type Result struct {
	Downloaded bool
	Bytes      int64
}

// New builds a Fetcher from cfg.
func New(cfg Config) *Fetcher {
	f := &Fetcher{client: cfg.Client, userAgent: cfg.UserAgent, log: zerolog.Nop()}
	if cfg.Logger != nil {
		f.log = *cfg.Logger
	}
	if f.client == nil {
		// No overall Timeout: large artifacts are bounded by dial and header
		// timeouts only; callers cancel through the request context.
		f.client = &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: defaultDialTimeout}).DialContext,
			TLSHandshakeTimeout:   defaultDialTimeout,
			ResponseHeaderTimeout: defaultHeaderTimeout,
			MaxIdleConnsPerHost:   16,
		}}
	}
	if f.userAgent == "" {
		f.userAgent = defaultUserAgent
	}
	return f
}

// Ensure makes req.Path hold content matching req.Digest. It is a no-op when
// the file already matches. Downloads go to a unique sibling temp file that is
// hashed before it is renamed over the target, so a failed or mismatching
// download never leaves a partial file at req.Path and concurrent Ensure calls
// for one path cannot remove each other's result.
func (f *Fetcher) Ensure(ctx context.Context, req Request) (Result, error) {
	if req.Digest.Matches(req.Path) {
		fetchTotal.WithLabelValues("hit").Inc()
		return Result{}, nil
	}
	if req.URL == "" {
		fetchTotal.WithLabelValues("failed").Inc()
		return Result{}, &DownloadError{Path: req.Path, Err: errors.New("no download url")}
	}
	f.log.Debug().Str("url", req.URL).Str("path", req.Path).Str("digest", req.Digest.String()).Msg("fetch start")
	n, err := f.download(ctx, req)
	if err != nil {
		f.removeStale(req)
		var ie *IntegrityError
		if errors.As(err, &ie) {
			fetchTotal.WithLabelValues("mismatch").Inc()
			return Result{}, ie
		}
		fetchTotal.WithLabelValues("failed").Inc()
		f.log.Warn().Err(err).Str("url", req.URL).Msg("fetch failed")
		return Result{}, &DownloadError{URL: req.URL, Path: req.Path, Err: err}
	}
	fetchBytes.Add(float64(n))
	fetchTotal.WithLabelValues("downloaded").Inc()
	f.log.Debug().Str("path", req.Path).Int64("bytes", n).Msg("fetch done")
	return Result{Downloaded: true, Bytes: n}, nil
}

// removeStale deletes a non-matching file left at the target. A file that
// matches was placed by a concurrent Ensure and is kept.
func (f *Fetcher) removeStale(req Request) {
	if !req.Digest.Matches(req.Path) {
		_ = os.Remove(req.Path)
	}
}

// download streams the body to a unique temp file next to the target,
// checks its digest and renames it over the target.
func (f *Fetcher) download(ctx context.Context, req Request) (int64, error) {
	dir := filepath.Dir(req.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return 0, err
	}
	hreq.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(hreq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("http status %s", resp.Status)
	}
	out, err := os.CreateTemp(dir, filepath.Base(req.Path)+".*.part")
	if err != nil {
		return 0, err
	}
	tmp := out.Name()
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return n, err
	}
	if !req.Digest.IsZero() {
		got, err := HashFile(tmp, req.Digest.algo())
		if err != nil || got != req.Digest.Hex {
			_ = os.Remove(tmp)
			if err != nil {
				got = err.Error()
			}
			return n, &IntegrityError{Path: req.Path, Want: req.Digest.String(), Got: got}
		}
	}
	if err := os.Rename(tmp, req.Path); err != nil {
		_ = os.Remove(tmp)
		return n, err
	}
	return n, nil
}
