// Package verify brings the dependency closure of a resolved version (main
// jar, libraries, native bundles, asset index and asset objects) to a
// hash-verified state on disk.
//
// Phases run strictly in order: main artifact, libraries with natives, asset
// index, asset objects. Work inside a phase fans out and the phase ends with
// a full join; the first fatal error cancels the remaining siblings.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"gamelaunch/internal/fetch"
	"gamelaunch/internal/rules"
	"gamelaunch/pkg/types"
)

// Defaults applied when Config fields are unset.
const (
	DefaultAssetHost   = "https://resources.download.minecraft.net"
	defaultConcurrency = 16
)

// Phase names reported to progress callbacks.
const (
	PhaseClient     = "client"
	PhaseLibraries  = "libraries"
	PhaseAssetIndex = "asset_index"
	PhaseAssets     = "assets"
)

// ProgressFunc receives per-phase completion counts. It may be called from
// several goroutines.
type ProgressFunc func(phase string, done, total int)

// Config tunes a Verifier.
type Config struct {
	Fetcher     *fetch.Fetcher
	AssetHost   string
	Concurrency int
	Logger      *zerolog.Logger
}

// Verifier runs the dependency phases.
type Verifier struct {
	fetcher     *fetch.Fetcher
	assetHost   string
	concurrency int
	log         zerolog.Logger
}

// Layout carries the directories and platform a verification targets.
type Layout struct {
	LibrariesDir string
	AssetsDir    string
	NativesDir   string
	MainJar      string
	Platform     rules.Platform
}

// New builds a Verifier, applying defaults.
func New(cfg Config) *Verifier {
	v := &Verifier{
		fetcher:     cfg.Fetcher,
		assetHost:   strings.TrimRight(cfg.AssetHost, "/"),
		concurrency: cfg.Concurrency,
		log:         zerolog.Nop(),
	}
	if cfg.Logger != nil {
		v.log = *cfg.Logger
	}
	if v.fetcher == nil {
		v.fetcher = fetch.New(fetch.Config{Logger: cfg.Logger})
	}
	if v.assetHost == "" {
		v.assetHost = DefaultAssetHost
	}
	if v.concurrency <= 0 {
		v.concurrency = defaultConcurrency
	}
	return v
}

// AssetObjectPath returns <assets>/objects/<hash[:2]>/<hash>.
func AssetObjectPath(assetsDir, hash string) string {
	return filepath.Join(assetsDir, "objects", shard(hash), hash)
}

// AssetObjectURL returns <host>/<hash[:2]>/<hash>.
func (v *Verifier) AssetObjectURL(hash string) string {
	return v.assetHost + "/" + shard(hash) + "/" + hash
}

// AssetIndexPath returns <assets>/indexes/<id>.json.
func AssetIndexPath(assetsDir, id string) string {
	return filepath.Join(assetsDir, "indexes", id+".json")
}

func shard(hash string) string {
	if len(hash) < 2 {
		return hash
	}
	return hash[:2]
}

// Verify runs every phase for d. progress may be nil.
func (v *Verifier) Verify(ctx context.Context, d *types.VersionDescriptor, l Layout, progress ProgressFunc) error {
	if progress == nil {
		progress = func(string, int, int) {}
	}
	if d.Downloads != nil && d.Downloads.Client != nil {
		c := d.Downloads.Client
		req, err := request(c.URL, l.MainJar, c.SHA1)
		if err != nil {
			return fmt.Errorf("client jar: %w", err)
		}
		if _, err := v.fetcher.Ensure(ctx, req); err != nil {
			return fmt.Errorf("client jar: %w", err)
		}
		progress(PhaseClient, 1, 1)
	}
	if err := v.verifyLibraries(ctx, d.Libraries, l, progress); err != nil {
		return err
	}
	idx, err := v.verifyAssetIndex(ctx, d, l)
	if err != nil {
		return err
	}
	progress(PhaseAssetIndex, 1, 1)
	return v.verifyAssets(ctx, idx, l.AssetsDir, progress)
}

type libJob struct {
	lib    types.Library
	req    fetch.Request
	native bool
}

// request builds a fetch request from a declared url and digest. The digest
// algorithm follows the declared value, sha1 for a bare 40-digit hex.
func request(url, path, digest string) (fetch.Request, error) {
	d, err := fetch.ParseDigest(digest)
	if err != nil {
		return fetch.Request{}, fmt.Errorf("%s: %w", path, err)
	}
	return fetch.Request{URL: url, Path: path, Digest: d}, nil
}

// libraryJobs lists one job per target path. Merged descriptors may repeat a
// library; the first declaration wins.
func (v *Verifier) libraryJobs(libs []types.Library, l Layout) ([]libJob, error) {
	var jobs []libJob
	seen := make(map[string]struct{}, len(libs))
	add := func(lib types.Library, a *types.Artifact, p string, native bool) error {
		path := filepath.Join(l.LibrariesDir, filepath.FromSlash(p))
		if _, ok := seen[path]; ok {
			return nil
		}
		seen[path] = struct{}{}
		req, err := request(a.URL, path, a.SHA1)
		if err != nil {
			return fmt.Errorf("library %s: %w", lib.Name, err)
		}
		jobs = append(jobs, libJob{lib: lib, req: req, native: native})
		return nil
	}
	for _, lib := range libs {
		if !rules.Allowed(lib.Rules, l.Platform) {
			continue
		}
		if a := lib.Artifact(); a != nil {
			if p := lib.ArtifactPath(); p != "" {
				if err := add(lib, a, p, false); err != nil {
					return nil, err
				}
			}
		}
		a, key, ok := NativeArtifact(lib, l.Platform)
		if !ok {
			if key != "" {
				v.log.Warn().Str("library", lib.Name).Str("classifier", key).Msg("native classifier not declared")
			}
			continue
		}
		p := a.Path
		if p == "" {
			p = types.CoordinatePath(lib.Name + ":" + key)
		}
		if err := add(lib, a, p, true); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func (v *Verifier) verifyLibraries(ctx context.Context, libs []types.Library, l Layout, progress ProgressFunc) error {
	jobs, err := v.libraryJobs(libs, l)
	if err != nil {
		return err
	}
	total := len(jobs)
	var done int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if _, err := v.fetcher.Ensure(gctx, job.req); err != nil {
				return fmt.Errorf("library %s: %w", job.lib.Name, err)
			}
			if job.native {
				v.unpackNative(job, l.NativesDir)
			}
			progress(PhaseLibraries, int(atomic.AddInt64(&done, 1)), total)
			return nil
		})
	}
	return g.Wait()
}

// unpackNative logs and swallows extraction failures.
func (v *Verifier) unpackNative(job libJob, nativesDir string) {
	var exclude []string
	if job.lib.Extract != nil {
		exclude = job.lib.Extract.Exclude
	}
	n, err := Unpack(job.req.Path, nativesDir, exclude)
	if err != nil {
		v.log.Error().Err(err).Str("library", job.lib.Name).Msg("native extraction failed")
		return
	}
	v.log.Debug().Str("library", job.lib.Name).Int("files", n).Msg("natives extracted")
}

func (v *Verifier) verifyAssetIndex(ctx context.Context, d *types.VersionDescriptor, l Layout) (*types.AssetIndexDocument, error) {
	id := d.AssetIndexID()
	if id == "" {
		return nil, fmt.Errorf("asset index: no id declared")
	}
	p := AssetIndexPath(l.AssetsDir, id)
	req := fetch.Request{Path: p}
	if ai := d.AssetIndex; ai != nil {
		var err error
		if req, err = request(ai.URL, p, ai.SHA1); err != nil {
			return nil, fmt.Errorf("asset index %s: %w", id, err)
		}
	}
	if _, err := v.fetcher.Ensure(ctx, req); err != nil {
		return nil, fmt.Errorf("asset index %s: %w", id, err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("asset index %s: %w", id, err)
	}
	var doc types.AssetIndexDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("asset index %s: parse: %w", id, err)
	}
	return &doc, nil
}

func (v *Verifier) verifyAssets(ctx context.Context, idx *types.AssetIndexDocument, assetsDir string, progress ProgressFunc) error {
	// Several names may share one hash; fetch each object once.
	seen := make(map[string]struct{}, len(idx.Objects))
	hashes := make([]string, 0, len(idx.Objects))
	for _, obj := range idx.Objects {
		if obj.Hash == "" {
			continue
		}
		if _, ok := seen[obj.Hash]; ok {
			continue
		}
		seen[obj.Hash] = struct{}{}
		hashes = append(hashes, obj.Hash)
	}
	total := len(hashes)
	var done int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)
	for _, h := range hashes {
		h := h
		g.Go(func() error {
			req, err := request(v.AssetObjectURL(h), AssetObjectPath(assetsDir, h), h)
			if err != nil {
				return fmt.Errorf("asset %s: %w", h, err)
			}
			if _, err := v.fetcher.Ensure(gctx, req); err != nil {
				return fmt.Errorf("asset %s: %w", h, err)
			}
			progress(PhaseAssets, int(atomic.AddInt64(&done, 1)), total)
			return nil
		})
	}
	return g.Wait()
}
