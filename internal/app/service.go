// Package app wires configuration, the dependency pipeline and the launch
// supervisor into the service used by the CLI and the HTTP API.
package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gamelaunch/internal/args"
	"gamelaunch/internal/config"
	"gamelaunch/internal/fetch"
	"gamelaunch/internal/launcher"
	"gamelaunch/internal/manifest"
	"gamelaunch/internal/registry"
	"gamelaunch/internal/verify"
	"gamelaunch/pkg/types"
)

// UserAgent is sent with every download.
const UserAgent = "gamelaunch/1.0"

// Service is the launcher facade. Construct with New.
type Service struct {
	cfg      config.Config
	log      zerolog.Logger
	sup      *launcher.Supervisor
	hub      *launcher.Hub
	verifier *verify.Verifier
	builder  *args.Builder
	scanner  registry.Scanner
	creds    launcher.CredentialProvider
}

// Options are optional collaborators; zero values select defaults.
type Options struct {
	Logger      *zerolog.Logger
	HTTPClient  *http.Client
	Credentials launcher.CredentialProvider
	Scanner     registry.Scanner
	// Publisher receives launcher events in addition to the service's hub.
	Publisher launcher.EventPublisher
}

// New builds a Service from cfg, which must already have defaults applied.
func New(cfg config.Config, opts Options) *Service {
	s := &Service{cfg: cfg, log: zerolog.Nop(), hub: launcher.NewHub(0), scanner: opts.Scanner, creds: opts.Credentials}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	if s.scanner == nil {
		s.scanner = registry.NewDescriptorScanner()
	}
	if s.creds == nil {
		s.creds = defaultCredentials(cfg)
	}
	fetcher := fetch.New(fetch.Config{Client: opts.HTTPClient, UserAgent: UserAgent, Logger: opts.Logger})
	s.verifier = verify.New(verify.Config{
		Fetcher:     fetcher,
		AssetHost:   cfg.AssetHost,
		Concurrency: cfg.Concurrency,
		Logger:      opts.Logger,
	})
	s.builder = args.NewBuilder(opts.Logger)
	s.sup = launcher.New(launcher.NewRegistry(), launcher.Config{
		JavaPath:         cfg.JavaPath,
		Verifier:         s.verifier,
		Builder:          s.builder,
		Publisher:        launcher.Publishers(s.hub, opts.Publisher),
		Logger:           opts.Logger,
		Credentials:      s.creds,
		SuccessMarkers:   cfg.SuccessMarkers,
		SuccessTimeout:   cfg.SuccessTimeout.Std(),
		SuccessIdleDelay: cfg.SuccessIdleDelay.Std(),
		ResetDelay:       cfg.ResetDelay.Std(),
		StopGrace:        cfg.StopGrace.Std(),
	})
	return s
}

// defaultCredentials uses the configured token when present, else an offline
// identity for the configured player.
func defaultCredentials(cfg config.Config) launcher.CredentialProvider {
	if cfg.AccessToken != "" && cfg.PlayerUUID != "" {
		return launcher.StaticCredentials{
			Name:        cfg.PlayerName,
			UUID:        cfg.PlayerUUID,
			AccessToken: cfg.AccessToken,
			UserType:    cfg.UserType,
		}
	}
	return launcher.OfflineCredentials{Name: cfg.PlayerName}
}

// Supervisor exposes the underlying supervisor.
func (s *Service) Supervisor() *launcher.Supervisor { return s.sup }

// Config returns the effective configuration.
func (s *Service) Config() config.Config { return s.cfg }

// Context builds the launch context for versionID with credentials applied.
// player, when set, overrides the configured name with an offline identity.
func (s *Service) Context(ctx context.Context, versionID, player string, features map[string]bool) (launcher.LaunchContext, error) {
	lc := s.cfg.LaunchContext(versionID)
	for k, v := range features {
		lc.Features[k] = v
	}
	var creds launcher.CredentialProvider = s.creds
	if strings.TrimSpace(player) != "" {
		creds = launcher.OfflineCredentials{Name: player}
	}
	id, err := creds.Identity(ctx)
	if err != nil {
		return lc, err
	}
	return launcher.WithIdentity(lc, id), nil
}

// Versions lists installed versions.
func (s *Service) Versions() ([]types.InstalledVersion, error) {
	return s.scanner.Scan(filepath.Join(s.cfg.RootDir, "versions"))
}

// Launch starts a launch for req and returns the task snapshot.
func (s *Service) Launch(ctx context.Context, req types.LaunchRequest) (types.TaskStatus, error) {
	if strings.TrimSpace(req.Version) == "" {
		return types.TaskStatus{}, fmt.Errorf("version is required")
	}
	lc, err := s.Context(ctx, req.Version, req.Player, req.Features)
	if err != nil {
		return types.TaskStatus{}, err
	}
	t, err := s.sup.Launch(ctx, lc)
	if t == nil {
		return types.TaskStatus{}, err
	}
	return t.Report(), err
}

// Stop terminates the task's process.
func (s *Service) Stop(id string) error { return s.sup.Stop(id) }

// Status reports every task.
func (s *Service) Status() types.StatusResponse {
	return types.StatusResponse{
		Tasks:          s.sup.Statuses(),
		UptimeSeconds:  int64(s.sup.Uptime() / time.Second),
		ServerTimeUnix: time.Now().Unix(),
	}
}

// Subscribe streams launcher events for taskID ("" for all).
func (s *Service) Subscribe(taskID string) (<-chan launcher.Event, func()) {
	return s.hub.Subscribe(taskID)
}

// Ready reports whether the java executable is available.
func (s *Service) Ready() bool { return s.sup.SanityCheck().JavaFound }

// Verify resolves versionID and brings its dependencies to a verified state
// without launching.
func (s *Service) Verify(ctx context.Context, versionID string, progress verify.ProgressFunc) error {
	lc := s.cfg.LaunchContext(versionID)
	res, err := manifest.Resolve(lc.VersionsDir(), versionID)
	if err != nil {
		return err
	}
	return s.verifier.Verify(ctx, res.Descriptor, verify.Layout{
		LibrariesDir: lc.LibrariesDir(),
		AssetsDir:    lc.AssetsDir(),
		NativesDir:   lc.NativesDir(),
		MainJar:      res.MainJar,
		Platform:     lc.Platform,
	}, progress)
}

// Command builds the argument vector for versionID without verifying or
// launching. Dependencies not yet on disk are warned about, not fetched.
func (s *Service) Command(ctx context.Context, versionID, player string) (args.Command, error) {
	lc, err := s.Context(ctx, versionID, player, nil)
	if err != nil {
		return args.Command{}, err
	}
	res, err := manifest.Resolve(lc.VersionsDir(), versionID)
	if err != nil {
		return args.Command{}, err
	}
	return s.builder.Build(res.Descriptor, res.MainJar, lc)
}
