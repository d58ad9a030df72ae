package launcher

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"gamelaunch/internal/common/fsutil"
	"gamelaunch/internal/manifest"
	"gamelaunch/internal/rules"
	"gamelaunch/internal/verify"
)

// Supervisor drives launch tasks through resolve, verify, build and spawn,
// then classifies the process lifecycle from its output and exit.
type Supervisor struct {
	cfg     Config
	reg     *Registry
	log     zerolog.Logger
	started time.Time
}

// New builds a Supervisor over reg (a fresh Registry when nil), applying
// Config defaults.
func New(reg *Registry, cfg Config) *Supervisor {
	if reg == nil {
		reg = NewRegistry()
	}
	s := &Supervisor{cfg: cfg.withDefaults(), reg: reg, log: zerolog.Nop(), started: time.Now()}
	if cfg.Logger != nil {
		s.log = *cfg.Logger
	}
	return s
}

// Config returns the effective configuration, defaults applied.
func (s *Supervisor) Config() Config { return s.cfg }

// Registry returns the registry the supervisor writes to.
func (s *Supervisor) Registry() *Registry { return s.reg }

// Task returns the task for id, creating an idle one if absent.
func (s *Supervisor) Task(id string) *Task { return s.reg.getOrCreate(id, s.cfg.Publisher) }

// Launch starts a launch of lc.VersionID. The task moves to checking before
// Launch returns; the rest of the pipeline runs in the background under ctx.
// A task that is not idle is rejected with an error matching IsAlreadyRunning.
func (s *Supervisor) Launch(ctx context.Context, lc LaunchContext) (*Task, error) {
	if lc.VersionID == "" {
		return nil, fmt.Errorf("launch: version id is required")
	}
	if lc.Platform.OS == "" {
		lc.Platform = rules.Current()
	}
	if lc.Root == "" {
		return nil, fmt.Errorf("launch: root directory is required")
	}
	if lc.PlayerName == "" && s.cfg.Credentials != nil {
		id, err := s.cfg.Credentials.Identity(ctx)
		if err != nil {
			return nil, fmt.Errorf("launch: %w", err)
		}
		lc = WithIdentity(lc, id)
	}
	t := s.Task(lc.VersionID)
	run, ok := t.begin("Checking " + lc.VersionID)
	if !ok {
		launchesTotal.WithLabelValues("rejected").Inc()
		if prev, marked := t.reject("launch already in progress"); marked {
			s.scheduleReset(t, prev)
		}
		s.log.Warn().Str("version", lc.VersionID).Msg("launch rejected: task is not idle")
		return t, alreadyRunningError{id: lc.VersionID}
	}
	s.log.Info().Str("version", lc.VersionID).Str("root", lc.Root).Msg("launch requested")
	go s.run(ctx, t, run, lc)
	return t, nil
}

func (s *Supervisor) run(ctx context.Context, t *Task, run uint64, lc LaunchContext) {
	checkStart := time.Now()
	res, err := manifest.Resolve(lc.VersionsDir(), lc.VersionID)
	if err != nil {
		s.fail(t, run, err)
		return
	}
	layout := verify.Layout{
		LibrariesDir: lc.LibrariesDir(),
		AssetsDir:    lc.AssetsDir(),
		NativesDir:   lc.NativesDir(),
		MainJar:      res.MainJar,
		Platform:     lc.Platform,
	}
	progress := func(phase string, done, total int) {
		s.cfg.Publisher.Publish(Event{Name: EventProgress, TaskID: t.id, Fields: map[string]any{
			"phase": phase, "done": done, "total": total,
		}})
	}
	if err := s.cfg.Verifier.Verify(ctx, res.Descriptor, layout, progress); err != nil {
		s.fail(t, run, err)
		return
	}
	checkDuration.Observe(time.Since(checkStart).Seconds())

	cmd, err := s.cfg.Builder.Build(res.Descriptor, res.MainJar, lc)
	if err != nil {
		s.fail(t, run, err)
		return
	}
	if err := fsutil.EnsureDir(lc.GameDir()); err != nil {
		s.fail(t, run, err)
		return
	}
	if !t.transition(run, StateStarting, "Starting "+lc.VersionID, isState(StateChecking)) {
		return
	}
	if err := s.spawn(t, run, lc, cmd.Argv()); err != nil {
		s.fail(t, run, err)
	}
}

// fail records err as the run's error and schedules a non-forced reset.
func (s *Supervisor) fail(t *Task, run uint64, err error) {
	s.log.Error().Err(err).Str("version", t.id).Msg("launch failed")
	if t.transition(run, StateError, err.Error(), isState(StateChecking, StateStarting)) {
		outcome := "error"
		if IsSpawnFailure(err) {
			outcome = "spawn_failed"
		}
		launchesTotal.WithLabelValues(outcome).Inc()
		s.scheduleReset(t, run)
	}
}

// scheduleReset returns the run to idle after ResetDelay unless its process
// is alive or the status has moved on.
func (s *Supervisor) scheduleReset(t *Task, run uint64) {
	time.AfterFunc(s.cfg.ResetDelay, func() {
		t.resetIfDead(run)
	})
}

// Stop requests termination of the task's process. It never changes status;
// the exit observer classifies the exit. Stop waits up to StopGrace before
// killing the process. A task without a live process is a no-op.
func (s *Supervisor) Stop(id string) error {
	t, ok := s.reg.Get(id)
	if !ok {
		return ErrTaskNotFound(id)
	}
	cmd, exited := t.process()
	if cmd == nil || cmd.Process == nil || exited == nil {
		return nil
	}
	select {
	case <-exited:
		return nil
	default:
	}
	if err := terminate(cmd.Process); err != nil {
		s.log.Debug().Err(err).Str("version", id).Msg("terminate signal failed")
	}
	select {
	case <-exited:
	case <-time.After(s.cfg.StopGrace):
		s.log.Warn().Str("version", id).Dur("grace", s.cfg.StopGrace).Msg("process ignored termination; killing")
		_ = cmd.Process.Kill()
		<-exited
	}
	return nil
}
