package launcher

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type scanState int32

const (
	scanning scanState = iota
	confirmed
)

// session observes one spawned process: its merged output, the success
// timeout and its exit.
type session struct {
	s      *Supervisor
	t      *Task
	run    uint64
	exited chan struct{}

	state       atomic.Int32
	confirmedCh chan struct{}
	confirmOnce sync.Once
}

func (s *Supervisor) spawn(t *Task, run uint64, lc LaunchContext, argv []string) error {
	cmd := exec.Command(s.cfg.JavaPath, argv...)
	cmd.Dir = lc.GameDir()
	cmd.Env = append(os.Environ(), s.cfg.Env...)
	setProcAttr(cmd)

	pr, pw, err := os.Pipe()
	if err != nil {
		return spawnError{err: err}
	}
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return spawnError{err: err}
	}
	_ = pw.Close()

	sess := &session{s: s, t: t, run: run, exited: make(chan struct{}), confirmedCh: make(chan struct{})}
	t.attach(run, cmd, sess.exited)
	s.log.Info().Str("version", t.id).Int("pid", cmd.Process.Pid).Str("java", s.cfg.JavaPath).Msg("game process started")
	s.cfg.Publisher.Publish(Event{Name: EventSpawn, TaskID: t.id, Fields: map[string]any{"pid": cmd.Process.Pid}})

	go sess.waitExit(cmd)
	go sess.scan(pr)
	go sess.watchTimeout()
	return nil
}

// scan forwards every output line and looks for success markers.
func (ss *session) scan(r io.ReadCloser) {
	defer r.Close()
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			ss.handleLine(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				ss.s.log.Debug().Err(err).Str("version", ss.t.id).Msg("output read ended")
			}
			return
		}
	}
}

func (ss *session) handleLine(line string) {
	ss.s.cfg.Publisher.Publish(Event{Name: EventLog, TaskID: ss.t.id, Fields: map[string]any{"line": line}})
	ss.s.log.Debug().Str("version", ss.t.id).Msg(line)
	if scanState(ss.state.Load()) != scanning {
		return
	}
	for _, m := range ss.s.cfg.SuccessMarkers {
		if strings.Contains(line, m) {
			ss.confirm("Game started")
			return
		}
	}
}

// confirm declares success once per session and schedules the forced idle.
func (ss *session) confirm(text string) {
	if !ss.state.CompareAndSwap(int32(scanning), int32(confirmed)) {
		return
	}
	ss.confirmOnce.Do(func() { close(ss.confirmedCh) })
	if !ss.t.transition(ss.run, StateSuccess, text, isState(StateStarting)) {
		return
	}
	launchesTotal.WithLabelValues("success").Inc()
	run, t := ss.run, ss.t
	time.AfterFunc(ss.s.cfg.SuccessIdleDelay, func() {
		t.transition(run, StateIdle, "", isState(StateSuccess))
	})
}

// watchTimeout forces success when no marker shows up in time and the
// process is still running.
func (ss *session) watchTimeout() {
	timer := time.NewTimer(ss.s.cfg.SuccessTimeout)
	defer timer.Stop()
	select {
	case <-ss.exited:
	case <-ss.confirmedCh:
	case <-timer.C:
		if ss.t.Alive() {
			ss.s.log.Info().Str("version", ss.t.id).Dur("after", ss.s.cfg.SuccessTimeout).Msg("no startup marker seen; assuming started")
			ss.confirm("Game started (no startup marker seen)")
		}
	}
}

// waitExit classifies the process exit. An exit during starting with a
// nonzero code is an error; anything else returns the run to idle, including
// an error left by a rejected launch while the process was alive.
func (ss *session) waitExit(cmd *exec.Cmd) {
	_ = cmd.Wait()
	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	close(ss.exited)
	ss.s.log.Info().Str("version", ss.t.id).Int("code", code).Msg("game process exited")
	ss.s.cfg.Publisher.Publish(Event{Name: EventExit, TaskID: ss.t.id, Fields: map[string]any{"code": code}})

	if code != 0 && ss.t.transition(ss.run, StateError, fmt.Sprintf("game exited during startup with code %d", code), isState(StateStarting)) {
		launchesTotal.WithLabelValues("error").Inc()
		ss.s.scheduleReset(ss.t, ss.run)
		return
	}
	ss.t.transition(ss.run, StateIdle, fmt.Sprintf("exited with code %d", code), isState(StateStarting, StateSuccess, StateError))
}
