package launcher

import (
	"os/exec"
	"sync"
	"time"
)

// Task is one launch target. It owns a status cell and a handle to the
// spawned process. Only the Supervisor that created it writes
// its status.
type Task struct {
	id  string
	pub EventPublisher

	mu     sync.Mutex
	status Status
	run    uint64
	cmd    *exec.Cmd
	exited chan struct{}
}

func newTask(id string, pub EventPublisher) *Task {
	return &Task{
		id:     id,
		pub:    pub,
		status: Status{State: StateIdle, Updated: time.Now()},
	}
}

// ID returns the task id, which is the version id it launches.
func (t *Task) ID() string { return t.id }

// Status returns a snapshot of the current status.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// PID returns the pid of the live process, or 0.
func (t *Task) PID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cmd == nil || t.cmd.Process == nil || !t.aliveLocked() {
		return 0
	}
	return t.cmd.Process.Pid
}

// Alive reports whether the task's process has been spawned and not exited.
func (t *Task) Alive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aliveLocked()
}

func (t *Task) aliveLocked() bool {
	if t.cmd == nil || t.exited == nil {
		return false
	}
	select {
	case <-t.exited:
		return false
	default:
		return true
	}
}

// begin starts a new run if the task is idle.
func (t *Task) begin(text string) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.State != StateIdle {
		return 0, false
	}
	t.run++
	t.cmd = nil
	t.exited = nil
	t.setLocked(StateChecking, text)
	return t.run, true
}

// transition moves the task to state `to` if run is still current and guard
// accepts the current state. It reports whether the write happened.
func (t *Task) transition(run uint64, to State, text string, guard func(cur State) bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if run != t.run {
		return false
	}
	if guard != nil && !guard(t.status.State) {
		return false
	}
	t.setLocked(to, text)
	return true
}

// reject marks a refused re-entrant launch. Every rejection is published as
// an EventRejected carrying the state it met. Only a settled run (success or
// error) has its status overwritten; a run still checking or starting keeps
// its cell.
func (t *Task) reject(text string) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pub.Publish(Event{Name: EventRejected, TaskID: t.id, Fields: map[string]any{"state": string(t.status.State), "text": text}})
	switch t.status.State {
	case StateSuccess, StateError:
		t.setLocked(StateError, text)
		return t.run, true
	}
	return t.run, false
}

func (t *Task) attach(run uint64, cmd *exec.Cmd, exited chan struct{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if run != t.run {
		return false
	}
	t.cmd = cmd
	t.exited = exited
	return true
}

func (t *Task) process() (*exec.Cmd, chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cmd, t.exited
}

func (t *Task) setLocked(s State, text string) {
	t.status = Status{State: s, Text: text, Updated: time.Now()}
	t.pub.Publish(Event{Name: EventStatus, TaskID: t.id, Fields: map[string]any{"state": string(s), "text": text}})
}

func isState(states ...State) func(State) bool {
	return func(cur State) bool {
		for _, s := range states {
			if cur == s {
				return true
			}
		}
		return false
	}
}

// resetIfDead moves an errored run back to idle when no process is alive.
func (t *Task) resetIfDead(run uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if run != t.run || t.status.State != StateError || t.aliveLocked() {
		return false
	}
	t.setLocked(StateIdle, "")
	return true
}
