package launcher

import (
	"time"

	"gamelaunch/pkg/types"
)

// Statuses returns a snapshot of every task, sorted by id.
func (s *Supervisor) Statuses() []types.TaskStatus {
	tasks := s.reg.List()
	out := make([]types.TaskStatus, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Report())
	}
	return out
}

// Report summarizes the task for the API.
func (t *Task) Report() types.TaskStatus {
	st := t.Status()
	return types.TaskStatus{
		ID:          t.id,
		State:       string(st.State),
		Text:        st.Text,
		PID:         t.PID(),
		UpdatedUnix: st.Updated.Unix(),
	}
}

// Uptime returns how long the supervisor has existed.
func (s *Supervisor) Uptime() time.Duration { return time.Since(s.started) }
