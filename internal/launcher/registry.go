package launcher

import (
	"sort"
	"sync"
)

// Registry holds tasks keyed by version id. Callers own it and inject it into
// a Supervisor; there is no process-wide instance.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// Get returns the task for id, if any.
func (r *Registry) Get(id string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	return t, ok
}

func (r *Registry) getOrCreate(id string, pub EventPublisher) *Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; ok {
		return t
	}
	t := newTask(id, pub)
	r.tasks[id] = t
	return t
}

// List returns all tasks sorted by id.
func (r *Registry) List() []*Task {
	r.mu.Lock()
	out := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
