package launcher

import "sync"

// Hub fans events out to per-task subscribers. Slow subscribers lose events
// rather than blocking the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[chan Event]struct{}
	bufLen int
}

// NewHub builds a Hub whose subscriber channels buffer bufLen events.
func NewHub(bufLen int) *Hub {
	if bufLen <= 0 {
		bufLen = 256
	}
	return &Hub{subs: make(map[string]map[chan Event]struct{}), bufLen: bufLen}
}

// Subscribe registers for events of taskID ("" for all tasks). The returned
// cancel func must be called to release the subscription.
func (h *Hub) Subscribe(taskID string) (<-chan Event, func()) {
	ch := make(chan Event, h.bufLen)
	h.mu.Lock()
	if h.subs[taskID] == nil {
		h.subs[taskID] = make(map[chan Event]struct{})
	}
	h.subs[taskID][ch] = struct{}{}
	h.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[taskID], ch)
			if len(h.subs[taskID]) == 0 {
				delete(h.subs, taskID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, key := range []string{e.TaskID, ""} {
		for ch := range h.subs[key] {
			select {
			case ch <- e:
			default:
			}
		}
		if e.TaskID == "" {
			break
		}
	}
}
