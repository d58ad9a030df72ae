package launcher

// Event is a task lifecycle or log event: a name, the task id and optional
// fields.
type Event struct {
	Name   string
	TaskID string
	Fields map[string]any
}

// Event names.
const (
	EventStatus   = "status"
	EventLog      = "log"
	EventProgress = "progress"
	EventSpawn    = "spawn"
	EventExit     = "exit"
	// EventRejected reports a refused re-entrant launch. It is published even
	// when the in-flight run keeps its status.
	EventRejected = "rejected"
)

// EventPublisher receives events from the supervisor. Implementations should
// be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to EventPublisher.
type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) { f(e) }

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// multiPublisher fans out to several publishers in order.
type multiPublisher []EventPublisher

func (m multiPublisher) Publish(e Event) {
	for _, p := range m {
		p.Publish(e)
	}
}

// Publishers combines publishers, skipping nils.
func Publishers(ps ...EventPublisher) EventPublisher {
	var out multiPublisher
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return noopPublisher{}
	case 1:
		return out[0]
	}
	return out
}
