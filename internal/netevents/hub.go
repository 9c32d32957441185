package netevents

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

// Kind identifies a stage of a network request lifecycle.
type Kind int

const (
	ResponseStarted Kind = iota
	BeforeRedirect
	Completed
	ErrorOccurred
)

func (k Kind) String() string {
	switch k {
	case ResponseStarted:
		return "response_started"
	case BeforeRedirect:
		return "before_redirect"
	case Completed:
		return "completed"
	case ErrorOccurred:
		return "error_occurred"
	default:
		return "unknown"
	}
}

// ResourceType is the kind of resource a request loads.
type ResourceType string

const (
	MainFrame      ResourceType = "main_frame"
	XMLHTTPRequest ResourceType = "xmlhttprequest"
)

// Event is one lifecycle notification for a request.
type Event struct {
	Kind        Kind
	RequestID   string
	URL         string
	RedirectURL string // BeforeRedirect only
	StatusCode  int
	Error       domain.NetErrorCode // ErrorOccurred only
	Type        ResourceType
	Timestamp   time.Time
}

// Filter selects the events a listener receives.
// Empty URLs or Types match everything.
type Filter struct {
	URLs  []string
	Types []ResourceType

	// Follow keeps delivering events of a request whose first URL matched,
	// after a redirect moved it to a URL outside URLs.
	Follow bool
}

func (f Filter) matches(e Event, origin string) bool {
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if t == e.Type {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.URLs) == 0 {
		return true
	}
	for _, u := range f.URLs {
		if domain.SameURL(u, e.URL) {
			return true
		}
		if f.Follow && origin != "" && domain.SameURL(u, origin) {
			return true
		}
	}
	return false
}

// Listener receives matching events. It is called without any hub lock held.
type Listener func(Event)

// ListenerID identifies a registration for RemoveListener.
type ListenerID uint64

type registration struct {
	id     ListenerID
	filter Filter
	fn     Listener
}

// Hub is the process-wide network event bus shared by probes and checks.
type Hub struct {
	mu        sync.Mutex
	nextID    ListenerID
	listeners map[Kind][]registration

	// origins maps a live request id to the first URL it was seen with.
	origins map[string]string
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		listeners: make(map[Kind][]registration),
		origins:   make(map[string]string),
	}
}

// AddListener registers fn for events of kind k that pass filter.
func (h *Hub) AddListener(k Kind, filter Filter, fn Listener) ListenerID {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.listeners[k] = append(h.listeners[k], registration{id: id, filter: filter, fn: fn})
	return id
}

// RemoveListener unregisters a listener. Unknown ids are ignored.
func (h *Hub) RemoveListener(k Kind, id ListenerID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	regs := h.listeners[k]
	for i, r := range regs {
		if r.id == id {
			out := make([]registration, 0, len(regs)-1)
			out = append(out, regs[:i]...)
			h.listeners[k] = append(out, regs[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of registered listeners across all kinds.
func (h *Hub) ListenerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, regs := range h.listeners {
		n += len(regs)
	}
	return n
}

// Publish delivers e to every matching listener registered at call time.
func (h *Hub) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	h.mu.Lock()
	origin := e.URL
	if e.RequestID != "" {
		if o, ok := h.origins[e.RequestID]; ok {
			origin = o
		} else {
			h.origins[e.RequestID] = e.URL
		}
		if e.Kind == Completed || e.Kind == ErrorOccurred {
			delete(h.origins, e.RequestID)
		}
	}
	regs := h.listeners[e.Kind]
	h.mu.Unlock()

	// regs is never mutated in place, so it is safe to range without the lock.
	for _, r := range regs {
		if r.filter.matches(e, origin) {
			r.fn(e)
		}
	}
}
