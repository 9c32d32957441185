package netevents

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
)

// Redirect is one hop recorded in a RequestLog.
type Redirect struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorRecord is one network error recorded in a RequestLog.
type ErrorRecord struct {
	Code      domain.NetErrorCode `json:"code"`
	Timestamp time.Time           `json:"timestamp"`
}

// RequestLog is the diagnostic trail of a single check.
type RequestLog struct {
	StartTime  time.Time     `json:"startTime"`
	EndTime    time.Time     `json:"endTime,omitempty"`
	Redirects  []Redirect    `json:"redirects"`
	Errors     []ErrorRecord `json:"errors"`
	StatusCode int           `json:"statusCode,omitempty"`
	FinalURL   string        `json:"finalUrl"`
}

// Correlator follows the lifecycle events of one checked URL and turns them
// into classifier signals.
type Correlator struct {
	url      string
	variants []string
	onSignal func(domain.Signal)

	mu          sync.Mutex
	finalURL    string
	hasResponse bool
	log         RequestLog

	hub        *Hub
	ids        map[Kind]ListenerID
	detachOnce sync.Once
}

// NewCorrelator creates a correlator for rawURL. onSignal is called for every
// decisive event; the caller decides which one wins.
func NewCorrelator(rawURL string, onSignal func(domain.Signal)) *Correlator {
	return &Correlator{
		url:      rawURL,
		variants: domain.URLVariants(rawURL),
		onSignal: onSignal,
		finalURL: rawURL,
		log: RequestLog{
			StartTime: time.Now(),
			Redirects: []Redirect{},
			Errors:    []ErrorRecord{},
			FinalURL:  rawURL,
		},
	}
}

// Attach subscribes the four lifecycle listeners on h.
func (c *Correlator) Attach(h *Hub) {
	filter := Filter{
		URLs:   c.variants,
		Types:  []ResourceType{MainFrame, XMLHTTPRequest},
		Follow: true,
	}

	c.hub = h
	c.ids = map[Kind]ListenerID{
		BeforeRedirect:  h.AddListener(BeforeRedirect, filter, c.onRedirect),
		ResponseStarted: h.AddListener(ResponseStarted, filter, c.onStatus),
		Completed:       h.AddListener(Completed, filter, c.onStatus),
		ErrorOccurred:   h.AddListener(ErrorOccurred, filter, c.onError),
	}
}

// Detach removes the listeners registered by Attach. Safe to call repeatedly.
func (c *Correlator) Detach() {
	c.detachOnce.Do(func() {
		if c.hub != nil {
			for kind, id := range c.ids {
				c.hub.RemoveListener(kind, id)
			}
		}
		c.mu.Lock()
		c.log.EndTime = time.Now()
		c.mu.Unlock()
	})
}

// URL returns the URL the correlator was created for.
func (c *Correlator) URL() string { return c.url }

// FinalURL returns the last URL seen after redirects.
func (c *Correlator) FinalURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finalURL
}

// HasResponse reports whether any event fired or a response was recorded.
func (c *Correlator) HasResponse() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasResponse
}

// MarkResponse records that the probe itself got an answer.
func (c *Correlator) MarkResponse() {
	c.mu.Lock()
	c.hasResponse = true
	c.mu.Unlock()
}

// Log returns a copy of the request log.
func (c *Correlator) Log() RequestLog {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.log
	out.Redirects = append([]Redirect{}, c.log.Redirects...)
	out.Errors = append([]ErrorRecord{}, c.log.Errors...)
	return out
}

func (c *Correlator) onRedirect(e Event) {
	c.mu.Lock()
	c.hasResponse = true
	c.log.Redirects = append(c.log.Redirects, Redirect{From: e.URL, To: e.RedirectURL, Timestamp: e.Timestamp})
	if e.RedirectURL != "" {
		c.finalURL = e.RedirectURL
		c.log.FinalURL = e.RedirectURL
	}
	c.mu.Unlock()
}

func (c *Correlator) onStatus(e Event) {
	c.mu.Lock()
	c.hasResponse = true
	c.log.StatusCode = e.StatusCode
	final := c.finalURL
	c.mu.Unlock()

	c.onSignal(domain.StatusSignal{Code: e.StatusCode, Requested: c.url, Final: final})
}

func (c *Correlator) onError(e Event) {
	c.mu.Lock()
	c.hasResponse = true
	c.log.Errors = append(c.log.Errors, ErrorRecord{Code: e.Error, Timestamp: e.Timestamp})
	c.mu.Unlock()

	c.onSignal(domain.NetworkErrorSignal{Code: e.Error, URL: c.url})
}
