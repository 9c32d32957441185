package checker

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/deadmark/internal/domain"
	"github.com/MrSnakeDoc/deadmark/internal/netevents"
	"github.com/MrSnakeDoc/deadmark/internal/utils"
)

const (
	DefaultMaxRedirects = 10
	DefaultDialTimeout  = 10 * time.Second

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.6778.256 Safari/537.36"
)

// probeHeaders mimic a top-level navigation from a desktop browser.
// Accept-Encoding is left to the transport so bodies stay transparent.
var probeHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"Accept-Language":           "en-US,en;q=0.9",
	"Cache-Control":             "no-cache",
	"Pragma":                    "no-cache",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"DNT":                       "1",
}

// ProberOptions configures an HTTPProber.
type ProberOptions struct {
	Hub          *netevents.Hub
	MaxRedirects int
	DialTimeout  time.Duration
	UserAgent    string

	// Transport replaces the default transport, mostly for tests.
	Transport http.RoundTripper
}

// HTTPProber issues a single GET per probe and reports its lifecycle on the hub.
type HTTPProber struct {
	hub          *netevents.Hub
	client       *http.Client
	maxRedirects int
	userAgent    string
}

type probeState struct {
	id           string
	errPublished atomic.Bool
}

type probeStateKey struct{}

func stateFrom(ctx context.Context) *probeState {
	st, _ := ctx.Value(probeStateKey{}).(*probeState)
	return st
}

// NewHTTPProber creates a prober without cookie jar or request timeout;
// the checker owns the deadline.
func NewHTTPProber(opts ProberOptions) *HTTPProber {
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	base := opts.Transport
	if base == nil {
		base = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   opts.DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   opts.DialTimeout,
			ExpectContinueTimeout: time.Second,
		}
	}

	p := &HTTPProber{
		hub:          opts.Hub,
		maxRedirects: opts.MaxRedirects,
		userAgent:    opts.UserAgent,
	}
	p.client = &http.Client{
		Transport:     &eventTransport{base: base, hub: opts.Hub},
		CheckRedirect: p.checkRedirect,
	}
	return p
}

// Probe performs the request. Transport failures are reported on the hub
// and returned as the opaque fetch failure.
func (p *HTTPProber) Probe(ctx context.Context, rawURL string) error {
	st := &probeState{id: uuid.NewString()}
	ctx = context.WithValue(ctx, probeStateKey{}, st)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &FetchError{Name: domain.OpaqueFetchName, Message: domain.OpaqueFetchMessage, Err: err}
	}
	req.Header.Set("User-Agent", p.userAgent)
	for k, v := range probeHeaders {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if !st.errPublished.Load() {
			failedURL := rawURL
			var uerr *url.Error
			if errors.As(err, &uerr) && uerr.URL != "" {
				failedURL = uerr.URL
			}
			p.publish(netevents.Event{
				Kind:      netevents.ErrorOccurred,
				RequestID: st.id,
				URL:       failedURL,
				Error:     netErrorCode(err),
				Type:      netevents.XMLHTTPRequest,
			})
		}
		return &FetchError{Name: domain.OpaqueFetchName, Message: domain.OpaqueFetchMessage, Err: err}
	}

	utils.DrainAndClose(resp.Body, 4<<10)
	p.publish(netevents.Event{
		Kind:       netevents.Completed,
		RequestID:  st.id,
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Type:       netevents.XMLHTTPRequest,
	})
	return nil
}

func (p *HTTPProber) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= p.maxRedirects {
		return errTooManyRedirects
	}
	req.Header.Del("Referer")

	var id string
	if st := stateFrom(req.Context()); st != nil {
		id = st.id
	}
	p.publish(netevents.Event{
		Kind:        netevents.BeforeRedirect,
		RequestID:   id,
		URL:         via[len(via)-1].URL.String(),
		RedirectURL: req.URL.String(),
		Type:        netevents.XMLHTTPRequest,
	})
	return nil
}

func (p *HTTPProber) publish(e netevents.Event) {
	if p.hub != nil {
		p.hub.Publish(e)
	}
}

// eventTransport reports response headers and transport errors on the hub.
type eventTransport struct {
	base http.RoundTripper
	hub  *netevents.Hub
}

func (t *eventTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	st := stateFrom(req.Context())
	var id string
	if st != nil {
		id = st.id
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		if st != nil {
			st.errPublished.Store(true)
		}
		t.publish(netevents.Event{
			Kind:      netevents.ErrorOccurred,
			RequestID: id,
			URL:       req.URL.String(),
			Error:     netErrorCode(err),
			Type:      netevents.XMLHTTPRequest,
		})
		return nil, err
	}

	if !isFollowedRedirect(resp) {
		t.publish(netevents.Event{
			Kind:       netevents.ResponseStarted,
			RequestID:  id,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Type:       netevents.XMLHTTPRequest,
		})
	}
	return resp, nil
}

func (t *eventTransport) publish(e netevents.Event) {
	if t.hub != nil {
		t.hub.Publish(e)
	}
}

// isFollowedRedirect mirrors the redirect rules of http.Client.
func isFollowedRedirect(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return resp.Header.Get("Location") != ""
	default:
		return false
	}
}
