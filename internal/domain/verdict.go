package domain

import (
	"fmt"
	"strings"
)

// Reason strings surfaced to clients.
const (
	ReasonSpecialProtocol   = "Special protocol URL"
	ReasonInvalidURL        = "Invalid URL format"
	ReasonRequiresAuth      = "Requires authentication"
	ReasonAccessRestricted  = "Access restricted"
	ReasonTooManyRequests   = "Too many requests"
	ReasonTemporarilyDown   = "Service temporarily unavailable"
	ReasonBadGateway        = "Bad Gateway"
	ReasonNotImplemented    = "Service not implemented"
	ReasonServerError       = "Server Error"
	ReasonBlocksAutomation  = "Site blocks automated access but might be accessible in browser"
	ReasonCertificateIssues = "Site has certificate issues but might be accessible"
	ReasonRequestTimeout    = "Request Timeout"
	ReasonRespondingSlow    = "Site is responding but slow"
	ReasonRequestCancelled  = "Request cancelled"

	ReasonRedirectedPrefix = "Redirected to "
)

// Verdict is the outcome of one URL check.
type Verdict struct {
	IsValid      bool   `json:"isValid"`
	Reason       string `json:"reason,omitempty"`
	AlternateURL string `json:"alternateUrl,omitempty"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
}

// VerdictKind is the tri-state reading of a Verdict.
type VerdictKind int

const (
	Invalid VerdictKind = iota
	Valid
	ValidWithCaveat
)

func (k VerdictKind) String() string {
	switch k {
	case Valid:
		return "valid"
	case ValidWithCaveat:
		return "valid-with-caveat"
	default:
		return "invalid"
	}
}

// Kind reports whether v is valid, valid with a caveat, or invalid.
// A bare redirect note does not count as a caveat.
func (v Verdict) Kind() VerdictKind {
	switch {
	case !v.IsValid:
		return Invalid
	case v.Reason != "" && v.Reason != ReasonRedirectedPrefix+v.RedirectURL:
		return ValidWithCaveat
	default:
		return Valid
	}
}

// Signal is a raw observation about a probe. The set of implementations is closed.
type Signal interface {
	signal()
}

// StatusSignal carries an HTTP status observed for the request.
type StatusSignal struct {
	Code      int
	Requested string
	Final     string
}

// NetworkErrorSignal carries a low-level network failure.
type NetworkErrorSignal struct {
	Code NetErrorCode
	URL  string
}

// FetchExceptionSignal carries the failure raised by the probe itself.
type FetchExceptionSignal struct {
	Name    string
	Message string
}

// TimeoutSignal is raised when the per-check deadline elapses.
type TimeoutSignal struct {
	HasResponse bool
}

func (StatusSignal) signal()         {}
func (NetworkErrorSignal) signal()   {}
func (FetchExceptionSignal) signal() {}
func (TimeoutSignal) signal()        {}

// Classify maps a signal to a verdict. ok is false when the signal is not
// decisive and the caller should keep waiting for another one.
func Classify(s Signal) (v Verdict, ok bool) {
	switch sig := s.(type) {
	case StatusSignal:
		return ClassifyStatus(sig.Code, sig.Requested, sig.Final), true
	case NetworkErrorSignal:
		return ClassifyNetworkError(sig.Code, sig.URL), true
	case FetchExceptionSignal:
		return ClassifyFetchException(sig.Name, sig.Message)
	case TimeoutSignal:
		return ClassifyTimeout(sig.HasResponse), true
	default:
		return Verdict{}, false
	}
}

// ClassifyURL applies the checks that happen before any network activity.
// ok is true when the URL needs no probe.
func ClassifyURL(raw string) (Verdict, bool) {
	if _, ok := ParseURL(raw); !ok {
		return Verdict{IsValid: false, Reason: ReasonInvalidURL}, true
	}
	if IsSpecialProtocol(raw) {
		return Verdict{IsValid: true, Reason: ReasonSpecialProtocol}, true
	}
	return Verdict{}, false
}

// ClassifyStatus maps an HTTP status to a verdict and annotates redirects.
func ClassifyStatus(code int, requested, final string) Verdict {
	v := statusVerdict(code)
	if final != "" && CanonicalURL(final) != CanonicalURL(requested) {
		v.RedirectURL = final
		if v.Reason == "" {
			v.Reason = ReasonRedirectedPrefix + final
		}
	}
	return v
}

func statusVerdict(code int) Verdict {
	switch {
	case code >= 200 && code < 400:
		return Verdict{IsValid: true}
	case code == 401 || code == 403 || code == 429 ||
		code == 405 || code == 406 || code == 407 || code == 408:
		return Verdict{IsValid: true, Reason: restrictedReason(code)}
	case code == 503 || code == 504:
		return Verdict{IsValid: true, Reason: ReasonTemporarilyDown}
	case code == 502:
		return Verdict{IsValid: true, Reason: ReasonBadGateway}
	case code == 501:
		return Verdict{IsValid: false, Reason: ReasonNotImplemented}
	case code >= 500 && code < 600:
		return Verdict{IsValid: false, Reason: ReasonServerError}
	default:
		return Verdict{IsValid: false, Reason: fmt.Sprintf("HTTP Error: %d", code)}
	}
}

func restrictedReason(code int) string {
	switch code {
	case 401:
		return ReasonRequiresAuth
	case 403:
		return ReasonAccessRestricted
	case 429:
		return ReasonTooManyRequests
	default:
		return fmt.Sprintf("Status code: %d", code)
	}
}

// ClassifyNetworkError maps a network error code observed for rawURL.
func ClassifyNetworkError(code NetErrorCode, rawURL string) Verdict {
	switch code.Category() {
	case ConnectionError:
		alternate := FlipScheme(rawURL)
		scheme := "https"
		if u, ok := ParseURL(alternate); ok {
			scheme = strings.ToLower(u.Scheme)
		}
		return Verdict{
			IsValid:      true,
			Reason:       "Connection failed, might be temporary or try " + scheme,
			AlternateURL: alternate,
		}
	case AccessError:
		return Verdict{IsValid: true, Reason: ReasonBlocksAutomation}
	case CertError:
		return Verdict{IsValid: true, Reason: ReasonCertificateIssues}
	default:
		return Verdict{IsValid: false, Reason: string(code)}
	}
}

// OpaqueFetchName and OpaqueFetchMessage identify a probe failure that hides
// the real cause, such as a cross-origin or blocked request.
const (
	OpaqueFetchName    = "TypeError"
	OpaqueFetchMessage = "Failed to fetch"
)

// ClassifyFetchException only decides for the opaque fetch failure.
func ClassifyFetchException(name, message string) (Verdict, bool) {
	if name == OpaqueFetchName && message == OpaqueFetchMessage {
		return Verdict{IsValid: true, Reason: ReasonBlocksAutomation}, true
	}
	return Verdict{}, false
}

// ClassifyTimeout decides once the deadline elapsed.
func ClassifyTimeout(hasResponse bool) Verdict {
	if hasResponse {
		return Verdict{IsValid: true, Reason: ReasonRespondingSlow}
	}
	return Verdict{IsValid: false, Reason: ReasonRequestTimeout}
}
