package domain

import (
	"net/url"
	"strings"
)

// specialProtocols are schemes that can never be probed over the network.
var specialProtocols = []string{
	"chrome:",
	"chrome-extension:",
	"edge:",
	"about:",
	"firefox:",
	"moz-extension:",
	"file:",
	"data:",
	"javascript:",
	"brave:",
}

// IsSpecialProtocol reports whether raw uses a browser-internal or local scheme.
func IsSpecialProtocol(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, p := range specialProtocols {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// IsCheckable reports whether a bookmark URL needs a live network probe.
func IsCheckable(raw string) bool {
	return !IsSpecialProtocol(raw)
}

// ParseURL parses raw the way a browser URL constructor would reject it:
// a scheme is mandatory and http(s) URLs need a host.
func ParseURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" {
		return nil, false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return nil, false
		}
	}
	return u, true
}

// FlipScheme swaps http and https. Other schemes become https.
func FlipScheme(raw string) string {
	u, ok := ParseURL(raw)
	if !ok {
		return raw
	}
	if strings.EqualFold(u.Scheme, "https") {
		u.Scheme = "http"
	} else {
		u.Scheme = "https"
	}
	return u.String()
}

// CanonicalURL returns raw the way net/url serializes it, with scheme and
// host lowercased. Input without a scheme is only trimmed.
func CanonicalURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" {
		return trimmed
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

// URLVariants returns the canonical form of raw, its forced-https form and
// its forced-http form, without duplicates.
func URLVariants(raw string) []string {
	canonical := CanonicalURL(raw)
	candidates := []string{
		canonical,
		strings.Replace(canonical, "http://", "https://", 1),
		strings.Replace(canonical, "https://", "http://", 1),
	}
	out := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// SameURL compares the canonical forms of two URLs, ignoring a single
// trailing slash.
func SameURL(a, b string) bool {
	return strings.TrimSuffix(CanonicalURL(a), "/") == strings.TrimSuffix(CanonicalURL(b), "/")
}

// NormalizeURL reduces a URL to origin + path without trailing slash.
// Unparsable input is returned unchanged.
func NormalizeURL(raw string) string {
	u, ok := ParseURL(raw)
	if !ok || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host + strings.TrimSuffix(u.Path, "/")
}
