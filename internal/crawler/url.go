package crawler

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query parameters dropped during normalization because
// they never change the resource a URL points at.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"ref":          {},
	"source":       {},
}

// CanonicalURL is the normalized form of a URL plus the digest used as its
// deduplication key.
type CanonicalURL struct {
	Normalized string
	Hash       string
}

// Normalizer rewrites raw URLs into a canonical form so that different
// spellings of the same resource collide on one hash.
//
// Policy: scheme and host are lowercased, default ports and a leading "www."
// are stripped, the fragment is removed, tracking parameters are dropped,
// remaining query parameters are sorted by key, and a trailing slash is
// trimmed (a bare host keeps "/" as its path).
type Normalizer struct {
	hasher Hasher
}

// NewNormalizer builds a Normalizer using the given digest function.
func NewNormalizer(hasher Hasher) *Normalizer {
	return &Normalizer{hasher: hasher}
}

// Normalize returns the canonical string form of rawURL, or an error when
// the input is not parseable as an absolute http(s)-style URL.
func (n *Normalizer) Normalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Default ports add nothing.
	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	u.Host = strings.TrimPrefix(u.Host, "www.")

	u.Fragment = ""

	u.RawQuery = normalizeQuery(u.Query())

	u.Path = strings.TrimRight(u.Path, "/")
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// Canonicalize normalizes rawURL and computes its deduplication hash.
func (n *Normalizer) Canonicalize(rawURL string) (CanonicalURL, error) {
	normalized, err := n.Normalize(rawURL)
	if err != nil {
		return CanonicalURL{}, err
	}
	digest, err := n.hasher.Hash([]byte(normalized))
	if err != nil {
		return CanonicalURL{}, fmt.Errorf("hash url: %w", err)
	}
	return CanonicalURL{Normalized: normalized, Hash: digest}, nil
}

// Domain extracts the lowercased hostname (no port) from rawURL. Returns ""
// when the URL does not parse.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func normalizeQuery(values url.Values) string {
	for param := range trackingParams {
		values.Del(param)
	}
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vs := values[k]
		sort.Strings(vs)
		for _, v := range vs {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
