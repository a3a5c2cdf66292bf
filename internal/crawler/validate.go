package crawler

import (
	"net/url"
	"path"
	"strings"
)

// maxURLLength caps candidate URLs; anything longer is almost certainly a
// crawler trap or a broken link generator.
const maxURLLength = 2000

// defaultDeniedExtensions lists binary/media/archive/document extensions
// that are never worth fetching for keyword scanning.
var defaultDeniedExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx",
	".zip", ".rar", ".tar", ".gz",
	".jpg", ".jpeg", ".png", ".gif",
	".mp4", ".mp3",
}

// Validator decides whether a candidate URL is crawlable. It never returns
// an error; malformed input produces a rejection with a reason.
//
// Domain matching is subdomain-inclusive: an allowlist entry "example.com"
// admits "example.com" and any host ending in ".example.com".
type Validator struct {
	allowed    []string
	denylist   *domainDenylist
	deniedExts map[string]struct{}
}

// ValidatorOptions tunes a Validator beyond the domain allowlist.
type ValidatorOptions struct {
	// DeniedExtensions overrides the default extension denylist when non-nil.
	DeniedExtensions []string
	// BlockedDomains rejects hosts outright, with "*.suffix" wildcard support.
	BlockedDomains []string
}

// NewValidator builds a Validator for the given allowlist.
func NewValidator(allowedDomains []string, opts ValidatorOptions) *Validator {
	allowed := make([]string, 0, len(allowedDomains))
	for _, d := range allowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			allowed = append(allowed, d)
		}
	}
	exts := opts.DeniedExtensions
	if exts == nil {
		exts = defaultDeniedExtensions
	}
	deniedExts := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		deniedExts[e] = struct{}{}
	}
	return &Validator{
		allowed:    allowed,
		denylist:   newDomainDenylist(opts.BlockedDomains),
		deniedExts: deniedExts,
	}
}

// Validate checks a single candidate URL against syntax, scheme, domain and
// extension policy.
func (v *Validator) Validate(candidate string) ValidationResult {
	if len(candidate) > maxURLLength {
		return ValidationResult{Reason: "url too long"}
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return ValidationResult{Reason: "unparseable url"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationResult{Reason: "unsupported scheme"}
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ValidationResult{Reason: "missing host"}
	}
	if v.denylist.IsBlocked(host) {
		return ValidationResult{Reason: "blocked domain"}
	}
	if !v.hostAllowed(host) {
		return ValidationResult{Reason: "domain not in allowlist"}
	}
	if ext := strings.ToLower(path.Ext(u.Path)); ext != "" {
		if _, denied := v.deniedExts[ext]; denied {
			return ValidationResult{Reason: "denylisted extension"}
		}
	}
	return ValidationResult{Valid: true}
}

func (v *Validator) hostAllowed(host string) bool {
	if len(v.allowed) == 0 {
		return true
	}
	for _, d := range v.allowed {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// domainDenylist stores exact hosts and suffix wildcards from configuration.
type domainDenylist struct {
	exact    map[string]struct{}
	suffixes []string
}

func newDomainDenylist(patterns []string) *domainDenylist {
	matcher := &domainDenylist{
		exact: make(map[string]struct{}),
	}
	for _, raw := range patterns {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value == "" {
			continue
		}
		switch {
		case strings.HasPrefix(value, "*."):
			if suffix := strings.TrimPrefix(value, "*."); suffix != "" {
				matcher.addSuffix(suffix)
			}
		case strings.HasPrefix(value, "."):
			if suffix := strings.TrimPrefix(value, "."); suffix != "" {
				matcher.addSuffix(suffix)
			}
		default:
			matcher.exact[value] = struct{}{}
		}
	}
	if len(matcher.exact) == 0 && len(matcher.suffixes) == 0 {
		return nil
	}
	return matcher
}

func (b *domainDenylist) addSuffix(suffix string) {
	for _, existing := range b.suffixes {
		if existing == suffix {
			return
		}
	}
	b.suffixes = append(b.suffixes, suffix)
}

func (b *domainDenylist) IsBlocked(host string) bool {
	if b == nil {
		return false
	}
	if _, exact := b.exact[host]; exact {
		return true
	}
	for _, suffix := range b.suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}
