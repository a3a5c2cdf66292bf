package crawler

import (
	"strings"
	"testing"
)

func TestValidatorPolicy(t *testing.T) {
	t.Parallel()

	v := NewValidator([]string{"example.com"}, ValidatorOptions{})

	cases := []struct {
		name   string
		url    string
		valid  bool
		reason string
	}{
		{"plain page", "https://example.com/about", true, ""},
		{"http scheme", "http://example.com/", true, ""},
		{"subdomain allowed", "https://blog.example.com/post", true, ""},
		{"other domain", "https://evil.com/", false, "domain not in allowlist"},
		{"lookalike suffix", "https://notexample.com/", false, "domain not in allowlist"},
		{"ftp scheme", "ftp://example.com/file", false, "unsupported scheme"},
		{"mailto", "mailto:someone@example.com", false, "unsupported scheme"},
		{"missing host", "https:///path", false, "missing host"},
		{"pdf extension", "https://example.com/file.pdf", false, "denylisted extension"},
		{"image extension uppercase", "https://example.com/img.JPG", false, "denylisted extension"},
		{"extension only in query", "https://example.com/dl?file=x.pdf", true, ""},
		{"unparseable", "https://example.com/%zz", false, "unparseable url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := v.Validate(tc.url)
			if got.Valid != tc.valid {
				t.Fatalf("Validate(%q).Valid = %v, want %v (reason %q)", tc.url, got.Valid, tc.valid, got.Reason)
			}
			if !tc.valid && got.Reason != tc.reason {
				t.Fatalf("Validate(%q).Reason = %q, want %q", tc.url, got.Reason, tc.reason)
			}
		})
	}
}

func TestValidatorURLLengthCap(t *testing.T) {
	t.Parallel()

	v := NewValidator([]string{"example.com"}, ValidatorOptions{})
	long := "https://example.com/" + strings.Repeat("a", maxURLLength)
	if got := v.Validate(long); got.Valid || got.Reason != "url too long" {
		t.Fatalf("expected length rejection, got %+v", got)
	}
}

func TestValidatorEmptyAllowlistAdmitsAnyHost(t *testing.T) {
	t.Parallel()

	v := NewValidator(nil, ValidatorOptions{})
	if got := v.Validate("https://anything.org/"); !got.Valid {
		t.Fatalf("expected accept with empty allowlist, got %+v", got)
	}
}

func TestValidatorBlockedDomains(t *testing.T) {
	t.Parallel()

	v := NewValidator(nil, ValidatorOptions{
		BlockedDomains: []string{"facebook.com", "*.ads.example.com"},
	})
	if got := v.Validate("https://facebook.com/page"); got.Valid || got.Reason != "blocked domain" {
		t.Fatalf("expected blocked domain, got %+v", got)
	}
	if got := v.Validate("https://tracker.ads.example.com/x"); got.Valid {
		t.Fatalf("expected wildcard block, got %+v", got)
	}
	if got := v.Validate("https://example.com/x"); !got.Valid {
		t.Fatalf("expected accept, got %+v", got)
	}
}

func TestValidatorCustomExtensionDenylist(t *testing.T) {
	t.Parallel()

	v := NewValidator(nil, ValidatorOptions{DeniedExtensions: []string{"exe", ".iso"}})
	if got := v.Validate("https://example.com/setup.exe"); got.Valid {
		t.Fatalf("expected .exe rejection, got %+v", got)
	}
	// Default entries are replaced, not merged.
	if got := v.Validate("https://example.com/file.pdf"); !got.Valid {
		t.Fatalf("expected .pdf accept under custom denylist, got %+v", got)
	}
}
