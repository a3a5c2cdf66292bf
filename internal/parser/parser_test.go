package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Example Domain</title>
  <meta name="description" content="An example page for testing.">
  <style>body { color: red; }</style>
  <script>var hidden = "should not appear";</script>
</head>
<body>
  <h1>Welcome</h1>
  <p>Python is great for <a href="/about">learning</a>.</p>
  <a href="https://other.org/page?x=1">external</a>
  <a href="#top">top</a>
  <a href="mailto:hi@example.com">mail</a>
  <a href="javascript:void(0)">js</a>
  <a href="relative/deep">deep</a>
  <noscript>enable js</noscript>
</body>
</html>`

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	p := New()
	links, err := p.ExtractLinks("https://example.com/start/", []byte(samplePage))
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://example.com/about",
		"https://other.org/page?x=1",
		"https://example.com/start/relative/deep",
	}, links)
}

func TestExtractLinksNoAnchors(t *testing.T) {
	t.Parallel()

	p := New()
	links, err := p.ExtractLinks("https://example.com/", []byte("<html><body>plain</body></html>"))
	require.NoError(t, err)
	require.Empty(t, links)
}

func TestExtractMeta(t *testing.T) {
	t.Parallel()

	p := New()
	meta, err := p.ExtractMeta([]byte(samplePage))
	require.NoError(t, err)
	require.Equal(t, "Example Domain", meta.Title)
	require.Equal(t, "An example page for testing.", meta.Description)
	require.Contains(t, meta.VisibleText, "Python is great for learning")
	require.NotContains(t, meta.VisibleText, "should not appear")
	require.NotContains(t, meta.VisibleText, "color: red")
	require.NotContains(t, meta.VisibleText, "enable js")
}

func TestExtractMetaMissingTags(t *testing.T) {
	t.Parallel()

	p := New()
	meta, err := p.ExtractMeta([]byte("<html><body><p>just text</p></body></html>"))
	require.NoError(t, err)
	require.Empty(t, meta.Title)
	require.Empty(t, meta.Description)
	require.Equal(t, "just text", meta.VisibleText)
}
