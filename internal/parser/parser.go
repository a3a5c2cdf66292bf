// Package parser extracts links and page metadata from HTML bodies using
// goquery.
package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/crawlkit/keywordcrawl/internal/crawler"
)

// HTMLParser implements crawler.Parser over goquery documents.
type HTMLParser struct{}

// New returns an HTMLParser.
func New() *HTMLParser {
	return &HTMLParser{}
}

// ExtractLinks returns the absolute form of every anchor href in body, in
// document order. Relative hrefs are resolved against baseURL; anchors
// without a usable target (fragments, javascript:, mailto:) are skipped.
// Duplicate removal is not done here; that is the visited set's job.
func (p *HTMLParser) ExtractLinks(baseURL string, body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		links = append(links, resolved.String())
	})
	return links, nil
}

// ExtractMeta pulls the title, meta description and visible text out of
// body. Script, style and noscript contents are excluded from the visible
// text; whitespace runs are collapsed to single spaces.
func (p *HTMLParser) ExtractMeta(body []byte) (crawler.PageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return crawler.PageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	meta := crawler.PageMeta{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		meta.Description = strings.TrimSpace(desc)
	}

	doc.Find("script, style, noscript").Remove()
	scope := doc.Find("body")
	if scope.Length() == 0 {
		scope = doc.Selection
	}
	meta.VisibleText = strings.Join(strings.Fields(scope.Text()), " ")
	return meta, nil
}
