package crawler

import (
	"strings"

	"go.uber.org/zap"
)

// LinkStats counts what happened to a batch of discovered links.
type LinkStats struct {
	Accepted   int
	Rejected   int
	Duplicates int
	Malformed  int
}

// Processor assembles PageRecords and filters discovered links. It is
// stateless between calls; the visited set and frontier it operates on are
// owned by the engine.
type Processor struct {
	normalizer *Normalizer
	validator  *Validator
	keywords   []string
	clock      Clock
	runID      string
	logger     *zap.Logger
}

// NewProcessor builds a Processor for one run.
func NewProcessor(
	normalizer *Normalizer,
	validator *Validator,
	keywords []string,
	clock Clock,
	runID string,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		normalizer: normalizer,
		validator:  validator,
		keywords:   keywords,
		clock:      clock,
		runID:      runID,
		logger:     logger,
	}
}

// ProcessLinks validates, canonicalizes and claims each discovered link,
// pushing accepted tasks (depth+1, referrer = current URL) onto the
// frontier. It stops early once the frontier reports its admitted-count
// limit reached; remaining links are not examined.
func (p *Processor) ProcessLinks(
	discovered []string,
	current CrawlTask,
	visited *VisitedSet,
	frontier *Frontier,
) ([]CrawlTask, LinkStats) {
	var (
		accepted []CrawlTask
		stats    LinkStats
	)
	for _, link := range discovered {
		if frontier.Full() {
			break
		}
		result := p.validator.Validate(link)
		if !result.Valid {
			stats.Rejected++
			p.logger.Debug("link rejected",
				zap.String("url", link),
				zap.String("reason", result.Reason),
			)
			continue
		}
		canonical, err := p.normalizer.Canonicalize(link)
		if err != nil {
			stats.Malformed++
			p.logger.Debug("link not canonicalizable", zap.String("url", link), zap.Error(err))
			continue
		}
		if !visited.MarkIfNew(canonical.Hash) {
			stats.Duplicates++
			continue
		}
		task := CrawlTask{
			URL:      link,
			Depth:    current.Depth + 1,
			Referrer: current.URL,
		}
		if !frontier.Push(task) {
			continue
		}
		accepted = append(accepted, task)
		stats.Accepted++
	}
	return accepted, stats
}

// BuildSuccessRecord assembles the record for a fetched page: canonical
// identity, extracted title/description and the ordered list of matched
// keywords.
func (p *Processor) BuildSuccessRecord(task CrawlTask, resp FetchResponse, meta PageMeta) PageRecord {
	record := p.baseRecord(task)
	status := resp.StatusCode
	record.StatusCode = &status
	record.ContentType = resp.ContentType
	record.Title = strings.TrimSpace(meta.Title)
	record.Description = strings.TrimSpace(meta.Description)
	record.Keywords = p.matchKeywords(meta.VisibleText)
	record.IsActive = true
	record.Metadata = map[string]any{
		"size":        len(resp.Body),
		"duration_ms": resp.Duration.Milliseconds(),
	}
	return record
}

// BuildFailureRecord assembles the record for a task whose fetch failed.
// The status code is set only when the error carried one.
func (p *Processor) BuildFailureRecord(task CrawlTask, fetchErr error) PageRecord {
	record := p.baseRecord(task)
	if status, ok := StatusCodeOf(fetchErr); ok {
		record.StatusCode = &status
	}
	record.ErrorCount = 1
	record.IsActive = false
	record.Metadata = map[string]any{
		"error":      fetchErr.Error(),
		"error_type": ErrorCategory(fetchErr),
	}
	return record
}

func (p *Processor) baseRecord(task CrawlTask) PageRecord {
	record := PageRecord{
		RunID:     p.runID,
		URL:       task.URL,
		Domain:    Domain(task.URL),
		SourceURL: task.Referrer,
		Depth:     task.Depth,
		Keywords:  []string{},
		Timestamp: p.clock.Now(),
	}
	// Canonical identity is recomputed here so records stay self-describing
	// even when the task URL came straight from a seed list.
	if canonical, err := p.normalizer.Canonicalize(task.URL); err == nil {
		record.NormalizedURL = canonical.Normalized
		record.URLHash = canonical.Hash
	}
	return record
}

// matchKeywords scans text for each configured keyword, case-insensitively,
// preserving configuration order in the result.
func (p *Processor) matchKeywords(text string) []string {
	matched := []string{}
	if len(p.keywords) == 0 || text == "" {
		return matched
	}
	lowered := strings.ToLower(text)
	for _, keyword := range p.keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			matched = append(matched, keyword)
		}
	}
	return matched
}
