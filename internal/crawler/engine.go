package crawler

import (
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"
)

// State is the lifecycle phase of a crawl run.
type State string

// Engine lifecycle states.
const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
)

// Run termination reasons recorded in RunStats.
const (
	ReasonFinished        = "finished"
	ReasonCanceled        = "canceled"
	ReasonSinkUnavailable = "sink_unavailable"
)

// EngineConfig carries the per-run knobs the engine needs beyond its
// collaborators.
type EngineConfig struct {
	Seeds       []string
	Limits      Limits
	Concurrency int
	BlobPrefix  string
}

// Engine orchestrates the frontier, visited set and processor against the
// fetch and parse collaborators, emitting exactly one PageRecord per popped
// task.
//
// Fetching and parsing run on up to Concurrency goroutines; the frontier,
// visited set and counters are touched only from the goroutine running Run,
// which keeps the admitted-count cutoff exact without extra locking.
type Engine struct {
	cfg        EngineConfig
	frontier   *Frontier
	visited    *VisitedSet
	normalizer *Normalizer
	processor  *Processor
	fetcher    Fetcher
	parser     Parser
	sink       Sink
	blobs      BlobStore
	clock      Clock
	logger     *zap.Logger
	runID      string

	state State
	stats RunStats
}

// NewEngine wires an Engine for a single run. blobs may be nil when raw-page
// archiving is disabled.
func NewEngine(
	cfg EngineConfig,
	normalizer *Normalizer,
	processor *Processor,
	fetcher Fetcher,
	parser Parser,
	sink Sink,
	blobs BlobStore,
	clock Clock,
	runID string,
	logger *zap.Logger,
) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Engine{
		cfg:        cfg,
		frontier:   NewFrontier(cfg.Limits),
		visited:    NewVisitedSet(),
		normalizer: normalizer,
		processor:  processor,
		fetcher:    fetcher,
		parser:     parser,
		sink:       sink,
		blobs:      blobs,
		clock:      clock,
		runID:      runID,
		logger:     logger,
		state:      StateIdle,
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

type fetchOutcome struct {
	task  CrawlTask
	resp  FetchResponse
	meta  PageMeta
	links []string
	err   error
}

// Run drives the crawl to a terminal state. It returns the run statistics
// and a non-nil error only when the run aborted on an unrecoverable sink
// failure. Cancellation of ctx stops admission and drains in-flight fetches;
// each drained fetch still emits its record.
func (e *Engine) Run(ctx context.Context) (RunStats, error) {
	e.state = StateRunning
	e.stats = RunStats{RunID: e.runID, StartTime: e.clock.Now()}
	e.seed()
	e.logger.Info("crawl started",
		zap.String("run_id", e.runID),
		zap.Int("seeds", e.frontier.Admitted()),
		zap.Int("max_depth", e.cfg.Limits.MaxDepth),
		zap.Int("max_urls", e.cfg.Limits.MaxURLs),
		zap.Int("concurrency", e.cfg.Concurrency),
	)

	outcomes := make(chan fetchOutcome)
	inflight := 0
	draining := false
	var abortErr error

	for {
		if !draining && ctx.Err() != nil {
			draining = true
			e.logger.Info("stop signal received, draining in-flight fetches",
				zap.Int("inflight", inflight))
		}
		if !draining && abortErr == nil {
			for inflight < e.cfg.Concurrency {
				task, ok := e.frontier.Pop()
				if !ok {
					break
				}
				inflight++
				go e.fetchTask(ctx, task, outcomes)
			}
		}
		if inflight == 0 {
			break
		}
		out := <-outcomes
		inflight--
		stopped := draining || abortErr != nil
		if err := e.handleOutcome(ctx, out, stopped); err != nil && abortErr == nil {
			abortErr = err
		}
	}

	switch {
	case abortErr != nil:
		e.state = StateAborted
		e.stats.Reason = ReasonSinkUnavailable
	case draining:
		e.state = StateCompleted
		e.stats.Reason = ReasonCanceled
	default:
		e.state = StateCompleted
		e.stats.Reason = ReasonFinished
	}
	e.closed()
	return e.stats, abortErr
}

// seed canonicalizes and claims each seed, pushing it at depth zero. Seeds
// bypass the domain allowlist but not canonicalization or dedup.
func (e *Engine) seed() {
	for _, seed := range e.cfg.Seeds {
		canonical, err := e.normalizer.Canonicalize(seed)
		if err != nil {
			e.logger.Warn("seed url not canonicalizable", zap.String("url", seed), zap.Error(err))
			continue
		}
		if !e.visited.MarkIfNew(canonical.Hash) {
			continue
		}
		if !e.frontier.Push(CrawlTask{URL: seed, Depth: 0}) {
			e.logger.Warn("seed rejected by frontier limits", zap.String("url", seed))
		}
	}
}

// fetchTask runs on a worker goroutine. Parsing happens here too; only the
// outcome crosses back to the owner goroutine.
func (e *Engine) fetchTask(ctx context.Context, task CrawlTask, outcomes chan<- fetchOutcome) {
	resp, err := e.fetcher.Fetch(ctx, task.URL)
	if err != nil {
		outcomes <- fetchOutcome{task: task, err: err}
		return
	}
	out := fetchOutcome{task: task, resp: resp}
	if meta, metaErr := e.parser.ExtractMeta(resp.Body); metaErr == nil {
		out.meta = meta
	} else {
		e.logger.Warn("meta extraction failed", zap.String("url", task.URL), zap.Error(metaErr))
	}
	if task.Depth < e.cfg.Limits.MaxDepth {
		base := resp.URL
		if base == "" {
			base = task.URL
		}
		if links, linkErr := e.parser.ExtractLinks(base, resp.Body); linkErr == nil {
			out.links = links
		} else {
			e.logger.Warn("link extraction failed", zap.String("url", task.URL), zap.Error(linkErr))
		}
	}
	outcomes <- out
}

// handleOutcome emits the record for one task and, on success, feeds
// accepted links back into the frontier. stopped suppresses link admission
// during drain or abort.
func (e *Engine) handleOutcome(ctx context.Context, out fetchOutcome, stopped bool) error {
	if out.err != nil {
		record := e.processor.BuildFailureRecord(out.task, out.err)
		e.logger.Warn("fetch failed",
			zap.String("url", out.task.URL),
			zap.String("error_type", ErrorCategory(out.err)),
			zap.Error(out.err),
		)
		if err := e.emit(ctx, record); err != nil {
			return err
		}
		e.stats.URLsFailed++
		return nil
	}

	record := e.processor.BuildSuccessRecord(out.task, out.resp, out.meta)
	e.archive(ctx, out, &record)
	if err := e.emit(ctx, record); err != nil {
		return err
	}
	e.stats.URLsProcessed++

	if stopped || out.task.Depth >= e.cfg.Limits.MaxDepth {
		return nil
	}
	accepted, linkStats := e.processor.ProcessLinks(out.links, out.task, e.visited, e.frontier)
	e.stats.DuplicatesSkipped += linkStats.Duplicates
	e.stats.ValidationRejects += linkStats.Rejected + linkStats.Malformed
	e.logger.Debug("links processed",
		zap.String("url", out.task.URL),
		zap.Int("discovered", len(out.links)),
		zap.Int("accepted", len(accepted)),
		zap.Int("duplicates", linkStats.Duplicates),
		zap.Int("rejected", linkStats.Rejected),
	)
	return nil
}

func (e *Engine) emit(ctx context.Context, record PageRecord) error {
	if err := e.sink.Emit(ctx, record); err != nil {
		e.logger.Error("sink emit failed", zap.String("url", record.URL), zap.Error(err))
		return fmt.Errorf("emit record for %s: %w", record.URL, err)
	}
	return nil
}

// archive stores the raw body when a blob store is configured. Archive
// failures never fail the task; the record simply carries no blob URI.
func (e *Engine) archive(ctx context.Context, out fetchOutcome, record *PageRecord) {
	if e.blobs == nil || len(out.resp.Body) == 0 || record.URLHash == "" {
		return
	}
	objectPath := path.Join(e.cfg.BlobPrefix, e.runID, record.URLHash+".html")
	uri, err := e.blobs.PutObject(ctx, objectPath, out.resp.ContentType, out.resp.Body)
	if err != nil {
		e.logger.Warn("archive failed", zap.String("url", out.task.URL), zap.Error(err))
		return
	}
	if uri == "" {
		return
	}
	record.Metadata["blob_uri"] = uri
}

// closed records terminal statistics, exactly once per run.
func (e *Engine) closed() {
	e.stats.EndTime = e.clock.Now()
	e.logger.Info("crawl closed",
		zap.String("run_id", e.runID),
		zap.String("state", string(e.state)),
		zap.String("reason", e.stats.Reason),
		zap.Int("urls_processed", e.stats.URLsProcessed),
		zap.Int("urls_failed", e.stats.URLsFailed),
		zap.Int("duplicates_skipped", e.stats.DuplicatesSkipped),
		zap.Int("validation_rejects", e.stats.ValidationRejects),
		zap.Int("admitted", e.frontier.Admitted()),
		zap.Duration("elapsed", e.stats.EndTime.Sub(e.stats.StartTime)),
	)
}
