package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"lxpfetch/internal/downloader"
	"lxpfetch/pkg/config"
	"lxpfetch/pkg/converter"
	apperrors "lxpfetch/pkg/errors"
	"lxpfetch/pkg/logger"
	"lxpfetch/pkg/lxp"
	"lxpfetch/pkg/models"
	"lxpfetch/pkg/retry"
	"lxpfetch/pkg/storage"
)

// writeFailureLimit is how many consecutive write failures abort the run.
// A broken output directory (full disk, revoked permissions) fails every
// item the same way; there is no point burning the download budget on it.
const writeFailureLimit = 5

const defaultConcurrency = 3

// Coordinator drives one run over a discovered tree: fetch, convert, write,
// with a bounded worker pool and per-item retries.
type Coordinator struct {
	client    *lxp.Client
	cfg       *config.Config
	format    models.Format
	converter *converter.Converter
	writer    *storage.Writer
	retryCfg  *retry.Config
	logger    logger.Logger

	// Bound per run.
	fetcher  *Fetcher
	resolver *storage.Resolver

	cancelRun     context.CancelFunc
	writeFailures int32

	fatalMu  sync.Mutex
	fatalErr error
}

// NewCoordinator wires the pipeline around an authenticated client
func NewCoordinator(client *lxp.Client, cfg *config.Config, log logger.Logger) (*Coordinator, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	format, err := models.ParseFormat(cfg.Download.Format)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeConfig, "invalid output format", err)
	}

	writer, err := storage.NewWriter(cfg.Output.Directory, log)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		client:    client,
		cfg:       cfg,
		format:    format,
		converter: converter.New(log),
		writer:    writer,
		retryCfg:  RetryConfig(cfg, log),
		logger:    log,
	}, nil
}

// Run processes every item in the tree and returns the report. Lesson pages
// go first; the sub-resources they reveal are downloaded in a second phase.
// The returned error is only non-nil when the run was aborted, never for
// individual item failures.
func (c *Coordinator) Run(ctx context.Context, tree *models.ContentTree) (*models.RunReport, error) {
	report := models.NewRunReport()
	for _, subject := range tree.Degraded() {
		report.AddSubjectError(subject.ID, subject.Title, subject.Err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancelRun = cancel

	c.resolver = storage.NewResolver(tree, c.format)
	c.fetcher = NewFetcher(c.client, tree, c.logger)

	items := tree.Items()
	c.logger.InfoWithFields("run started", map[string]interface{}{
		"run_id":   report.RunID,
		"items":    len(items),
		"subjects": len(tree.Subjects) - len(tree.Degraded()),
		"format":   string(c.format),
		"output":   c.writer.Root(),
	})

	pool := downloader.NewWorkerPool(runCtx, c.concurrency(), c, c.logger)
	pool.Start()

	extras := c.runPhase(pool, report, items)
	if len(extras) > 0 {
		extras = c.dedupeItems(extras)
		c.logger.InfoWithFields("downloading embedded resources", map[string]interface{}{
			"run_id": report.RunID,
			"count":  len(extras),
		})
		c.runPhase(pool, report, extras)
	}

	pool.Stop()
	report.Finish()

	c.logger.InfoWithFields("run finished", map[string]interface{}{
		"run_id":    report.RunID,
		"written":   report.Written,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
		"cancelled": report.Cancelled,
		"duration":  report.Duration().String(),
	})

	c.fatalMu.Lock()
	defer c.fatalMu.Unlock()
	return report, c.fatalErr
}

// runPhase submits one batch of items and collects exactly one outcome per
// accepted job. Items the pool refused (shutdown already underway) are
// recorded as cancelled directly. Returns the sub-resources discovered while
// processing the batch.
func (c *Coordinator) runPhase(pool *downloader.WorkerPool, report *models.RunReport, items []*models.MaterialItem) []*models.MaterialItem {
	if len(items) == 0 {
		return nil
	}

	accepted := make(chan int, 1)
	go func() {
		n := 0
		for _, item := range items {
			if err := pool.Submit(downloader.Job{Item: item}); err != nil {
				break
			}
			n++
		}
		accepted <- n
	}()

	var extras []*models.MaterialItem
	received := 0
	submitted := -1
	for submitted < 0 || received < submitted {
		select {
		case result := <-pool.Results():
			report.Add(result.Outcome)
			extras = append(extras, result.Extras...)
			received++
		case n := <-accepted:
			submitted = n
		}
	}

	for _, item := range items[submitted:] {
		report.Add(models.Outcome{
			Item:   item,
			Status: models.StatusCancelled,
			Err:    context.Canceled,
		})
	}
	return extras
}

// Process handles one item end to end. It implements downloader.Processor,
// so it runs on pool workers and must be safe for concurrent use.
func (c *Coordinator) Process(ctx context.Context, item *models.MaterialItem) (models.Outcome, []*models.MaterialItem) {
	if skip, path, size := c.skipExisting(item); skip {
		return models.Outcome{
			Item:   item,
			Status: models.StatusSkipped,
			Path:   path,
			Bytes:  size,
		}, nil
	}

	result, err := c.fetch(ctx, item)
	if err != nil {
		return c.failed(item, err), nil
	}

	title := item.Title
	if result.Page != nil && result.Page.Title != "" {
		title = result.Page.Title
		item.Title = title
	}

	data, err := c.converter.Convert(result, c.format)
	if err != nil {
		return c.failed(item, err), nil
	}

	relPath, err := c.resolver.ItemPath(item, title)
	if err != nil {
		return c.failed(item, err), nil
	}

	status, err := c.writer.WriteIfChanged(relPath, data)
	if err != nil {
		c.writeFailed(err)
		return c.failed(item, err), nil
	}
	atomic.StoreInt32(&c.writeFailures, 0)

	var extras []*models.MaterialItem
	if c.format == models.FormatMarkdown {
		extras = result.Assets
	}

	return models.Outcome{
		Item:   item,
		Status: status,
		Path:   relPath,
		Bytes:  len(data),
	}, extras
}

// fetch runs the item download with retries, refreshing the session once if
// it expired mid-run.
func (c *Coordinator) fetch(ctx context.Context, item *models.MaterialItem) (*models.FetchResult, error) {
	return retry.DoWithResult(ctx, func() (*models.FetchResult, error) {
		return lxp.Reauth(ctx, c.client, func() (*models.FetchResult, error) {
			return c.fetcher.Fetch(ctx, item)
		})
	}, c.retryCfg)
}

// skipExisting is the cheap pre-fetch check for verbatim downloads. Pages
// and intros always go through fetch and conversion; their fingerprint skip
// happens at write time.
func (c *Coordinator) skipExisting(item *models.MaterialItem) (bool, string, int) {
	if c.cfg.Output.Overwrite {
		return false, "", 0
	}
	if item.Kind != models.KindDocument && item.Kind != models.KindAsset {
		return false, "", 0
	}

	relPath, err := c.resolver.ItemPath(item, item.Title)
	if err != nil {
		return false, "", 0
	}
	exists, size := c.writer.Stat(relPath)
	if !exists {
		return false, "", 0
	}
	if item.SizeHint > 0 && size != item.SizeHint {
		return false, "", 0
	}

	c.logger.DebugWithFields("already downloaded", map[string]interface{}{
		"kind": string(item.Kind),
		"path": relPath,
	})
	return true, relPath, int(size)
}

func (c *Coordinator) failed(item *models.MaterialItem, err error) models.Outcome {
	if apperrors.IsType(err, apperrors.ErrorTypeCancelled) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.Outcome{Item: item, Status: models.StatusCancelled, Err: err}
	}

	if apperrors.IsFatal(err) {
		c.recordFatal(err)
	}

	c.logger.ErrorWithFields("item failed", map[string]interface{}{
		"kind":    string(item.Kind),
		"item_id": item.ID,
		"error":   err.Error(),
	})
	return models.Outcome{Item: item, Status: models.StatusFailed, Err: err}
}

func (c *Coordinator) writeFailed(err error) {
	if atomic.AddInt32(&c.writeFailures, 1) < writeFailureLimit {
		return
	}
	c.recordFatal(apperrors.Wrap(apperrors.ErrorTypeWrite,
		fmt.Sprintf("aborting after %d consecutive write failures", writeFailureLimit), err))
}

// recordFatal stores the first fatal error and cancels the rest of the run
func (c *Coordinator) recordFatal(err error) {
	c.fatalMu.Lock()
	defer c.fatalMu.Unlock()
	if c.fatalErr != nil {
		return
	}
	c.fatalErr = err

	c.logger.ErrorWithFields("aborting run", map[string]interface{}{
		"error": err.Error(),
	})
	if c.cancelRun != nil {
		c.cancelRun()
	}
}

func (c *Coordinator) concurrency() int {
	if c.cfg.Download.Concurrency > 0 {
		return c.cfg.Download.Concurrency
	}
	return defaultConcurrency
}

// dedupeItems drops repeated references to the same file while keeping
// first-seen order. The same photo can be embedded in several lessons of one
// subject, but two subjects embedding it still get a copy each, so items are
// keyed by output path rather than platform id.
func (c *Coordinator) dedupeItems(items []*models.MaterialItem) []*models.MaterialItem {
	seen := make(map[string]bool, len(items))
	unique := make([]*models.MaterialItem, 0, len(items))
	for _, item := range items {
		key := item.Key()
		if path, err := c.resolver.ItemPath(item, item.Title); err == nil {
			key = path
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, item)
	}
	return unique
}
