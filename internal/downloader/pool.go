package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lxpfetch/pkg/logger"
	"lxpfetch/pkg/models"
)

// Job is a single material item queued for processing
type Job struct {
	Item *models.MaterialItem
}

// Result carries the outcome of one processed item plus any extra items the
// processing discovered, such as photos and documents embedded in a lesson
// page.
type Result struct {
	Outcome models.Outcome
	Extras  []*models.MaterialItem
}

// Processor handles one material item end to end: fetch, convert, write
type Processor interface {
	Process(ctx context.Context, item *models.MaterialItem) (models.Outcome, []*models.MaterialItem)
}

// WorkerPool fans material items out to a bounded set of workers. Every
// accepted job produces exactly one result, including jobs still queued
// when the run is cancelled, so callers can account for each submission.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	processor   Processor
	logger      logger.Logger
}

// NewWorkerPool creates a pool of numWorkers workers driven by processor.
// Cancelling ctx stops processing; queued jobs then surface as cancelled
// results instead of disappearing.
func NewWorkerPool(ctx context.Context, numWorkers int, processor Processor, log logger.Logger) *WorkerPool {
	poolCtx, cancel := context.WithCancel(ctx)

	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         poolCtx,
		cancel:      cancel,
		processor:   processor,
		logger:      log,
	}
}

// Start launches all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop shuts the pool down: no more jobs are accepted, workers finish or
// drain what is queued, and the result channel closes once the last result
// is out.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("worker pool stopped")
}

// Submit queues one item for processing. It fails once the pool's context
// is cancelled; the caller accounts for rejected items itself.
func (wp *WorkerPool) Submit(job Job) error {
	if wp.ctx.Err() != nil {
		return fmt.Errorf("worker pool is shutting down")
	}
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the channel results arrive on
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// QueueSize returns the number of jobs waiting in the queue
func (wp *WorkerPool) QueueSize() int {
	return len(wp.jobQueue)
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.DebugWithFields("worker started", map[string]interface{}{
		"worker_id": id,
	})

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			// The run is cancelled; drain the queue so every accepted
			// job still reports back.
			wp.resultQueue <- Result{Outcome: wp.cancelledOutcome(job)}
			continue
		default:
		}

		start := time.Now()
		outcome, extras := wp.processor.Process(wp.ctx, job.Item)
		outcome.Duration = time.Since(start)

		wp.logger.DebugWithFields("worker finished item", map[string]interface{}{
			"worker_id": id,
			"item":      job.Item.Key(),
			"status":    string(outcome.Status),
			"duration":  outcome.Duration,
		})

		wp.resultQueue <- Result{Outcome: outcome, Extras: extras}
	}

	wp.logger.DebugWithFields("worker stopping, job queue closed", map[string]interface{}{
		"worker_id": id,
	})
}

func (wp *WorkerPool) cancelledOutcome(job Job) models.Outcome {
	return models.Outcome{
		Item:   job.Item,
		Status: models.StatusCancelled,
		Err:    wp.ctx.Err(),
	}
}
