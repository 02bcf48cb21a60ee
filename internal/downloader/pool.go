package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"behancesync/pkg/logger"
)

// Job is one asset to mirror
type Job struct {
	URL string
}

// Result is the outcome of a Job
type Result struct {
	Job      Job
	Ref      string
	Error    error
	Duration time.Duration
}

// AssetMirrorer fetches and stores one asset, returning its local reference
type AssetMirrorer interface {
	MirrorAsset(ctx context.Context, url string) (string, error)
}

// WorkerPool runs mirror jobs on a fixed number of workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	mirrorer    AssetMirrorer
	logger      logger.Logger
}

// NewWorkerPool creates a new worker pool. numWorkers below 1 is treated as 1.
func NewWorkerPool(numWorkers int, mirrorer AssetMirrorer, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		mirrorer:    mirrorer,
		logger:      log,
	}
}

// Start launches the workers. They stop when Stop is called or ctx ends.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.ctx, wp.cancel = context.WithCancel(ctx)

	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for in-flight jobs and closes Results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel; it is closed by Stop
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// Run starts the pool, feeds it jobs and returns one Result per job once
// every job has finished. Jobs never submitted because ctx ended are
// reported with ctx's error.
func (wp *WorkerPool) Run(ctx context.Context, jobs []Job) []Result {
	wp.Start(ctx)

	var skipped []Result
	go func() {
		for i, job := range jobs {
			if err := wp.Submit(job); err != nil {
				for _, rest := range jobs[i:] {
					skipped = append(skipped, Result{Job: rest, Error: err})
				}
				break
			}
		}
		wp.Stop()
	}()

	results := make([]Result, 0, len(jobs))
	for result := range wp.Results() {
		results = append(results, result)
	}
	// Results is closed only after the feeder called Stop, so skipped is final
	return append(results, skipped...)
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		result := wp.processJob(job, id)

		// Results is drained until Stop closes it, so this never blocks forever
		wp.resultQueue <- result
	}
}

// processJob mirrors a single asset
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	if err := wp.ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	ref, err := wp.mirrorer.MirrorAsset(wp.ctx, job.URL)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		wp.logger.DebugWithFields("Worker failed to mirror asset", map[string]interface{}{
			"worker_id": workerID,
			"url":       job.URL,
			"error":     err.Error(),
			"duration":  result.Duration,
		})
		return result
	}

	result.Ref = ref
	wp.logger.DebugWithFields("Worker completed job", map[string]interface{}{
		"worker_id": workerID,
		"url":       job.URL,
		"ref":       ref,
		"duration":  result.Duration,
	})
	return result
}
