package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"prepTrackAPI/internal/logger"
	"prepTrackAPI/internal/types/syncjob"
)

var (
	syncJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_jobs_total",
			Help: "Sync jobs processed, by kind and result",
		},
		[]string{"kind", "result"},
	)
	syncJobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_job_duration_seconds",
			Help:    "Duration of sync job runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	syncQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_queue_depth",
			Help: "Jobs waiting in the in-process sync queue",
		},
	)
)

// RegisterSyncMetrics registers the outbox collectors. Call this from main.go
func RegisterSyncMetrics(reg prometheus.Registerer) {
	reg.MustRegister(syncJobsTotal, syncJobDuration, syncQueueDepth)
}

// JobStore persists the outbox.
type JobStore interface {
	// Insert stores a pending job and returns it with true. When an
	// equivalent pending job already exists it is returned instead, with
	// false, and its scheduled_for is pulled forward to job's.
	Insert(ctx context.Context, job *syncjob.Job) (*syncjob.Job, bool, error)
	// Claim moves a pending job to running. False means someone else has it.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	// ClaimDue moves up to limit due pending jobs to running and returns them.
	ClaimDue(ctx context.Context, limit int) ([]*syncjob.Job, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	// MarkFailed records a failed attempt. A nil retryAt marks the job dead.
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string, retryAt *time.Time) error
	// RequeueStale returns running jobs untouched for longer than olderThan
	// to pending. Covers workers that died mid-job.
	RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error)
	// PruneDone deletes done jobs last touched before olderThan ago.
	PruneDone(ctx context.Context, olderThan time.Duration) (int64, error)
	List(ctx context.Context, userID string, status syncjob.Status, limit int) ([]*syncjob.Job, error)
}

// JobRunner executes one job. Every kind is a full recompute, so running a
// job twice is harmless.
type JobRunner interface {
	Run(ctx context.Context, job *syncjob.Job) error
}

type SyncOptions struct {
	Workers      int
	QueueSize    int
	PollInterval time.Duration
	MaxAttempts  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	JobTimeout   time.Duration
	StaleAfter   time.Duration
	ClaimBatch   int
	KeepDone     time.Duration
}

func (o SyncOptions) withDefaults() SyncOptions {
	if o.Workers < 1 {
		o.Workers = 4
	}
	if o.QueueSize < 1 {
		o.QueueSize = 100
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 30 * time.Second
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 5
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = 30 * time.Second
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 30 * time.Minute
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = 30 * time.Second
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = 10 * time.Minute
	}
	if o.ClaimBatch < 1 {
		o.ClaimBatch = 100
	}
	if o.KeepDone <= 0 {
		o.KeepDone = 7 * 24 * time.Hour
	}
	return o
}

// SyncDispatcher is a durable outbox: jobs are written to the store first
// and then handed to a worker pool. Anything that misses the channel is
// picked up by the poller.
type SyncDispatcher struct {
	store    JobStore
	runner   JobRunner
	log      *logger.Logger
	opts     SyncOptions
	jobQueue chan *syncjob.Job
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	now      func() time.Time
}

func NewSyncDispatcher(store JobStore, runner JobRunner, log *logger.Logger, opts SyncOptions) *SyncDispatcher {
	opts = opts.withDefaults()
	return &SyncDispatcher{
		store:    store,
		runner:   runner,
		log:      log.With("service", "SyncDispatcher"),
		opts:     opts,
		jobQueue: make(chan *syncjob.Job, opts.QueueSize),
		stopChan: make(chan struct{}),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the workers and the poller.
func (d *SyncDispatcher) Start() {
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.wg.Add(2)
	go d.poll()
	go d.cleanupDoneJobs()
	d.log.Info("sync dispatcher started", "workers", d.opts.Workers, "poll_interval", d.opts.PollInterval.String())
}

// Stop signals workers and waits for in-flight jobs. Safe to call twice.
func (d *SyncDispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopChan)
	})
	d.wg.Wait()
}

// Enqueue persists the job and offers it to the workers. It never blocks on
// a full queue.
func (d *SyncDispatcher) Enqueue(ctx context.Context, kind syncjob.Kind, userID string, companyID *string) (*syncjob.Job, error) {
	if userID == "" {
		return nil, missing("user_id")
	}
	if kind == syncjob.KindCompanyProgress && (companyID == nil || *companyID == "") {
		return nil, missing("company_id")
	}

	job, inserted, err := d.store.Insert(ctx, syncjob.NewJob(kind, userID, companyID))
	if err != nil {
		return nil, fmt.Errorf("failed to persist sync job: %w", err)
	}
	if !inserted {
		// Already queued or due for the poller.
		return job, nil
	}

	select {
	case d.jobQueue <- job:
		syncQueueDepth.Inc()
	default:
		d.log.Warn("sync queue full, leaving job for poller", "job_id", job.ID, "kind", kind)
	}
	return job, nil
}

func (d *SyncDispatcher) ListJobs(ctx context.Context, userID string, status syncjob.Status) ([]*syncjob.Job, error) {
	if userID == "" {
		return nil, missing("user_id")
	}
	switch status {
	case "", syncjob.StatusPending, syncjob.StatusRunning, syncjob.StatusDone, syncjob.StatusFailed, syncjob.StatusDead:
	default:
		return nil, fmt.Errorf("%w: unknown job status %q", ErrInvalidStatus, status)
	}
	return d.store.List(ctx, userID, status, 100)
}

func (d *SyncDispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			syncQueueDepth.Dec()
			d.claimAndProcess(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *SyncDispatcher) claimAndProcess(job *syncjob.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.JobTimeout)
	defer cancel()

	claimed, err := d.store.Claim(ctx, job.ID)
	if err != nil {
		d.log.Error("failed to claim sync job", "job_id", job.ID, "error", err)
		return
	}
	if !claimed {
		return
	}
	d.process(job)
}

// process runs a job that is already marked running.
func (d *SyncDispatcher) process(job *syncjob.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.JobTimeout)
	defer cancel()

	start := time.Now()
	runErr := d.runner.Run(ctx, job)
	syncJobDuration.WithLabelValues(string(job.Kind)).Observe(time.Since(start).Seconds())

	if runErr == nil {
		if err := d.store.MarkDone(ctx, job.ID); err != nil {
			d.log.Error("failed to mark sync job done", "job_id", job.ID, "error", err)
		}
		syncJobsTotal.WithLabelValues(string(job.Kind), "done").Inc()
		return
	}

	d.markAsFailed(ctx, job, runErr)
}

func (d *SyncDispatcher) markAsFailed(ctx context.Context, job *syncjob.Job, runErr error) {
	attempts := job.Attempts + 1

	var retryAt *time.Time
	result := "dead"
	// Validation failures will fail the same way on every retry.
	if attempts < d.opts.MaxAttempts && !errors.Is(runErr, ErrMissingIdentifier) && !errors.Is(runErr, ErrNotFound) {
		at := d.now().Add(d.backoff(attempts))
		retryAt = &at
		result = "retry"
	}

	if err := d.store.MarkFailed(ctx, job.ID, attempts, runErr.Error(), retryAt); err != nil {
		d.log.Error("failed to record sync job failure", "job_id", job.ID, "error", err)
	}
	syncJobsTotal.WithLabelValues(string(job.Kind), result).Inc()
	d.log.Warn("sync job failed",
		"job_id", job.ID,
		"kind", job.Kind,
		"user_id", job.UserID,
		"attempts", attempts,
		"result", result,
		"error", runErr,
	)
}

// backoff doubles from BaseBackoff per attempt, capped at MaxBackoff.
func (d *SyncDispatcher) backoff(attempts int) time.Duration {
	delay := d.opts.BaseBackoff
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= d.opts.MaxBackoff {
			return d.opts.MaxBackoff
		}
	}
	if delay > d.opts.MaxBackoff {
		return d.opts.MaxBackoff
	}
	return delay
}

func (d *SyncDispatcher) poll() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.processDueJobs()
		case <-d.stopChan:
			return
		}
	}
}

// processDueJobs runs one poller pass inline on the poller goroutine.
func (d *SyncDispatcher) processDueJobs() int {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.JobTimeout)
	defer cancel()

	if n, err := d.store.RequeueStale(ctx, d.opts.StaleAfter); err != nil {
		d.log.Error("failed to requeue stale sync jobs", "error", err)
	} else if n > 0 {
		d.log.Warn("requeued stale sync jobs", "count", n)
	}

	jobs, err := d.store.ClaimDue(ctx, d.opts.ClaimBatch)
	if err != nil {
		d.log.Error("failed to claim due sync jobs", "error", err)
		return 0
	}

	processed := 0
	for _, job := range jobs {
		select {
		case <-d.stopChan:
			// Claimed but unprocessed jobs are returned by RequeueStale.
			return processed
		default:
		}
		d.process(job)
		processed++
	}
	if processed > 0 {
		d.log.Info("processed due sync jobs", "count", processed)
	}
	return processed
}

// cleanupDoneJobs prunes finished jobs once a day. Dead jobs are kept for
// inspection through ListJobs.
func (d *SyncDispatcher) cleanupDoneJobs() {
	defer d.wg.Done()
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.performCleanup()
		case <-d.stopChan:
			return
		}
	}
}

func (d *SyncDispatcher) performCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.JobTimeout)
	defer cancel()

	n, err := d.store.PruneDone(ctx, d.opts.KeepDone)
	if err != nil {
		d.log.Error("failed to prune done sync jobs", "error", err)
		return
	}
	if n > 0 {
		d.log.Info("pruned done sync jobs", "count", n)
	}
}
