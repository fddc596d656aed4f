package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
	"github.com/narrowsfm/podgraph/internal/infrastructure/queue"
	"github.com/narrowsfm/podgraph/internal/usecase/pipeline"
	"github.com/narrowsfm/podgraph/pkg/jobcontext"
)

const (
	dequeueTimeout   = 5 * time.Second
	retryBaseDelay   = 5 * time.Second
	dequeueErrorWait = 2 * time.Second
)

// Processor runs the episode pipeline for one episode ID.
type Processor interface {
	ProcessEpisode(ctx context.Context, episodeID string) (*pipeline.Result, error)
}

// TaskQueue is the worker's view of the episode queue.
type TaskQueue interface {
	Enqueue(ctx context.Context, episodeID string) error
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.EpisodeTask, error)
}

// JobLedger persists pipeline job state between attempts.
type JobLedger interface {
	CreateJob(ctx context.Context, job *entities.PipelineJob) error
	GetLatestJobByEpisodeID(ctx context.Context, episodeID string) (*entities.PipelineJob, error)
	UpdateJob(ctx context.Context, job *entities.PipelineJob) error
}

// Pool consumes the episode queue with a fixed number of workers. Each
// dequeued task runs the pipeline under a bounded job context; outcomes
// are recorded in the job ledger and retryable failures are requeued with
// exponential backoff.
type Pool struct {
	queue     TaskQueue
	ledger    JobLedger
	processor Processor
	logger    *zap.Logger
	count     int

	wg    sync.WaitGroup
	sleep func(time.Duration)
}

// NewPool creates a worker pool of the given size.
func NewPool(q TaskQueue, ledger JobLedger, processor Processor, count int, logger *zap.Logger) *Pool {
	if count <= 0 {
		count = 1
	}
	return &Pool{
		queue:     q,
		ledger:    ledger,
		processor: processor,
		logger:    logger,
		count:     count,
		sleep:     time.Sleep,
	}
}

// Start launches the workers. They stop when ctx is cancelled; Wait blocks
// until the last worker has drained its current job.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, workerID int) {
	defer p.wg.Done()
	log := p.logger.With(zap.Int("worker_id", workerID))
	log.Info("worker started")

	for {
		if ctx.Err() != nil {
			log.Info("worker stopping")
			return
		}

		task, err := p.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping")
				return
			}
			log.Error("dequeue failed", zap.Error(err))
			p.sleep(dequeueErrorWait)
			continue
		}
		if task == nil {
			continue
		}

		p.handleTask(ctx, workerID, task)
	}
}

// handleTask runs one dequeued episode through the pipeline and records
// the outcome in the ledger.
func (p *Pool) handleTask(ctx context.Context, workerID int, task *queue.EpisodeTask) {
	log := p.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("episode_id", task.EpisodeID),
	)

	job, err := p.claimJob(ctx, task.EpisodeID)
	if err != nil {
		log.Error("failed to claim ledger job", zap.Error(err))
		return
	}
	log = log.With(zap.String("job_id", job.ID.String()))

	jobCtx, cancel := jobcontext.JobBegin(ctx, job.ID, task.EpisodeID, workerID, job.RetryCount)
	defer cancel()

	start := time.Now()
	res, runErr := p.processor.ProcessEpisode(jobCtx, task.EpisodeID)

	switch {
	case runErr != nil:
		p.recordFailure(ctx, log, job, runErr)
	case res.Skipped:
		job.MarkAsSkipped(res.SkipReason)
		log.Warn("episode skipped", zap.String("reason", res.SkipReason))
	default:
		job.MarkAsCompleted(entities.PipelineJobMetadata{
			DurationSec:      res.DurationSec,
			SpeakerCount:     res.SpeakerCount,
			ChapterCount:     res.ChapterCount,
			SegmentCount:     res.SegmentCount,
			ChunkCount:       res.ChunkCount,
			IngestionIDs:     res.IngestionIDs,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		})
		log.Info("episode completed",
			zap.Int("chapters", res.ChapterCount),
			zap.Int("segments", res.SegmentCount),
			zap.Int("chunks", res.ChunkCount),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	if err := p.ledger.UpdateJob(ctx, job); err != nil {
		log.Error("failed to update ledger job", zap.Error(err))
	}
}

// claimJob reuses the episode's latest non-terminal ledger job or creates
// a fresh one, and marks it processing.
func (p *Pool) claimJob(ctx context.Context, episodeID string) (*entities.PipelineJob, error) {
	job, err := p.ledger.GetLatestJobByEpisodeID(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	if job == nil || job.Status == entities.PipelineJobStatusCompleted || job.Status == entities.PipelineJobStatusSkipped {
		job = entities.NewPipelineJob(episodeID)
		if err := p.ledger.CreateJob(ctx, job); err != nil {
			return nil, err
		}
	}

	job.MarkAsProcessing()
	if err := p.ledger.UpdateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// recordFailure marks the job failed and requeues it when the error class
// and retry budget allow.
func (p *Pool) recordFailure(ctx context.Context, log *zap.Logger, job *entities.PipelineJob, runErr error) {
	job.IncrementRetry(runErr.Error())
	job.MarkAsFailed(runErr.Error())

	if !jobcontext.IsRetryableError(runErr) {
		log.Error("episode failed, not retryable", zap.Error(runErr))
		return
	}
	if !job.IsRetryable() {
		log.Error("episode failed, retries exhausted",
			zap.Int("retry_count", job.RetryCount),
			zap.Error(runErr),
		)
		return
	}

	backoff := jobcontext.CalculateBackoff(job.RetryCount, retryBaseDelay)
	log.Warn("episode failed, requeueing",
		zap.Int("retry_count", job.RetryCount),
		zap.Duration("backoff", backoff),
		zap.Error(runErr),
	)
	p.sleep(backoff)
	if err := p.queue.Enqueue(ctx, job.EpisodeID); err != nil {
		log.Error("failed to requeue episode", zap.Error(err))
	}
}
