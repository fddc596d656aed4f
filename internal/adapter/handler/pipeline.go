package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/narrowsfm/podgraph/errors"
	dto "github.com/narrowsfm/podgraph/internal/adapter/dto/pipeline"
	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

// EpisodeQueue enqueues episodes and reports queue depth.
type EpisodeQueue interface {
	Enqueue(ctx context.Context, episodeID string) error
	Depth(ctx context.Context) (int64, error)
}

// JobReader reads the pipeline job ledger.
type JobReader interface {
	CreateJob(ctx context.Context, job *entities.PipelineJob) error
	GetJobByID(ctx context.Context, jobID uuid.UUID) (*entities.PipelineJob, error)
	ListJobsByEpisodeID(ctx context.Context, episodeID string) ([]entities.PipelineJob, error)
	ListStuckJobs(ctx context.Context, olderThanMinutes int) ([]entities.PipelineJob, error)
}

// TranscriptLister enumerates the transcripts available in object storage.
type TranscriptLister interface {
	ListTranscripts(ctx context.Context) ([]string, error)
}

// Pipeline exposes the operator API: queue episodes for processing and
// inspect their job history.
type Pipeline struct {
	queue       EpisodeQueue
	jobs        JobReader
	transcripts TranscriptLister
	logger      *zap.Logger
}

// NewPipeline creates the pipeline handler.
func NewPipeline(queue EpisodeQueue, jobs JobReader, transcripts TranscriptLister, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		queue:       queue,
		jobs:        jobs,
		transcripts: transcripts,
		logger:      logger,
	}
}

// Enqueue queues an episode for processing and opens its ledger job.
// POST /v1/episodes/:id/process
func (h *Pipeline) Enqueue(c echo.Context) error {
	var req dto.ProcessEpisodeRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}
	episodeID := req.EpisodeID

	ctx := c.Request().Context()

	job := entities.NewPipelineJob(episodeID)
	if err := h.jobs.CreateJob(ctx, job); err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("create pipeline job", err))
	}

	if err := h.queue.Enqueue(ctx, episodeID); err != nil {
		return HandleError(h.logger, c, errors.ErrQueueFailed("enqueue episode", err))
	}

	h.logger.Info("episode enqueued",
		zap.String("episode_id", episodeID),
		zap.String("job_id", job.ID.String()),
	)

	return HandleSuccess(h.logger, c, http.StatusAccepted, dto.EnqueueResponse{
		EpisodeID: episodeID,
		JobID:     job.ID.String(),
		Status:    string(job.Status),
	})
}

// GetJob returns one ledger job.
// GET /v1/jobs/:id
func (h *Pipeline) GetJob(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid job id"))
	}

	job, err := h.jobs.GetJobByID(c.Request().Context(), jobID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("get pipeline job", err))
	}
	if job == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("job"))
	}

	return HandleSuccess(h.logger, c, http.StatusOK, dto.FromJob(job))
}

// ListEpisodeJobs returns the job history for one episode, newest first.
// GET /v1/episodes/:id/jobs
func (h *Pipeline) ListEpisodeJobs(c echo.Context) error {
	var req dto.ListJobsRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	jobs, err := h.jobs.ListJobsByEpisodeID(c.Request().Context(), req.EpisodeID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("list pipeline jobs", err))
	}

	out := make([]dto.JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, dto.FromJob(&jobs[i]))
	}
	return HandleSuccess(h.logger, c, http.StatusOK, out)
}

// ListStuckJobs returns processing jobs older than 60 minutes.
// GET /v1/jobs/stuck
func (h *Pipeline) ListStuckJobs(c echo.Context) error {
	jobs, err := h.jobs.ListStuckJobs(c.Request().Context(), 60)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("list stuck jobs", err))
	}

	out := make([]dto.JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, dto.FromJob(&jobs[i]))
	}
	return HandleSuccess(h.logger, c, http.StatusOK, out)
}

// QueueStats returns the pending queue depth.
// GET /v1/queue
func (h *Pipeline) QueueStats(c echo.Context) error {
	depth, err := h.queue.Depth(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, errors.ErrQueueFailed("queue depth", err))
	}
	return HandleSuccess(h.logger, c, http.StatusOK, dto.QueueStatsResponse{Depth: depth})
}

// ListTranscripts returns the audio media IDs with a transcript in object
// storage, so operators can see what is available to enqueue.
// GET /v1/transcripts
func (h *Pipeline) ListTranscripts(c echo.Context) error {
	ids, err := h.transcripts.ListTranscripts(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailed("list transcripts", err))
	}
	return HandleSuccess(h.logger, c, http.StatusOK, dto.TranscriptsResponse{
		AudioMediaIDs: ids,
		Count:         len(ids),
	})
}
