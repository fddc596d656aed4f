package jobcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type KeyContext string

var (
	keyJobID        KeyContext = "job_id"
	keyEpisodeID    KeyContext = "episode_id"
	keyWorkerID     KeyContext = "worker_id"
	keyRetryAttempt KeyContext = "retry_attempt"
	keyJobStartTime KeyContext = "job_start_time"
)

// DefaultJobTimeout bounds one episode pipeline run. Long episodes make
// many generation calls; an hour-long episode should still finish well
// inside this window.
const DefaultJobTimeout = 30 * time.Minute

// JobMetadata holds metadata for one pipeline job execution.
type JobMetadata struct {
	JobID        uuid.UUID
	EpisodeID    string
	WorkerID     int
	RetryAttempt int
	StartTime    time.Time
}

// JobBegin derives a bounded context carrying the job's identity. Every
// blocking call the pipeline makes inherits the timeout.
func JobBegin(parentCtx context.Context, jobID uuid.UUID, episodeID string, workerID int, attempt int) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parentCtx, DefaultJobTimeout)

	ctx = context.WithValue(ctx, keyJobID, jobID)
	ctx = context.WithValue(ctx, keyEpisodeID, episodeID)
	ctx = context.WithValue(ctx, keyWorkerID, workerID)
	ctx = context.WithValue(ctx, keyRetryAttempt, attempt)
	ctx = context.WithValue(ctx, keyJobStartTime, time.Now())

	return ctx, cancel
}

// GetJobID extracts the job ID from context.
func GetJobID(ctx context.Context) (uuid.UUID, bool) {
	jobID, ok := ctx.Value(keyJobID).(uuid.UUID)
	return jobID, ok
}

// GetEpisodeID extracts the episode ID from context.
func GetEpisodeID(ctx context.Context) (string, bool) {
	episodeID, ok := ctx.Value(keyEpisodeID).(string)
	return episodeID, ok
}

// GetWorkerID extracts the worker ID from context.
func GetWorkerID(ctx context.Context) int {
	workerID, ok := ctx.Value(keyWorkerID).(int)
	if !ok {
		return -1
	}
	return workerID
}

// GetRetryAttempt extracts the current retry attempt from context.
func GetRetryAttempt(ctx context.Context) int {
	attempt, ok := ctx.Value(keyRetryAttempt).(int)
	if !ok {
		return 0
	}
	return attempt
}

// GetJobStartTime extracts the job start time from context.
func GetJobStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyJobStartTime).(time.Time)
	return startTime, ok
}

// GetJobMetadata extracts all job metadata from context.
func GetJobMetadata(ctx context.Context) *JobMetadata {
	jobID, _ := GetJobID(ctx)
	episodeID, _ := GetEpisodeID(ctx)
	startTime, _ := GetJobStartTime(ctx)

	return &JobMetadata{
		JobID:        jobID,
		EpisodeID:    episodeID,
		WorkerID:     GetWorkerID(ctx),
		RetryAttempt: GetRetryAttempt(ctx),
		StartTime:    startTime,
	}
}

// IsRetryableError reports whether a pipeline failure is worth requeueing:
// network trouble, timeouts, rate limits and upstream 5xx responses.
// Validation and 4xx-class failures are not.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Context errors (timeout, cancelled)
	if strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "context canceled") {
		return true
	}

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// Database deadlock/lock errors (Postgres)
	if strings.Contains(errStr, "deadlock") ||
		strings.Contains(errStr, "40001") || // serialization_failure
		strings.Contains(errStr, "40p01") { // deadlock_detected
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	return false
}

// CalculateBackoff returns the exponential delay before requeueing a
// failed job: 2^attempt * baseDelay, capped at 60 seconds.
func CalculateBackoff(attempt int, baseDelay time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	backoff := time.Duration(1<<uint(attempt)) * baseDelay

	maxBackoff := 60 * time.Second
	if backoff > maxBackoff {
		backoff = maxBackoff
	}

	return backoff
}
