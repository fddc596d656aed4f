package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PipelineJobStatus represents the status of an episode pipeline run.
type PipelineJobStatus string

const (
	PipelineJobStatusPending    PipelineJobStatus = "pending"    // Queued, waiting for a worker
	PipelineJobStatusProcessing PipelineJobStatus = "processing" // Worker is running the pipeline
	PipelineJobStatusCompleted  PipelineJobStatus = "completed"  // Pipeline finished, status reported to Narrows
	PipelineJobStatusFailed     PipelineJobStatus = "failed"     // Pipeline failed
	PipelineJobStatusSkipped    PipelineJobStatus = "skipped"    // Episode, series or transcript missing upstream
)

// PipelineJob is the local ledger row for one episode pipeline run. The
// authoritative episode status lives in Narrows; this record is operational
// state for the worker fleet.
type PipelineJob struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	EpisodeID string            `json:"episode_id" gorm:"type:varchar(255);not null;index"`
	Status    PipelineJobStatus `json:"status" gorm:"type:varchar(50);not null;index;default:'pending'"`

	StartedAt   *time.Time `json:"started_at,omitempty" gorm:"type:timestamp"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"type:timestamp"`
	RetryCount  int        `json:"retry_count" gorm:"type:integer;default:0"`
	MaxRetries  int        `json:"max_retries" gorm:"type:integer;default:3"`
	LastError   *string    `json:"last_error,omitempty" gorm:"type:text"`

	Metadata datatypes.JSONType[PipelineJobMetadata] `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// PipelineJobMetadata stores per-run counters and the collected ingestion IDs.
type PipelineJobMetadata struct {
	DurationSec      float64  `json:"duration_sec,omitempty"`
	SpeakerCount     int      `json:"speaker_count,omitempty"`
	ChapterCount     int      `json:"chapter_count,omitempty"`
	SegmentCount     int      `json:"segment_count,omitempty"`
	ChunkCount       int      `json:"chunk_count,omitempty"`
	IngestionIDs     []string `json:"ingestion_ids,omitempty"`
	ProcessingTimeMs int64    `json:"processing_time_ms,omitempty"`
}

// NewPipelineJob creates a pending job for an episode.
func NewPipelineJob(episodeID string) *PipelineJob {
	return &PipelineJob{
		ID:         uuid.New(),
		EpisodeID:  episodeID,
		Status:     PipelineJobStatusPending,
		RetryCount: 0,
		MaxRetries: 3,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

// IsRetryable checks if the job can be retried after a failure.
func (j *PipelineJob) IsRetryable() bool {
	return j.RetryCount < j.MaxRetries && j.Status == PipelineJobStatusFailed
}

// MarkAsProcessing marks the job as picked up by a worker.
func (j *PipelineJob) MarkAsProcessing() {
	j.Status = PipelineJobStatusProcessing
	now := time.Now()
	j.StartedAt = &now
	j.UpdatedAt = now
}

// MarkAsCompleted marks the job as completed with final run metadata.
func (j *PipelineJob) MarkAsCompleted(meta PipelineJobMetadata) {
	j.Status = PipelineJobStatusCompleted
	j.Metadata = datatypes.NewJSONType(meta)
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsFailed marks the job as failed with an error message.
func (j *PipelineJob) MarkAsFailed(errMsg string) {
	j.Status = PipelineJobStatusFailed
	j.LastError = &errMsg
	j.UpdatedAt = time.Now()
}

// MarkAsSkipped marks the job as skipped because upstream data is missing.
func (j *PipelineJob) MarkAsSkipped(reason string) {
	j.Status = PipelineJobStatusSkipped
	j.LastError = &reason
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// IncrementRetry increments the retry counter after a failed attempt.
func (j *PipelineJob) IncrementRetry(errMsg string) {
	j.RetryCount++
	j.LastError = &errMsg
	j.UpdatedAt = time.Now()
}

// TableName specifies the table name for GORM
func (PipelineJob) TableName() string {
	return "pipeline_jobs"
}
