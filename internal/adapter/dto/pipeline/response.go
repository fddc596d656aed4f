package pipeline

import (
	"time"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

// EnqueueResponse confirms a queued episode.
type EnqueueResponse struct {
	EpisodeID string `json:"episode_id"`
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
}

// JobResponse is the API view of one ledger job.
type JobResponse struct {
	ID          string                       `json:"id"`
	EpisodeID   string                       `json:"episode_id"`
	Status      entities.PipelineJobStatus   `json:"status"`
	RetryCount  int                          `json:"retry_count"`
	LastError   string                       `json:"last_error,omitempty"`
	Metadata    entities.PipelineJobMetadata `json:"metadata,omitempty"`
	StartedAt   *time.Time                   `json:"started_at,omitempty"`
	CompletedAt *time.Time                   `json:"completed_at,omitempty"`
	CreatedAt   time.Time                    `json:"created_at"`
}

// QueueStatsResponse reports the live queue depth.
type QueueStatsResponse struct {
	Depth int64 `json:"depth"`
}

// TranscriptsResponse lists the audio media IDs with a stored transcript.
type TranscriptsResponse struct {
	AudioMediaIDs []string `json:"audio_media_ids"`
	Count         int      `json:"count"`
}

// FromJob maps a ledger entity onto its API view.
func FromJob(job *entities.PipelineJob) JobResponse {
	resp := JobResponse{
		ID:          job.ID.String(),
		EpisodeID:   job.EpisodeID,
		Status:      job.Status,
		RetryCount:  job.RetryCount,
		Metadata:    job.Metadata.Data(),
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		CreatedAt:   job.CreatedAt,
	}
	if job.LastError != nil {
		resp.LastError = *job.LastError
	}
	return resp
}
