package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

// JobRepository handles pipeline job ledger operations
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// CreateJob creates a new pipeline job
func (r *JobRepository) CreateJob(ctx context.Context, job *entities.PipelineJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// GetJobByID retrieves a pipeline job by ID
func (r *JobRepository) GetJobByID(ctx context.Context, jobID uuid.UUID) (*entities.PipelineJob, error) {
	var job entities.PipelineJob
	if err := r.db.WithContext(ctx).Where("id = ?", jobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// GetLatestJobByEpisodeID retrieves the most recent job for an episode
func (r *JobRepository) GetLatestJobByEpisodeID(ctx context.Context, episodeID string) (*entities.PipelineJob, error) {
	var job entities.PipelineJob
	if err := r.db.WithContext(ctx).
		Where("episode_id = ?", episodeID).
		Order("created_at DESC").
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// ListJobsByEpisodeID retrieves all jobs for an episode
func (r *JobRepository) ListJobsByEpisodeID(ctx context.Context, episodeID string) ([]entities.PipelineJob, error) {
	var jobs []entities.PipelineJob
	if err := r.db.WithContext(ctx).
		Where("episode_id = ?", episodeID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateJob saves the full job record
func (r *JobRepository) UpdateJob(ctx context.Context, job *entities.PipelineJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).
		Model(&entities.PipelineJob{}).
		Where("id = ?", job.ID).
		Save(job).Error
}

// ListStuckJobs returns processing jobs older than the given number of
// minutes, for operator inspection.
func (r *JobRepository) ListStuckJobs(ctx context.Context, olderThanMinutes int) ([]entities.PipelineJob, error) {
	var jobs []entities.PipelineJob
	if err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < NOW() - (? * INTERVAL '1 minute')", entities.PipelineJobStatusProcessing, olderThanMinutes).
		Order("started_at ASC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
