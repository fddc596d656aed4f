package pipeline

// ProcessEpisodeRequest asks for an episode to be queued for processing.
// The episode ID is bound from the route parameter.
type ProcessEpisodeRequest struct {
	EpisodeID string `param:"id" validate:"required"`
}

// ListJobsRequest filters the job listing for one episode.
type ListJobsRequest struct {
	EpisodeID string `param:"id" validate:"required"`
}
