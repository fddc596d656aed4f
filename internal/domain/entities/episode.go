package entities

// ProcessingStatus is the terminal pipeline state reported back to Narrows.
type ProcessingStatus string

const (
	ProcessingStatusProcessed ProcessingStatus = "processed"
	ProcessingStatusFailed    ProcessingStatus = "failed"
)

// Episode represents a podcast episode as served by the Narrows metadata API.
type Episode struct {
	ID           string  `json:"id"`
	SeriesID     string  `json:"series_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	AudioMediaID string  `json:"audio_media_id"`
	DurationSec  float64 `json:"duration_sec,omitempty"`
	PublishedAt  string  `json:"published_at,omitempty"`
}

// EpisodeStatus is the status payload persisted via the Narrows API once an
// episode pipeline run terminates.
type EpisodeStatus struct {
	Status       ProcessingStatus `json:"status"`
	Error        string           `json:"error,omitempty"`
	IngestionIDs []string         `json:"ingestion_ids,omitempty"`
}
