package entities

import "github.com/google/uuid"

// ChapterType classifies a top-level chapter.
type ChapterType string

const (
	ChapterTypeIntroduction ChapterType = "introduction"
	ChapterTypeCredits      ChapterType = "credits"
	ChapterTypePromotion    ChapterType = "promotion"
	ChapterTypeSection      ChapterType = "section"
	ChapterTypeOther        ChapterType = "other"
)

// Chapter is a top-level time partition of an episode. After planning, the
// chapter set for an episode is sorted, gap-free and covers [0, duration].
type Chapter struct {
	ID        uuid.UUID   `json:"id"`
	EpisodeID string      `json:"episode_id"`
	Type      ChapterType `json:"type"`
	Title     string      `json:"title"`
	Summary   string      `json:"summary,omitempty"`
	StartSec  float64     `json:"start_sec"`
	EndSec    float64     `json:"end_sec"`
}

// NewChapter creates a chapter with a fresh ID.
func NewChapter(episodeID string, chType ChapterType, title, summary string, startSec, endSec float64) *Chapter {
	return &Chapter{
		ID:        uuid.New(),
		EpisodeID: episodeID,
		Type:      chType,
		Title:     title,
		Summary:   summary,
		StartSec:  startSec,
		EndSec:    endSec,
	}
}

// DurationSec returns the chapter length in seconds.
func (c *Chapter) DurationSec() float64 {
	return c.EndSec - c.StartSec
}
