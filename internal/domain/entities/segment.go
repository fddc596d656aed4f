package entities

import "github.com/google/uuid"

// SegmentType classifies a content segment within a chapter.
type SegmentType string

const (
	SegmentTypeShowIntro    SegmentType = "show-intro"
	SegmentTypeEpisodeIntro SegmentType = "episode-intro"
	SegmentTypeGuestIntro   SegmentType = "guest-intro"
	SegmentTypeCredits      SegmentType = "credits"
	SegmentTypePromotion    SegmentType = "promotion"
	SegmentTypeSummary      SegmentType = "summary"
	SegmentTypeAnalysis     SegmentType = "analysis"
	SegmentTypeConclusion   SegmentType = "conclusion"
	SegmentTypeSoundOnly    SegmentType = "sound-only"
	SegmentTypeOther        SegmentType = "other"
)

// SegmentMetrics carries the content-quality scores assigned by the
// generation service. Ranges: lucidity, arousal, subjectivity and humor are
// 0..5; polarity is -5..5.
type SegmentMetrics struct {
	Lucidity     float64 `json:"lucidity"`
	Polarity     float64 `json:"polarity"`
	Arousal      float64 `json:"arousal"`
	Subjectivity float64 `json:"subjectivity"`
	Humor        float64 `json:"humor"`
}

// TranscriptExcerpt is the transcript text bound to a segment, optionally
// paired with a generated context sentence.
type TranscriptExcerpt struct {
	Context string `json:"context,omitempty"`
	Content string `json:"content"`
}

// Segment is a finer-grained unit of content inside a chapter. Unlike
// chapters, segments within a chapter may overlap slightly and need not
// cover the chapter fully.
type Segment struct {
	ID                uuid.UUID          `json:"id"`
	EpisodeID         string             `json:"episode_id"`
	ChapterID         *uuid.UUID         `json:"chapter_id,omitempty"`
	Type              SegmentType        `json:"type"`
	StartSec          float64            `json:"start_sec"`
	EndSec            float64            `json:"end_sec"`
	Metrics           SegmentMetrics     `json:"metrics"`
	TranscriptExcerpt *TranscriptExcerpt `json:"transcript_excerpt,omitempty"`
}

// NewSegment creates a segment with a fresh ID.
func NewSegment(episodeID string, sgType SegmentType, startSec, endSec float64) *Segment {
	return &Segment{
		ID:        uuid.New(),
		EpisodeID: episodeID,
		Type:      sgType,
		StartSec:  startSec,
		EndSec:    endSec,
	}
}

// Ingestible reports whether the segment should be sent to the knowledge
// graph. Promotion, credits and sound-only segments stay in the content
// model but are never ingested.
func (s *Segment) Ingestible() bool {
	switch s.Type {
	case SegmentTypePromotion, SegmentTypeCredits, SegmentTypeSoundOnly:
		return false
	}
	return true
}
