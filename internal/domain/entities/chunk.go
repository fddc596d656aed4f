package entities

import "github.com/google/uuid"

// Chunk is a size-bounded slice of a segment's contextual document. Chunks
// are ephemeral: they are submitted to the knowledge graph and never
// persisted.
type Chunk struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
	Total int    `json:"total"`
}

// IngestMetadata accompanies a chunk on its way to the knowledge graph.
// Source segments carry no word-level items; those are stripped before
// transmission.
type IngestMetadata struct {
	SeriesID    string              `json:"series_id"`
	EpisodeID   string              `json:"episode_id"`
	SegmentID   uuid.UUID           `json:"segment_id"`
	SegmentType SegmentType         `json:"segment_type"`
	ChapterID   *uuid.UUID          `json:"chapter_id,omitempty"`
	StartSec    float64             `json:"start_sec"`
	EndSec      float64             `json:"end_sec"`
	ChunkIndex  int                 `json:"chunk_index"`
	ChunkTotal  int                 `json:"chunk_total"`
	Segments    []TranscriptSegment `json:"segments,omitempty"`
}
