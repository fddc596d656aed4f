package pipeline

import (
	"context"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

// Completer is the generation-service capability. Calls may fail, time out
// or return unparsable content; stages treat all three identically and
// resolve to their documented fallbacks.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// TranscriptStore fetches ASR transcripts from object storage.
type TranscriptStore interface {
	GetTranscript(ctx context.Context, audioMediaID string) (*entities.TranscriptResult, error)
}

// MetadataAPI is the Narrows persistence capability.
type MetadataAPI interface {
	GetEpisode(ctx context.Context, id string) (*entities.Episode, error)
	GetSeries(ctx context.Context, id string) (*entities.Series, error)
	PutEpisodeSpeakers(ctx context.Context, id string, speakers map[string]entities.SpeakerInfo) error
	PutChapter(ctx context.Context, ch *entities.Chapter) error
	PutSegment(ctx context.Context, sg *entities.Segment) error
	PutEpisodeStatus(ctx context.Context, id string, st entities.EpisodeStatus) error
}

// GraphIngestor submits one chunk to the knowledge graph and returns the
// ingestion ID.
type GraphIngestor interface {
	Submit(ctx context.Context, text string, meta entities.IngestMetadata) (string, error)
}
