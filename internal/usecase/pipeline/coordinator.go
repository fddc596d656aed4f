package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/narrowsfm/podgraph/errors"
	"github.com/narrowsfm/podgraph/internal/domain/entities"
	"github.com/narrowsfm/podgraph/pkg/config"
)

// Result summarizes one episode pipeline run.
type Result struct {
	EpisodeID    string
	DurationSec  float64
	SpeakerCount int
	ChapterCount int
	SegmentCount int
	ChunkCount   int
	IngestionIDs []string
	Skipped      bool
	SkipReason   string
}

// Coordinator sequences the whole episode pipeline: normalize, resolve
// speakers, plan chapters, plan segments, chunk and ingest, then report
// the terminal status to Narrows. Stages 2-5 never fail; only the
// coordinator itself surfaces errors, after marking the episode failed.
type Coordinator struct {
	transcripts TranscriptStore
	metadata    MetadataAPI
	graph       GraphIngestor

	speakers *SpeakerResolver
	chapters *ChapterPlanner
	segments *SegmentPlanner
	chunker  *ContextualChunker

	logger      *zap.Logger
	submitDelay time.Duration
	sleep       func(time.Duration)
}

// NewCoordinator wires the pipeline from its capabilities and tuning
// config.
func NewCoordinator(
	transcripts TranscriptStore,
	metadata MetadataAPI,
	graph GraphIngestor,
	llm Completer,
	cfg *config.PipelineConfig,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		transcripts: transcripts,
		metadata:    metadata,
		graph:       graph,
		speakers:    NewSpeakerResolver(llm, logger),
		chapters:    NewChapterPlanner(llm, logger),
		segments:    NewSegmentPlanner(llm, cfg.InterChapterDelay, logger),
		chunker:     NewContextualChunker(llm, cfg.BlockCharBudget, cfg.ChunkMaxChars, cfg.ChunkBreakRatio, logger),
		logger:      logger,
		submitDelay: cfg.InterSubmitDelay,
		sleep:       time.Sleep,
	}
}

// ProcessEpisode runs the pipeline for one episode. Missing upstream data
// (episode, series, transcript) skips the episode without persisting
// anything; any other failure marks the episode failed in Narrows and is
// returned to the caller to drive retry.
func (c *Coordinator) ProcessEpisode(ctx context.Context, episodeID string) (*Result, error) {
	episode, err := c.metadata.GetEpisode(ctx, episodeID)
	if err != nil {
		if skipped, res := c.skipIfMissing(episodeID, "episode", err); skipped {
			return res, nil
		}
		return nil, c.fail(ctx, episodeID, fmt.Errorf("fetch episode: %w", err))
	}

	series, err := c.metadata.GetSeries(ctx, episode.SeriesID)
	if err != nil {
		if skipped, res := c.skipIfMissing(episodeID, "series", err); skipped {
			return res, nil
		}
		return nil, c.fail(ctx, episodeID, fmt.Errorf("fetch series: %w", err))
	}

	transcript, err := c.transcripts.GetTranscript(ctx, episode.AudioMediaID)
	if err != nil {
		if skipped, res := c.skipIfMissing(episodeID, "transcript", err); skipped {
			return res, nil
		}
		return nil, c.fail(ctx, episodeID, fmt.Errorf("fetch transcript: %w", err))
	}

	rawSegments := transcript.Segments()
	durationSec := transcript.DurationSec()
	c.logger.Info("processing episode",
		zap.String("episode_id", episodeID),
		zap.String("series_id", series.ID),
		zap.Int("transcript_segments", len(rawSegments)),
		zap.Float64("duration_sec", durationSec),
	)

	// Speakers: the resolver always returns a complete map.
	speakerMap := c.speakers.Resolve(ctx, series, episode, rawSegments)
	if err := c.metadata.PutEpisodeSpeakers(ctx, episodeID, speakerMap); err != nil {
		return nil, c.fail(ctx, episodeID, fmt.Errorf("persist speakers: %w", err))
	}
	names := speakerNames(speakerMap)

	// Chapters: planned, repaired, persisted one at a time in order.
	chapterList := c.chapters.Plan(ctx, series, episode, rawSegments, speakerMap)
	for _, ch := range chapterList {
		if err := c.metadata.PutChapter(ctx, ch); err != nil {
			return nil, c.fail(ctx, episodeID, fmt.Errorf("persist chapter %s: %w", ch.ID, err))
		}
	}

	// Segments: planned per chapter, persisted individually.
	segmentList := c.segments.Plan(ctx, series, episode, rawSegments, chapterList, speakerMap)
	for _, sg := range segmentList {
		if err := c.metadata.PutSegment(ctx, sg); err != nil {
			return nil, c.fail(ctx, episodeID, fmt.Errorf("persist segment %s: %w", sg.ID, err))
		}
	}

	// Chunk and ingest. A failure inside one segment's submission is
	// logged and the loop moves on; partial ingestion is an accepted
	// terminal state.
	var ingestionIDs []string
	chunkCount := 0
	for _, sg := range segmentList {
		if !sg.Ingestible() {
			continue
		}
		chunks := c.chunker.BuildChunks(ctx, series, episode, sg, rawSegments, names)
		ids, err := c.submitChunks(ctx, series, episode, sg, rawSegments, chunks)
		if err != nil {
			c.logger.Error("chunk submission failed, skipping segment",
				zap.String("episode_id", episodeID),
				zap.String("segment_id", sg.ID.String()),
				zap.Error(err),
			)
			continue
		}
		chunkCount += len(chunks)
		ingestionIDs = append(ingestionIDs, ids...)
	}

	if err := c.metadata.PutEpisodeStatus(ctx, episodeID, entities.EpisodeStatus{
		Status:       entities.ProcessingStatusProcessed,
		IngestionIDs: ingestionIDs,
	}); err != nil {
		return nil, c.fail(ctx, episodeID, fmt.Errorf("persist episode status: %w", err))
	}

	c.logger.Info("episode processed",
		zap.String("episode_id", episodeID),
		zap.Int("chapters", len(chapterList)),
		zap.Int("segments", len(segmentList)),
		zap.Int("chunks", chunkCount),
		zap.Int("ingestion_ids", len(ingestionIDs)),
	)

	return &Result{
		EpisodeID:    episodeID,
		DurationSec:  durationSec,
		SpeakerCount: len(speakerMap),
		ChapterCount: len(chapterList),
		SegmentCount: len(segmentList),
		ChunkCount:   chunkCount,
		IngestionIDs: ingestionIDs,
	}, nil
}

// submitChunks sends every chunk of one segment to the knowledge graph and
// returns the collected ingestion IDs. The first error abandons the
// segment's remaining chunks.
func (c *Coordinator) submitChunks(ctx context.Context, series *entities.Series, episode *entities.Episode, sg *entities.Segment, rawSegments []entities.TranscriptSegment, chunks []entities.Chunk) ([]string, error) {
	overlapping := overlappingSegments(rawSegments, sg.StartSec, sg.EndSec)
	stripped := make([]entities.TranscriptSegment, len(overlapping))
	for i, seg := range overlapping {
		seg.Items = nil // word-level detail never crosses the wire
		stripped[i] = seg
	}

	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if i > 0 && c.submitDelay > 0 {
			c.sleep(c.submitDelay)
		}
		id, err := c.graph.Submit(ctx, chunk.Text, entities.IngestMetadata{
			SeriesID:    series.ID,
			EpisodeID:   episode.ID,
			SegmentID:   sg.ID,
			SegmentType: sg.Type,
			ChapterID:   sg.ChapterID,
			StartSec:    sg.StartSec,
			EndSec:      sg.EndSec,
			ChunkIndex:  chunk.Index,
			ChunkTotal:  chunk.Total,
			Segments:    stripped,
		})
		if err != nil {
			return nil, apperrors.ErrIngestionFailed(sg.ID.String(), err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// skipIfMissing recognizes the upstream-missing errors that skip an
// episode without any persistence mutation.
func (c *Coordinator) skipIfMissing(episodeID, what string, err error) (bool, *Result) {
	if errors.Is(err, entities.ErrEpisodeNotFound) ||
		errors.Is(err, entities.ErrSeriesNotFound) ||
		errors.Is(err, entities.ErrTranscriptNotFound) {
		c.logger.Warn("upstream data missing, skipping episode",
			zap.String("episode_id", episodeID),
			zap.String("missing", what),
		)
		return true, &Result{
			EpisodeID:  episodeID,
			Skipped:    true,
			SkipReason: fmt.Sprintf("%s missing: %v", what, err),
		}
	}
	return false, nil
}

// fail marks the episode failed in Narrows (best effort) and returns the
// original error for the caller's queueing layer to retry.
func (c *Coordinator) fail(ctx context.Context, episodeID string, cause error) error {
	if err := c.metadata.PutEpisodeStatus(ctx, episodeID, entities.EpisodeStatus{
		Status: entities.ProcessingStatusFailed,
		Error:  cause.Error(),
	}); err != nil {
		c.logger.Error("failed to persist failure status",
			zap.String("episode_id", episodeID),
			zap.Error(err),
		)
	}
	return apperrors.ErrPipelineFailed(episodeID, cause)
}
