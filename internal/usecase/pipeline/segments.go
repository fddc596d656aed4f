package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/narrowsfm/podgraph/errors"
	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

const (
	minSegmentCount       = 20
	maxSegmentCount       = 60
	segmentsPerHour       = 40
	chapterTranscriptMax  = 6000 // chars sent per chapter
	defaultChapterDelayMs = 200
)

// SegmentPlanner asks the generation service for content segments chapter
// by chapter. Allocation is proportional per chapter and deliberately not
// renormalized; a chapter whose call fails contributes no segments at all.
// Chapters are structural, segments are supplementary detail.
type SegmentPlanner struct {
	llm    Completer
	logger *zap.Logger
	delay  time.Duration
	sleep  func(time.Duration)
}

// NewSegmentPlanner creates a segment planner. delay spaces consecutive
// per-chapter generation calls for rate-limit courtesy.
func NewSegmentPlanner(llm Completer, delay time.Duration, logger *zap.Logger) *SegmentPlanner {
	if delay <= 0 {
		delay = defaultChapterDelayMs * time.Millisecond
	}
	return &SegmentPlanner{
		llm:    llm,
		logger: logger,
		delay:  delay,
		sleep:  time.Sleep,
	}
}

type segmentProposal struct {
	Type         string  `json:"type"`
	StartSec     float64 `json:"start_sec"`
	EndSec       float64 `json:"end_sec"`
	Lucidity     float64 `json:"lucidity"`
	Polarity     float64 `json:"polarity"`
	Arousal      float64 `json:"arousal"`
	Subjectivity float64 `json:"subjectivity"`
	Humor        float64 `json:"humor"`
}

type segmentResponse struct {
	Segments []segmentProposal `json:"segments"`
}

// Plan produces segments for every chapter in order.
func (p *SegmentPlanner) Plan(ctx context.Context, series *entities.Series, episode *entities.Episode, segments []entities.TranscriptSegment, chapters []*entities.Chapter, speakers map[string]entities.SpeakerInfo) []*entities.Segment {
	durationSec := episodeDuration(segments)
	if durationSec <= 0 || len(chapters) == 0 {
		return nil
	}
	total := targetSegmentCount(durationSec)
	names := speakerNames(speakers)

	var out []*entities.Segment
	for i, ch := range chapters {
		if i > 0 {
			p.sleep(p.delay)
		}

		target := chapterSegmentTarget(ch.DurationSec(), durationSec, total)
		transcript := buildChapterTranscript(segments, ch, names)

		proposals, err := p.propose(ctx, series, episode, ch, transcript, target)
		if err != nil {
			// No fallback synthesis here: the chapter simply contributes
			// zero segments.
			p.logger.Warn("segment identification failed for chapter",
				zap.String("episode_id", episode.ID),
				zap.String("chapter_id", ch.ID.String()),
				zap.Error(err),
			)
			continue
		}

		for _, pr := range proposals {
			sg := p.bind(episode.ID, ch, pr, segments, names)
			out = append(out, sg)
		}
	}
	return out
}

func (p *SegmentPlanner) propose(ctx context.Context, series *entities.Series, episode *entities.Episode, ch *entities.Chapter, transcript string, target int) ([]segmentProposal, error) {
	content, err := p.llm.Complete(ctx, segmentSystemPrompt, buildSegmentUserPrompt(series, episode, ch, transcript, target))
	if err != nil {
		return nil, apperrors.ErrGenerationFailed("segment planning", err)
	}
	var resp segmentResponse
	if err := parseJSONResponse(content, &resp); err != nil {
		return nil, apperrors.ErrGenerationFailed("segment planning", err)
	}
	return resp.Segments, nil
}

// bind clamps a proposal into its chapter's bounds, attaches the chapter
// reference and binds the transcript excerpt.
func (p *SegmentPlanner) bind(episodeID string, ch *entities.Chapter, pr segmentProposal, segments []entities.TranscriptSegment, names map[string]string) *entities.Segment {
	startSec := math.Max(ch.StartSec, pr.StartSec)
	endSec := math.Min(ch.EndSec, pr.EndSec)

	sg := entities.NewSegment(episodeID, normalizeSegmentType(pr.Type), startSec, endSec)
	chapterID := ch.ID
	sg.ChapterID = &chapterID
	sg.Metrics = entities.SegmentMetrics{
		Lucidity:     clampFloat(pr.Lucidity, 0, 5),
		Polarity:     clampFloat(pr.Polarity, -5, 5),
		Arousal:      clampFloat(pr.Arousal, 0, 5),
		Subjectivity: clampFloat(pr.Subjectivity, 0, 5),
		Humor:        clampFloat(pr.Humor, 0, 5),
	}

	if contained := containedSegments(segments, startSec, endSec); len(contained) > 0 {
		sg.TranscriptExcerpt = &entities.TranscriptExcerpt{
			Content: renderSpeakerText(contained, names),
		}
	}
	return sg
}

// targetSegmentCount derives the episode-wide segment target from
// duration: forty per hour, clamped to [20, 60].
func targetSegmentCount(durationSec float64) int {
	hours := durationSec / 3600
	return clampInt(int(math.Round(hours*segmentsPerHour)), minSegmentCount, maxSegmentCount)
}

// chapterSegmentTarget is the proportional share of the episode target for
// one chapter. Shares are independent; their sum may drift from the
// episode target and that drift is accepted.
func chapterSegmentTarget(chapterDurationSec, episodeDurationSec float64, total int) int {
	share := int(math.Round(chapterDurationSec / episodeDurationSec * float64(total)))
	if share < 1 {
		return 1
	}
	return share
}

// buildChapterTranscript renders the chapter's transcript view: segments
// whose start falls inside [chapter start, chapter end), timestamped and
// speaker-attributed, truncated to chapterTranscriptMax chars.
func buildChapterTranscript(segments []entities.TranscriptSegment, ch *entities.Chapter, names map[string]string) string {
	var lines []string
	for _, seg := range segments {
		start := float64(seg.StartSec)
		if start < ch.StartSec || start >= ch.EndSec {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%.0fs] %s: %s", start, speakerName(names, seg.SpeakerLabel), seg.Transcript))
	}
	return truncateText(strings.Join(lines, "\n"), chapterTranscriptMax)
}

// normalizeSegmentType maps free-form type text onto the segment enum.
func normalizeSegmentType(t string) entities.SegmentType {
	switch entities.SegmentType(t) {
	case entities.SegmentTypeShowIntro,
		entities.SegmentTypeEpisodeIntro,
		entities.SegmentTypeGuestIntro,
		entities.SegmentTypeCredits,
		entities.SegmentTypePromotion,
		entities.SegmentTypeSummary,
		entities.SegmentTypeAnalysis,
		entities.SegmentTypeConclusion,
		entities.SegmentTypeSoundOnly:
		return entities.SegmentType(t)
	}
	return entities.SegmentTypeOther
}
