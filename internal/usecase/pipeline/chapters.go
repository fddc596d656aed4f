package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/narrowsfm/podgraph/errors"
	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

const (
	minChapterCount    = 5
	maxChapterCount    = 15
	chapterMinutesPer  = 4
	minChapterDuration = 10.0 // seconds; shorter chapters are dropped after repair
	timelineWindowSec  = 30.0
	timelineWindowMax  = 300 // chars of text per condensed window
)

// ChapterPlanner asks the generation service for chapter boundaries over a
// condensed timeline and repairs whatever comes back into a sorted,
// gap-free timeline covering [0, duration].
type ChapterPlanner struct {
	llm    Completer
	logger *zap.Logger
}

// NewChapterPlanner creates a chapter planner.
func NewChapterPlanner(llm Completer, logger *zap.Logger) *ChapterPlanner {
	return &ChapterPlanner{llm: llm, logger: logger}
}

type chapterProposal struct {
	Type     string  `json:"type"`
	Title    string  `json:"title"`
	Summary  string  `json:"summary"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
}

type chapterResponse struct {
	Chapters []chapterProposal `json:"chapters"`
}

// Plan produces the repaired chapter set for an episode. It never fails:
// if the generation service is unusable the three default chapters are
// synthesized instead.
func (p *ChapterPlanner) Plan(ctx context.Context, series *entities.Series, episode *entities.Episode, segments []entities.TranscriptSegment, speakers map[string]entities.SpeakerInfo) []*entities.Chapter {
	durationSec := episodeDuration(segments)
	target := targetChapterCount(durationSec)
	timeline := buildCondensedTimeline(segments, speakerNames(speakers))

	proposals, err := p.propose(ctx, series, episode, speakers, timeline, target, durationSec)
	if err != nil || len(proposals) == 0 {
		p.logger.Warn("chapter identification failed, synthesizing default chapters",
			zap.String("episode_id", episode.ID),
			zap.Float64("duration_sec", durationSec),
			zap.Error(err),
		)
		return defaultChapters(episode.ID, durationSec)
	}

	chapters := make([]*entities.Chapter, 0, len(proposals))
	for _, pr := range proposals {
		chapters = append(chapters, entities.NewChapter(
			episode.ID,
			normalizeChapterType(pr.Type),
			pr.Title,
			pr.Summary,
			pr.StartSec,
			pr.EndSec,
		))
	}
	return repairChapters(chapters, durationSec)
}

func (p *ChapterPlanner) propose(ctx context.Context, series *entities.Series, episode *entities.Episode, speakers map[string]entities.SpeakerInfo, timeline string, target int, durationSec float64) ([]chapterProposal, error) {
	content, err := p.llm.Complete(ctx, chapterSystemPrompt, buildChapterUserPrompt(series, episode, speakers, timeline, target, durationSec))
	if err != nil {
		return nil, apperrors.ErrGenerationFailed("chapter planning", err)
	}
	var resp chapterResponse
	if err := parseJSONResponse(content, &resp); err != nil {
		return nil, apperrors.ErrGenerationFailed("chapter planning", err)
	}
	return resp.Chapters, nil
}

// targetChapterCount derives the requested chapter count from episode
// duration: one chapter per four minutes, clamped to [5, 15].
func targetChapterCount(durationSec float64) int {
	minutes := durationSec / 60
	return clampInt(int(math.Round(minutes/chapterMinutesPer)), minChapterCount, maxChapterCount)
}

// buildCondensedTimeline buckets segments into fixed 30-second windows and
// renders each window's speaker-attributed text truncated to 300 chars.
// The condensed form, not the raw transcript, is what the generation
// service sees.
func buildCondensedTimeline(segments []entities.TranscriptSegment, names map[string]string) string {
	type window struct {
		index int
		parts []string
	}
	byIndex := make(map[int]*window)
	var order []int

	for _, seg := range segments {
		idx := int(float64(seg.StartSec) / timelineWindowSec)
		w, ok := byIndex[idx]
		if !ok {
			w = &window{index: idx}
			byIndex[idx] = w
			order = append(order, idx)
		}
		w.parts = append(w.parts, fmt.Sprintf("%s: %s", speakerName(names, seg.SpeakerLabel), seg.Transcript))
	}
	sort.Ints(order)

	var b strings.Builder
	for _, idx := range order {
		w := byIndex[idx]
		startSec := float64(idx) * timelineWindowSec
		text := truncateText(strings.Join(w.parts, " | "), timelineWindowMax)
		fmt.Fprintf(&b, "[%.0fs-%.0fs] %s\n", startSec, startSec+timelineWindowSec, text)
	}
	return b.String()
}

// repairChapters forces the proposed chapter set into the timeline
// invariants: sorted by start, first starts at 0, last ends at duration,
// each chapter starts exactly where the previous one ends, and nothing
// shorter than 10 seconds survives.
func repairChapters(chapters []*entities.Chapter, durationSec float64) []*entities.Chapter {
	if len(chapters) == 0 {
		return chapters
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].StartSec < chapters[j].StartSec
	})

	chapters[0].StartSec = 0
	chapters[len(chapters)-1].EndSec = durationSec

	for i := 1; i < len(chapters); i++ {
		chapters[i].StartSec = chapters[i-1].EndSec
		if chapters[i].EndSec < chapters[i].StartSec {
			// Proposed end is behind the forced start; collapse the
			// chapter so the minimum-duration rule removes it.
			chapters[i].EndSec = chapters[i].StartSec
		}
	}

	kept := chapters[:0]
	for _, ch := range chapters {
		if ch.DurationSec() >= minChapterDuration {
			kept = append(kept, ch)
		}
	}
	return kept
}

// defaultChapters synthesizes the three-chapter fallback: an introduction,
// the main content, and a closing credits chapter.
func defaultChapters(episodeID string, durationSec float64) []*entities.Chapter {
	introEnd := math.Min(60, durationSec*0.1)
	closingStart := math.Max(durationSec-60, durationSec*0.9)

	return []*entities.Chapter{
		entities.NewChapter(episodeID, entities.ChapterTypeIntroduction, "Introduction", "", 0, introEnd),
		entities.NewChapter(episodeID, entities.ChapterTypeSection, "Main content", "", introEnd, closingStart),
		entities.NewChapter(episodeID, entities.ChapterTypeCredits, "Closing", "", closingStart, durationSec),
	}
}

// normalizeChapterType maps free-form type text onto the chapter enum.
func normalizeChapterType(t string) entities.ChapterType {
	switch entities.ChapterType(t) {
	case entities.ChapterTypeIntroduction,
		entities.ChapterTypeCredits,
		entities.ChapterTypePromotion,
		entities.ChapterTypeSection:
		return entities.ChapterType(t)
	}
	return entities.ChapterTypeOther
}
