package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

func TestTargetSegmentCount(t *testing.T) {
	assert.Equal(t, 20, targetSegmentCount(600))   // 10 min rounds below the floor
	assert.Equal(t, 40, targetSegmentCount(3600))  // one hour
	assert.Equal(t, 60, targetSegmentCount(14400)) // four hours hits the ceiling
}

func TestChapterSegmentTargetProportionalShares(t *testing.T) {
	// A one-hour episode targets 40 segments. Chapters of 10, 20 and 30
	// minutes get independent rounded shares; no renormalization.
	total := targetSegmentCount(3600)
	require.Equal(t, 40, total)

	assert.Equal(t, 7, chapterSegmentTarget(600, 3600, total))
	assert.Equal(t, 13, chapterSegmentTarget(1200, 3600, total))
	assert.Equal(t, 20, chapterSegmentTarget(1800, 3600, total))
}

func TestChapterSegmentTargetMinimumOne(t *testing.T) {
	assert.Equal(t, 1, chapterSegmentTarget(5, 3600, 40))
}

func TestPlanFailedChapterContributesNothing(t *testing.T) {
	// First chapter's call succeeds, second fails; the second chapter
	// contributes zero segments and planning continues.
	llm := &fakeCompleter{responses: []string{
		`{"segments":[{"type":"analysis","start_sec":10,"end_sec":50,"lucidity":3,"polarity":1,"arousal":2,"subjectivity":2,"humor":0}]}`,
		`this is not json`,
	}}
	p := NewSegmentPlanner(llm, time.Millisecond, zap.NewNop())
	p.sleep = func(time.Duration) {}

	segments := []entities.TranscriptSegment{
		seg("spk_0", 0, 100, "first half"),
		seg("spk_0", 100, 200, "second half"),
	}
	chapters := []*entities.Chapter{
		chapterOf(0, 100),
		chapterOf(100, 200),
	}

	got := p.Plan(context.Background(), testSeries(), testEpisode(), segments, chapters, nil)

	require.Len(t, got, 1)
	assert.Equal(t, entities.SegmentTypeAnalysis, got[0].Type)
	require.NotNil(t, got[0].ChapterID)
	assert.Equal(t, chapters[0].ID, *got[0].ChapterID)
	assert.Equal(t, 2, llm.calls)
}

func TestPlanClampsProposalsIntoChapterBounds(t *testing.T) {
	llm := &fakeCompleter{responses: []string{
		`{"segments":[{"type":"summary","start_sec":-20,"end_sec":500,"lucidity":9,"polarity":-12,"arousal":2,"subjectivity":6,"humor":1}]}`,
	}}
	p := NewSegmentPlanner(llm, time.Millisecond, zap.NewNop())
	p.sleep = func(time.Duration) {}

	segments := []entities.TranscriptSegment{seg("spk_0", 0, 200, "talk")}
	chapters := []*entities.Chapter{chapterOf(50, 150)}

	got := p.Plan(context.Background(), testSeries(), testEpisode(), segments, chapters, nil)

	require.Len(t, got, 1)
	assert.Equal(t, 50.0, got[0].StartSec)
	assert.Equal(t, 150.0, got[0].EndSec)
	assert.Equal(t, 5.0, got[0].Metrics.Lucidity)
	assert.Equal(t, -5.0, got[0].Metrics.Polarity)
	assert.Equal(t, 5.0, got[0].Metrics.Subjectivity)
}

func TestPlanBindsContainedExcerpt(t *testing.T) {
	llm := &fakeCompleter{responses: []string{
		`{"segments":[{"type":"analysis","start_sec":0,"end_sec":100,"lucidity":3,"polarity":0,"arousal":2,"subjectivity":2,"humor":0}]}`,
	}}
	p := NewSegmentPlanner(llm, time.Millisecond, zap.NewNop())
	p.sleep = func(time.Duration) {}

	segments := []entities.TranscriptSegment{
		seg("spk_0", 10, 40, "inside"),
		seg("spk_0", 90, 110, "straddles the end"),
	}
	chapters := []*entities.Chapter{chapterOf(0, 110)}

	got := p.Plan(context.Background(), testSeries(), testEpisode(), segments, chapters, map[string]entities.SpeakerInfo{
		"spk_0": {Name: "Ana", Role: entities.SpeakerRoleHost},
	})

	require.Len(t, got, 1)
	require.NotNil(t, got[0].TranscriptExcerpt)
	assert.Equal(t, "Ana: inside", got[0].TranscriptExcerpt.Content)
}

func TestPlanSleepsBetweenChapters(t *testing.T) {
	llm := &fakeCompleter{responses: []string{
		`{"segments":[]}`,
		`{"segments":[]}`,
		`{"segments":[]}`,
	}}
	p := NewSegmentPlanner(llm, 5*time.Millisecond, zap.NewNop())
	var slept []time.Duration
	p.sleep = func(d time.Duration) { slept = append(slept, d) }

	segments := []entities.TranscriptSegment{seg("spk_0", 0, 300, "talk")}
	chapters := []*entities.Chapter{
		chapterOf(0, 100),
		chapterOf(100, 200),
		chapterOf(200, 300),
	}

	p.Plan(context.Background(), testSeries(), testEpisode(), segments, chapters, nil)

	// No sleep before the first chapter.
	require.Len(t, slept, 2)
	assert.Equal(t, 5*time.Millisecond, slept[0])
}

func TestPlanEmptyInputs(t *testing.T) {
	llm := &fakeCompleter{}
	p := NewSegmentPlanner(llm, time.Millisecond, zap.NewNop())

	assert.Nil(t, p.Plan(context.Background(), testSeries(), testEpisode(), nil, []*entities.Chapter{chapterOf(0, 10)}, nil))
	assert.Nil(t, p.Plan(context.Background(), testSeries(), testEpisode(), []entities.TranscriptSegment{seg("spk_0", 0, 10, "x")}, nil, nil))
	assert.Zero(t, llm.calls)
}

func TestBuildChapterTranscriptFiltersByStart(t *testing.T) {
	segments := []entities.TranscriptSegment{
		seg("spk_0", 0, 10, "before"),
		seg("spk_0", 50, 60, "inside"),
		seg("spk_0", 150, 160, "after"),
	}
	ch := chapterOf(40, 150)

	got := buildChapterTranscript(segments, ch, map[string]string{"spk_0": "Ana"})

	assert.Equal(t, "[50s] Ana: inside", got)
}

func TestNormalizeSegmentType(t *testing.T) {
	assert.Equal(t, entities.SegmentTypeAnalysis, normalizeSegmentType("analysis"))
	assert.Equal(t, entities.SegmentTypeSoundOnly, normalizeSegmentType("sound-only"))
	assert.Equal(t, entities.SegmentTypeOther, normalizeSegmentType("banter"))
	assert.Equal(t, entities.SegmentTypeOther, normalizeSegmentType(fmt.Sprintf("%s!", entities.SegmentTypeSummary)))
}
