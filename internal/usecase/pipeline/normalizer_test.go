package pipeline

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

func TestGroupBlocksSpeakerChangeStartsNewBlock(t *testing.T) {
	segments := []entities.TranscriptSegment{
		seg("spk_0", 0, 5, "hello there"),
		seg("spk_0", 5, 10, "welcome back"),
		seg("spk_1", 10, 15, "thanks for having me"),
		seg("spk_0", 15, 20, "of course"),
	}

	blocks := GroupBlocks(segments, 4000, nil)

	require.Len(t, blocks, 3)
	assert.Equal(t, "spk_0", blocks[0].SpeakerLabel)
	assert.Equal(t, "spk_1", blocks[1].SpeakerLabel)
	assert.Equal(t, "spk_0", blocks[2].SpeakerLabel)

	assert.Equal(t, 0.0, blocks[0].StartSec)
	assert.Equal(t, 10.0, blocks[0].EndSec)
	assert.Equal(t, "spk_0: hello there\nspk_0: welcome back", blocks[0].Text)
}

func TestGroupBlocksRespectsCharBudget(t *testing.T) {
	long := strings.Repeat("a", 50)
	segments := []entities.TranscriptSegment{
		seg("spk_0", 0, 5, long),
		seg("spk_0", 5, 10, long),
		seg("spk_0", 10, 15, long),
	}

	// Each line is "spk_0: " + 50 chars = 57. Two lines plus the joining
	// newline is 115, so a budget of 120 holds exactly two lines.
	blocks := GroupBlocks(segments, 120, nil)

	require.Len(t, blocks, 2)
	assert.LessOrEqual(t, len(blocks[0].Text), 120)
	assert.Equal(t, 0.0, blocks[0].StartSec)
	assert.Equal(t, 10.0, blocks[0].EndSec)
	assert.Equal(t, 10.0, blocks[1].StartSec)
}

func TestGroupBlocksOversizedSegmentKeptWhole(t *testing.T) {
	huge := strings.Repeat("b", 500)
	segments := []entities.TranscriptSegment{
		seg("spk_0", 0, 5, "short"),
		seg("spk_0", 5, 30, huge),
	}

	blocks := GroupBlocks(segments, 100, nil)

	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[1].Text, huge)
}

func TestGroupBlocksUsesResolvedNames(t *testing.T) {
	segments := []entities.TranscriptSegment{
		seg("spk_0", 0, 5, "hi"),
	}
	names := map[string]string{"spk_0": "Ana"}

	blocks := GroupBlocks(segments, 4000, names)

	require.Len(t, blocks, 1)
	assert.Equal(t, "Ana: hi", blocks[0].Text)
}

func TestGroupBlocksEmptyInput(t *testing.T) {
	assert.Empty(t, GroupBlocks(nil, 4000, nil))
}

func TestOverlappingSegments(t *testing.T) {
	segments := []entities.TranscriptSegment{
		seg("spk_0", 0, 10, "a"),
		seg("spk_0", 10, 20, "b"),
		seg("spk_0", 20, 30, "c"),
	}

	got := overlappingSegments(segments, 5, 15)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Transcript)
	assert.Equal(t, "b", got[1].Transcript)

	assert.Empty(t, overlappingSegments(segments, 40, 50))
}

func TestContainedSegments(t *testing.T) {
	segments := []entities.TranscriptSegment{
		seg("spk_0", 0, 10, "a"),
		seg("spk_0", 10, 20, "b"),
		seg("spk_0", 20, 30, "c"),
	}

	got := containedSegments(segments, 5, 25)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Transcript)
}

func TestEpisodeDuration(t *testing.T) {
	segments := []entities.TranscriptSegment{
		seg("spk_0", 0, 10, "a"),
		seg("spk_1", 10, 42.5, "b"),
	}
	assert.Equal(t, 42.5, episodeDuration(segments))
	assert.Equal(t, 0.0, episodeDuration(nil))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 10))
	got := truncateText("abcdefghij", 5)
	assert.Equal(t, "abcde…", got)
}

func TestTruncateTextKeepsRuneBoundaries(t *testing.T) {
	// "é" is two bytes; an odd byte budget would land mid-rune.
	s := strings.Repeat("é", 100)

	out := truncateText(s, 101)

	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, "…"))
	assert.Equal(t, strings.Repeat("é", 50)+"…", out)
}

func TestTruncateTextShortInputUntouched(t *testing.T) {
	assert.Equal(t, "héllo", truncateText("héllo", 10))
}
