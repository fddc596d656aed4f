package pipeline

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

// DefaultBlockCharBudget bounds the formatted text of one normalized block.
const DefaultBlockCharBudget = 4000

// GroupBlocks groups consecutive ASR segments into speaker-homogeneous
// blocks. A new block starts whenever the speaker changes or appending the
// next formatted line would push the block past charBudget. Segments are
// never split: a single oversized segment occupies a block of its own,
// untruncated. names optionally maps speaker labels to resolved names for
// the line prefix; pass nil to keep raw labels.
func GroupBlocks(segments []entities.TranscriptSegment, charBudget int, names map[string]string) []entities.TranscriptBlock {
	if charBudget <= 0 {
		charBudget = DefaultBlockCharBudget
	}

	var blocks []entities.TranscriptBlock
	for _, seg := range segments {
		line := fmt.Sprintf("%s: %s", speakerName(names, seg.SpeakerLabel), seg.Transcript)

		n := len(blocks)
		if n > 0 {
			cur := &blocks[n-1]
			if cur.SpeakerLabel == seg.SpeakerLabel && len(cur.Text)+1+len(line) <= charBudget {
				cur.Text += "\n" + line
				cur.EndSec = float64(seg.EndSec)
				continue
			}
		}

		blocks = append(blocks, entities.TranscriptBlock{
			SpeakerLabel: seg.SpeakerLabel,
			StartSec:     float64(seg.StartSec),
			EndSec:       float64(seg.EndSec),
			Text:         line,
		})
	}
	return blocks
}

// speakerName resolves a label through the optional name map.
func speakerName(names map[string]string, label string) string {
	if names != nil {
		if name, ok := names[label]; ok && name != "" {
			return name
		}
	}
	return label
}

// speakerNames flattens a resolved speaker map to label → display name.
func speakerNames(speakers map[string]entities.SpeakerInfo) map[string]string {
	if speakers == nil {
		return nil
	}
	names := make(map[string]string, len(speakers))
	for label, info := range speakers {
		names[label] = info.Name
	}
	return names
}

// truncateText cuts s to at most max bytes, appending an ellipsis marker
// when something was dropped. The cut never splits a multi-byte rune.
func truncateText(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:runeBoundary(s, max)]) + "…"
}

// runeBoundary backs cut off to the nearest rune start so byte slicing
// at the returned offset yields valid UTF-8.
func runeBoundary(s string, cut int) int {
	for cut > 0 && cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return cut
}

// overlappingSegments returns the raw segments whose time range intersects
// [startSec, endSec).
func overlappingSegments(segments []entities.TranscriptSegment, startSec, endSec float64) []entities.TranscriptSegment {
	var out []entities.TranscriptSegment
	for _, seg := range segments {
		if float64(seg.StartSec) < endSec && float64(seg.EndSec) > startSec {
			out = append(out, seg)
		}
	}
	return out
}

// containedSegments returns the raw segments whose time range falls fully
// within [startSec, endSec].
func containedSegments(segments []entities.TranscriptSegment, startSec, endSec float64) []entities.TranscriptSegment {
	var out []entities.TranscriptSegment
	for _, seg := range segments {
		if float64(seg.StartSec) >= startSec && float64(seg.EndSec) <= endSec {
			out = append(out, seg)
		}
	}
	return out
}

// renderBlocks joins normalized blocks back into one newline-separated
// speaker-annotated text.
func renderBlocks(blocks []entities.TranscriptBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n")
}

// renderSpeakerText renders segments as newline-joined "{name}: {text}"
// lines.
func renderSpeakerText(segments []entities.TranscriptSegment, names map[string]string) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, fmt.Sprintf("%s: %s", speakerName(names, seg.SpeakerLabel), seg.Transcript))
	}
	return strings.Join(lines, "\n")
}

// renderPlainText renders segments as plain newline-joined transcript text
// with no speaker attribution.
func renderPlainText(segments []entities.TranscriptSegment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, seg.Transcript)
	}
	return strings.Join(lines, "\n")
}

// episodeDuration returns the end of the last segment.
func episodeDuration(segments []entities.TranscriptSegment) float64 {
	var max float64
	for _, seg := range segments {
		if float64(seg.EndSec) > max {
			max = float64(seg.EndSec)
		}
	}
	return max
}
