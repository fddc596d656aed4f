package pipeline

import (
	"fmt"
	"strings"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

const speakerSystemPrompt = `You identify the speakers in a podcast episode from transcript samples.
For every speaker label you are given, guess the speaker's real name and their role.
Role must be one of: host, guest, unknown.
Respond with JSON only, in this shape:
{"speakers":[{"label":"spk_0","name":"Jane Doe","role":"host","reasoning":"..."}]}
Include exactly one entry per speaker label.`

func buildSpeakerUserPrompt(series *entities.Series, episode *entities.Episode, samples map[string][]string, order []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Series: %s\n", series.Title)
	if series.Description != "" {
		fmt.Fprintf(&b, "Series description: %s\n", series.Description)
	}
	fmt.Fprintf(&b, "Episode: %s\n", episode.Title)
	if episode.Description != "" {
		fmt.Fprintf(&b, "Episode description: %s\n", episode.Description)
	}
	b.WriteString("\nTranscript samples per speaker label:\n")
	for _, label := range order {
		fmt.Fprintf(&b, "\n%s:\n", label)
		for _, sample := range samples[label] {
			fmt.Fprintf(&b, "- %s\n", sample)
		}
	}
	return b.String()
}

const chapterSystemPrompt = `You divide a podcast episode into chapters from a condensed timeline.
Each chapter has a type (one of: introduction, credits, promotion, section, other),
a short title, a one or two sentence summary, and start/end times in seconds as numbers.
Chapters must cover the whole episode from 0 to the final timestamp with no gaps
and no overlaps, and no chapter may be shorter than 30 seconds.
Respond with JSON only:
{"chapters":[{"type":"introduction","title":"...","summary":"...","start_sec":0.0,"end_sec":60.0}]}`

func buildChapterUserPrompt(series *entities.Series, episode *entities.Episode, speakers map[string]entities.SpeakerInfo, timeline string, target int, durationSec float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Series: %s\n", series.Title)
	fmt.Fprintf(&b, "Episode: %s\n", episode.Title)
	if episode.Description != "" {
		fmt.Fprintf(&b, "Episode description: %s\n", episode.Description)
	}
	b.WriteString("Speakers:\n")
	for label, info := range speakers {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", label, info.Name, info.Role)
	}
	fmt.Fprintf(&b, "\nEpisode duration: %.1f seconds.\n", durationSec)
	fmt.Fprintf(&b, "Produce %d chapters, give or take 3, covering 0 to %.1f seconds.\n\n", target, durationSec)
	b.WriteString("Condensed timeline:\n")
	b.WriteString(timeline)
	return b.String()
}

const segmentSystemPrompt = `You divide one chapter of a podcast episode into content segments.
Each segment has a type (one of: show-intro, episode-intro, guest-intro, credits,
promotion, summary, analysis, conclusion, sound-only, other), start/end times in
seconds as numbers, and five content metrics scored from the transcript:
- lucidity: 0 (rambling) to 5 (crisp and clear)
- polarity: -5 (strongly negative) to 5 (strongly positive)
- arousal: 0 (calm) to 5 (heated or excited)
- subjectivity: 0 (factual) to 5 (pure opinion)
- humor: 0 (serious) to 5 (constant joking)
Segments may overlap by up to 10 seconds and need not cover the chapter fully.
Respond with JSON only:
{"segments":[{"type":"analysis","start_sec":120.0,"end_sec":240.0,"lucidity":4,"polarity":1,"arousal":2,"subjectivity":3,"humor":1}]}`

func buildSegmentUserPrompt(series *entities.Series, episode *entities.Episode, ch *entities.Chapter, transcript string, target int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Series: %s\n", series.Title)
	fmt.Fprintf(&b, "Episode: %s\n", episode.Title)
	fmt.Fprintf(&b, "Chapter: %s (%s), %.1f to %.1f seconds.\n", ch.Title, ch.Type, ch.StartSec, ch.EndSec)
	fmt.Fprintf(&b, "Produce about %d segments within the chapter bounds.\n\n", target)
	b.WriteString("Chapter transcript:\n")
	b.WriteString(transcript)
	return b.String()
}

const contextSystemPrompt = `You write a short context note for a piece of podcast transcript.
In 1 to 3 sentences, situate the excerpt: name the series and episode, what is
being discussed, and who is speaking if that is clear. The note is stored next
to the excerpt to improve retrieval, so keep it self-contained.
Respond with JSON only: {"context":"..."}`

func buildContextUserPrompt(series *entities.Series, episode *entities.Episode, sg *entities.Segment, plainText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Series: %s\n", series.Title)
	fmt.Fprintf(&b, "Episode: %s\n", episode.Title)
	fmt.Fprintf(&b, "Segment type: %s, %.0f to %.0f seconds.\n\n", sg.Type, sg.StartSec, sg.EndSec)
	b.WriteString("Excerpt:\n")
	b.WriteString(plainText)
	return b.String()
}
