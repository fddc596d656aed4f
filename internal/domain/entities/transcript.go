package entities

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Seconds is a float64 that tolerates both JSON numbers and the quoted
// decimal strings the ASR export emits ("12.34").
type Seconds float64

// UnmarshalJSON implements json.Unmarshaler.
func (s *Seconds) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	if str == "" || str == "null" {
		*s = 0
		return nil
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return err
	}
	*s = Seconds(v)
	return nil
}

// TranscriptSegment is a single contiguous speech segment from the ASR
// output. Segments are immutable inputs; the pipeline never mutates them.
type TranscriptSegment struct {
	ID           string          `json:"id"`
	StartSec     Seconds         `json:"start_time"`
	EndSec       Seconds         `json:"end_time"`
	Transcript   string          `json:"transcript"`
	SpeakerLabel string          `json:"speaker_label"`
	Items        json.RawMessage `json:"items,omitempty"` // word-level detail, stripped before graph transmission
}

// TranscriptResult mirrors the ASR transcript document stored in object
// storage.
type TranscriptResult struct {
	Results struct {
		AudioSegments []TranscriptSegment `json:"audio_segments"`
	} `json:"results"`
}

// Segments returns the ordered segment list.
func (t *TranscriptResult) Segments() []TranscriptSegment {
	return t.Results.AudioSegments
}

// DurationSec returns the end time of the last segment, which the pipeline
// treats as the episode duration.
func (t *TranscriptResult) DurationSec() float64 {
	var max float64
	for _, seg := range t.Results.AudioSegments {
		if float64(seg.EndSec) > max {
			max = float64(seg.EndSec)
		}
	}
	return max
}

// TranscriptBlock is a speaker-homogeneous run of consecutive segments
// produced by the normalizer. Text is the newline-joined "{speaker}: {text}"
// rendering of its segments.
type TranscriptBlock struct {
	SpeakerLabel string
	StartSec     float64
	EndSec       float64
	Text         string
}
