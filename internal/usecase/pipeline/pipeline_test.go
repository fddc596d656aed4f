package pipeline

import (
	"context"
	"fmt"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

// fakeCompleter returns canned responses in order, or a fixed error.
type fakeCompleter struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeCompleter) Complete(_ context.Context, _, userPrompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", fmt.Errorf("no canned response left")
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func seg(label string, start, end float64, text string) entities.TranscriptSegment {
	return entities.TranscriptSegment{
		StartSec:     entities.Seconds(start),
		EndSec:       entities.Seconds(end),
		Transcript:   text,
		SpeakerLabel: label,
	}
}

func testSeries() *entities.Series {
	return &entities.Series{ID: "ser_1", Title: "Deep Currents"}
}

func testEpisode() *entities.Episode {
	return &entities.Episode{
		ID:           "ep_1",
		SeriesID:     "ser_1",
		Title:        "Tides and Time",
		AudioMediaID: "med_1",
	}
}
