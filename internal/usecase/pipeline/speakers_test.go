package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

func speakerSegments() []entities.TranscriptSegment {
	return []entities.TranscriptSegment{
		seg("spk_0", 0, 5, "Welcome to the show, I'm your host."),
		seg("spk_1", 5, 10, "Thanks, great to be here."),
		seg("spk_0", 10, 15, "Let's dive in."),
	}
}

func TestResolveParsesServiceResponse(t *testing.T) {
	llm := &fakeCompleter{responses: []string{
		`{"speakers":[
			{"label":"spk_0","name":"Ana Ruiz","role":"host"},
			{"label":"spk_1","name":"Ben Ito","role":"guest"}
		]}`,
	}}
	r := NewSpeakerResolver(llm, zap.NewNop())

	got := r.Resolve(context.Background(), testSeries(), testEpisode(), speakerSegments())

	require.Len(t, got, 2)
	assert.Equal(t, entities.SpeakerInfo{Name: "Ana Ruiz", Role: entities.SpeakerRoleHost}, got["spk_0"])
	assert.Equal(t, entities.SpeakerInfo{Name: "Ben Ito", Role: entities.SpeakerRoleGuest}, got["spk_1"])
}

func TestResolveIgnoresUnknownLabelsAndBackfills(t *testing.T) {
	llm := &fakeCompleter{responses: []string{
		`{"speakers":[
			{"label":"spk_0","name":"Ana Ruiz","role":"host"},
			{"label":"spk_9","name":"Ghost","role":"guest"}
		]}`,
	}}
	r := NewSpeakerResolver(llm, zap.NewNop())

	got := r.Resolve(context.Background(), testSeries(), testEpisode(), speakerSegments())

	require.Len(t, got, 2)
	_, hasGhost := got["spk_9"]
	assert.False(t, hasGhost)
	// spk_1 was omitted by the service and gets a placeholder.
	assert.Equal(t, entities.SpeakerInfo{Name: "Speaker 1", Role: entities.SpeakerRoleUnknown}, got["spk_1"])
}

func TestResolveFallbackOnServiceError(t *testing.T) {
	llm := &fakeCompleter{err: fmt.Errorf("service down")}
	r := NewSpeakerResolver(llm, zap.NewNop())

	got := r.Resolve(context.Background(), testSeries(), testEpisode(), speakerSegments())

	require.Len(t, got, 2)
	assert.Equal(t, entities.SpeakerInfo{Name: "Host", Role: entities.SpeakerRoleHost}, got["spk_0"])
	assert.Equal(t, entities.SpeakerInfo{Name: "Speaker 1", Role: entities.SpeakerRoleUnknown}, got["spk_1"])
}

func TestResolveFallbackOnUnparsableContent(t *testing.T) {
	llm := &fakeCompleter{responses: []string{"I could not decide."}}
	r := NewSpeakerResolver(llm, zap.NewNop())

	got := r.Resolve(context.Background(), testSeries(), testEpisode(), speakerSegments())

	require.Len(t, got, 2)
	assert.Equal(t, entities.SpeakerRoleHost, got["spk_0"].Role)
}

func TestResolveEmptyTranscript(t *testing.T) {
	llm := &fakeCompleter{}
	r := NewSpeakerResolver(llm, zap.NewNop())

	got := r.Resolve(context.Background(), testSeries(), testEpisode(), nil)
	assert.Empty(t, got)
	assert.Zero(t, llm.calls)
}

func TestCollectSpeakerSamplesCapsAndOrders(t *testing.T) {
	var segments []entities.TranscriptSegment
	for i := 0; i < 8; i++ {
		segments = append(segments, seg("spk_1", float64(i), float64(i+1), fmt.Sprintf("line %d", i)))
	}
	segments = append(segments, seg("spk_0", 9, 10, "late host"))

	samples, order := collectSpeakerSamples(segments)

	assert.Equal(t, []string{"spk_1", "spk_0"}, order)
	assert.Len(t, samples["spk_1"], maxSpeakerSamples)
	assert.Len(t, samples["spk_0"], 1)
}

func TestPlaceholderName(t *testing.T) {
	assert.Equal(t, "Speaker 3", placeholderName("spk_3"))
	assert.Equal(t, "Speaker 12", placeholderName("speaker12"))
	assert.Equal(t, "Speaker narrator", placeholderName("narrator"))
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, entities.SpeakerRoleHost, normalizeRole("host"))
	assert.Equal(t, entities.SpeakerRoleGuest, normalizeRole("guest"))
	assert.Equal(t, entities.SpeakerRoleUnknown, normalizeRole("moderator"))
	assert.Equal(t, entities.SpeakerRoleUnknown, normalizeRole(""))
}
