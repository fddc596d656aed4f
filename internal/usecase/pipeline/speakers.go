package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

const (
	maxSpeakerSamples   = 5
	speakerSampleMaxLen = 200
	fallbackHostLabel   = "spk_0"
	fallbackHostName    = "Host"
	fallbackSpeakerStub = "Speaker"
)

// SpeakerResolver maps ASR speaker labels to names and roles using sampled
// transcript text. Resolve never fails: whatever the generation service
// does, every label seen in the input ends up with a well-typed entry.
type SpeakerResolver struct {
	llm    Completer
	logger *zap.Logger
}

// NewSpeakerResolver creates a speaker resolver.
func NewSpeakerResolver(llm Completer, logger *zap.Logger) *SpeakerResolver {
	return &SpeakerResolver{llm: llm, logger: logger}
}

type speakerGuess struct {
	Label     string `json:"label"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Reasoning string `json:"reasoning"` // requested for guess quality, then discarded
}

type speakerResponse struct {
	Speakers []speakerGuess `json:"speakers"`
}

// Resolve identifies every speaker label present in segments.
func (r *SpeakerResolver) Resolve(ctx context.Context, series *entities.Series, episode *entities.Episode, segments []entities.TranscriptSegment) map[string]entities.SpeakerInfo {
	samples, order := collectSpeakerSamples(segments)
	if len(order) == 0 {
		return map[string]entities.SpeakerInfo{}
	}

	content, err := r.llm.Complete(ctx, speakerSystemPrompt, buildSpeakerUserPrompt(series, episode, samples, order))
	if err != nil {
		r.logger.Warn("speaker identification failed, using fallback",
			zap.String("episode_id", episode.ID),
			zap.Error(err),
		)
		return fallbackSpeakers(order)
	}

	var resp speakerResponse
	if err := parseJSONResponse(content, &resp); err != nil || len(resp.Speakers) == 0 {
		r.logger.Warn("speaker identification returned unusable content, using fallback",
			zap.String("episode_id", episode.ID),
			zap.Error(err),
		)
		return fallbackSpeakers(order)
	}

	resolved := make(map[string]entities.SpeakerInfo, len(order))
	for _, guess := range resp.Speakers {
		if guess.Label == "" || guess.Name == "" {
			continue
		}
		if _, seen := samples[guess.Label]; !seen {
			continue // label we never showed the service
		}
		resolved[guess.Label] = entities.SpeakerInfo{
			Name: guess.Name,
			Role: normalizeRole(guess.Role),
		}
	}

	// Back-fill any label the service omitted.
	for _, label := range order {
		if _, ok := resolved[label]; !ok {
			resolved[label] = entities.SpeakerInfo{
				Name: placeholderName(label),
				Role: entities.SpeakerRoleUnknown,
			}
		}
	}
	return resolved
}

// collectSpeakerSamples gathers up to maxSpeakerSamples transcript samples
// per label, labels ordered by first appearance, each sample truncated to
// speakerSampleMaxLen.
func collectSpeakerSamples(segments []entities.TranscriptSegment) (map[string][]string, []string) {
	samples := make(map[string][]string)
	var order []string
	for _, seg := range segments {
		label := seg.SpeakerLabel
		if _, seen := samples[label]; !seen {
			order = append(order, label)
		}
		if len(samples[label]) >= maxSpeakerSamples {
			continue
		}
		text := truncateText(seg.Transcript, speakerSampleMaxLen)
		if text == "" {
			continue
		}
		samples[label] = append(samples[label], text)
	}
	return samples, order
}

// fallbackSpeakers is the deterministic result when identification fails
// entirely: spk_0 is assumed to be the host, everyone else stays unknown.
func fallbackSpeakers(labels []string) map[string]entities.SpeakerInfo {
	resolved := make(map[string]entities.SpeakerInfo, len(labels))
	for _, label := range labels {
		if label == fallbackHostLabel {
			resolved[label] = entities.SpeakerInfo{Name: fallbackHostName, Role: entities.SpeakerRoleHost}
			continue
		}
		resolved[label] = entities.SpeakerInfo{
			Name: placeholderName(label),
			Role: entities.SpeakerRoleUnknown,
		}
	}
	return resolved
}

// placeholderName derives "Speaker {N}" from the label's numeric suffix,
// falling back to the raw label when it has none.
func placeholderName(label string) string {
	i := len(label)
	for i > 0 && label[i-1] >= '0' && label[i-1] <= '9' {
		i--
	}
	if i == len(label) {
		return fmt.Sprintf("%s %s", fallbackSpeakerStub, label)
	}
	return fmt.Sprintf("%s %s", fallbackSpeakerStub, label[i:])
}

// normalizeRole maps free-form role text onto the role enum.
func normalizeRole(role string) entities.SpeakerRole {
	switch entities.SpeakerRole(role) {
	case entities.SpeakerRoleHost:
		return entities.SpeakerRoleHost
	case entities.SpeakerRoleGuest:
		return entities.SpeakerRoleGuest
	}
	return entities.SpeakerRoleUnknown
}
