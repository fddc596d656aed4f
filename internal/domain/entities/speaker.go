package entities

// SpeakerRole classifies a speaker's relationship to the episode.
type SpeakerRole string

const (
	SpeakerRoleHost    SpeakerRole = "host"
	SpeakerRoleGuest   SpeakerRole = "guest"
	SpeakerRoleUnknown SpeakerRole = "unknown"
)

// SpeakerInfo is the resolved identity for one ASR speaker label. Produced
// once per episode, persisted, never revised.
type SpeakerInfo struct {
	Name string      `json:"name"`
	Role SpeakerRole `json:"role"`
}
