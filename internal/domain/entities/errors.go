package entities

import "errors"

// Domain errors
var (
	// Upstream-missing errors: the episode is skipped, nothing is persisted
	ErrEpisodeNotFound    = errors.New("episode not found")
	ErrSeriesNotFound     = errors.New("series not found")
	ErrTranscriptNotFound = errors.New("transcript not found")

	// Ledger errors
	ErrJobNotFound = errors.New("pipeline job not found")

	// Generic errors
	ErrInvalidRequest = errors.New("invalid request")
)
