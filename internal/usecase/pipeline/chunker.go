package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
)

const (
	// DefaultChunkMaxChars bounds one chunk of the contextual document.
	DefaultChunkMaxChars = 5000
	// DefaultChunkBreakRatio is how far into the window a natural break
	// must sit to be preferred over a hard cut.
	DefaultChunkBreakRatio = 0.7
)

// ContextualChunker turns one segment into the contextual-retrieval
// document and splits it into transmission-safe chunks.
type ContextualChunker struct {
	llm         Completer
	logger      *zap.Logger
	blockBudget int
	maxChars    int
	breakRatio  float64
}

// NewContextualChunker creates a chunker. blockBudget, maxChars and
// breakRatio fall back to the defaults when zero.
func NewContextualChunker(llm Completer, blockBudget, maxChars int, breakRatio float64, logger *zap.Logger) *ContextualChunker {
	if blockBudget <= 0 {
		blockBudget = DefaultBlockCharBudget
	}
	if maxChars <= 0 {
		maxChars = DefaultChunkMaxChars
	}
	if breakRatio <= 0 || breakRatio >= 1 {
		breakRatio = DefaultChunkBreakRatio
	}
	return &ContextualChunker{
		llm:         llm,
		logger:      logger,
		blockBudget: blockBudget,
		maxChars:    maxChars,
		breakRatio:  breakRatio,
	}
}

type contextResponse struct {
	Context string `json:"context"`
}

// BuildChunks assembles the contextual document for a segment and splits
// it. The raw episode segments are filtered down to those overlapping the
// segment's time range; the plain view prompts the generation service, the
// speaker-annotated view goes into the payload.
func (c *ContextualChunker) BuildChunks(ctx context.Context, series *entities.Series, episode *entities.Episode, sg *entities.Segment, segments []entities.TranscriptSegment, names map[string]string) []entities.Chunk {
	overlapping := overlappingSegments(segments, sg.StartSec, sg.EndSec)
	if len(overlapping) == 0 {
		return nil
	}

	plain := renderPlainText(overlapping)
	annotated := renderBlocks(GroupBlocks(overlapping, c.blockBudget, names))

	note := c.describe(ctx, series, episode, sg, plain)
	doc := fmt.Sprintf("<document><context>%s</context><transcript>%s</transcript></document>", note, annotated)

	return SplitChunks(doc, c.maxChars, c.breakRatio)
}

// describe asks the generation service for a 1-3 sentence context note,
// resolving to the deterministic template on any failure.
func (c *ContextualChunker) describe(ctx context.Context, series *entities.Series, episode *entities.Episode, sg *entities.Segment, plainText string) string {
	content, err := c.llm.Complete(ctx, contextSystemPrompt, buildContextUserPrompt(series, episode, sg, plainText))
	if err == nil {
		var resp contextResponse
		if perr := parseJSONResponse(content, &resp); perr == nil && strings.TrimSpace(resp.Context) != "" {
			return strings.TrimSpace(resp.Context)
		}
		err = fmt.Errorf("unusable context content")
	}

	c.logger.Warn("context generation failed, using template",
		zap.String("episode_id", episode.ID),
		zap.String("segment_id", sg.ID.String()),
		zap.Error(err),
	)
	return fallbackContext(series, episode, sg)
}

// fallbackContext is the deterministic context note used when generation
// fails.
func fallbackContext(series *entities.Series, episode *entities.Episode, sg *entities.Segment) string {
	return fmt.Sprintf("From the podcast %q, episode %q: a %s segment starting at %s.",
		series.Title, episode.Title, sg.Type, formatTimestamp(sg.StartSec))
}

// formatTimestamp renders seconds as h:mm:ss or m:ss.
func formatTimestamp(sec float64) string {
	total := int(sec)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// SplitChunks splits text into pieces of at most maxChars, preferring to
// break after a sentence end, then at a word boundary, and only then
// exactly at maxChars. A natural break is only taken when it lies past
// breakRatio of the window. Every piece is whitespace-trimmed; non-empty
// input never produces an empty chunk.
func SplitChunks(text string, maxChars int, breakRatio float64) []entities.Chunk {
	if maxChars <= 0 {
		maxChars = DefaultChunkMaxChars
	}
	if breakRatio <= 0 || breakRatio >= 1 {
		breakRatio = DefaultChunkBreakRatio
	}

	threshold := int(float64(maxChars) * breakRatio)

	var pieces []string
	rest := text
	for len(rest) > maxChars {
		window := rest[:runeBoundary(rest, maxChars)]
		cut := len(window)

		if idx := strings.LastIndex(window, ". "); idx > threshold {
			cut = idx + 1 // keep the period with the sentence
		} else if idx := strings.LastIndex(window, " "); idx > threshold {
			cut = idx
		}
		if cut == 0 {
			// A single rune wider than the window; emit it whole.
			_, cut = utf8.DecodeRuneInString(rest)
		}

		piece := strings.TrimSpace(rest[:cut])
		if piece != "" {
			pieces = append(pieces, piece)
		}
		rest = strings.TrimSpace(rest[cut:])
	}
	if rest = strings.TrimSpace(rest); rest != "" {
		pieces = append(pieces, rest)
	}

	chunks := make([]entities.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = entities.Chunk{Text: piece, Index: i, Total: len(pieces)}
	}
	return chunks
}
