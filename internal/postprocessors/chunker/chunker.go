// Package chunker splits document text into bounded, overlapping chunks
// that respect paragraph and sentence boundaries.
package chunker

import (
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// Default chunking parameters.
const (
	DefaultMaxTokens     = domain.DefaultMaxTokens
	DefaultOverlapTokens = domain.DefaultOverlapTokens
	DefaultMinChunkSize  = domain.DefaultMinChunkSize
)

// Chunker accumulates paragraphs (and, for oversized paragraphs, sentences)
// into chunks of at most maxTokens estimated tokens. Each chunk after the
// first starts with the tail of its predecessor.
type Chunker struct {
	maxTokens          int
	overlapTokens      int
	minChunkSize       int
	preserveParagraphs bool
	preserveSentences  bool
	now                func() time.Time
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxTokens sets the chunk size bound in estimated tokens.
func WithMaxTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens > 0 {
			c.maxTokens = tokens
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in estimated tokens.
func WithOverlap(tokens int) Option {
	return func(c *Chunker) {
		if tokens >= 0 {
			c.overlapTokens = tokens
		}
	}
}

// WithMinChunkSize sets the minimum trailing chunk length in characters.
func WithMinChunkSize(chars int) Option {
	return func(c *Chunker) {
		if chars >= 0 {
			c.minChunkSize = chars
		}
	}
}

// WithPreserveParagraphs toggles splitting on blank-line boundaries.
func WithPreserveParagraphs(preserve bool) Option {
	return func(c *Chunker) {
		c.preserveParagraphs = preserve
	}
}

// WithPreserveSentences toggles sentence splitting of oversized paragraphs.
func WithPreserveSentences(preserve bool) Option {
	return func(c *Chunker) {
		c.preserveSentences = preserve
	}
}

// WithClock sets the time source for chunk creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Chunker) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxTokens:          DefaultMaxTokens,
		overlapTokens:      DefaultOverlapTokens,
		minChunkSize:       DefaultMinChunkSize,
		preserveParagraphs: true,
		preserveSentences:  true,
		now:                time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewFromSettings creates a chunker from persisted chunking settings.
func NewFromSettings(s domain.ChunkingSettings) *Chunker {
	return New(
		WithMaxTokens(s.MaxTokens),
		WithOverlap(s.OverlapTokens),
		WithMinChunkSize(s.MinChunkSize),
		WithPreserveParagraphs(s.PreserveParagraphs),
		WithPreserveSentences(s.PreserveSentences),
	)
}

// Chunk cleans text and splits it into chunks.
// Chunk content is always an exact span of the cleaned text.
func (c *Chunker) Chunk(documentID, text, title string) []domain.Chunk {
	cleaned := Clean(text)
	if cleaned == "" {
		return nil
	}

	runes := []rune(cleaned)
	lang := DetectLanguage(cleaned)

	acc := &accumulator{
		runes:        runes,
		maxChars:     c.maxTokens * domain.CharsPerToken,
		overlapChars: c.overlapTokens * domain.CharsPerToken,
		start:        -1,
	}

	units := []span{{0, len(runes)}}
	if c.preserveParagraphs {
		units = paragraphs(runes)
	}

	for _, u := range units {
		if u.len() > acc.maxChars && c.preserveSentences {
			for _, s := range sentences(runes, u, lang) {
				acc.add(s)
			}
			continue
		}
		acc.add(u)
	}

	if acc.start >= 0 {
		tail := span{acc.start, acc.end}
		if tail.len() >= min(c.minChunkSize, acc.maxChars/domain.CharsPerToken) {
			acc.spans = append(acc.spans, tail)
		}
	}

	createdAt := c.now()
	chunks := make([]domain.Chunk, 0, len(acc.spans))
	for i, s := range acc.spans {
		content := string(runes[s.start:s.end])
		chunks = append(chunks, domain.Chunk{
			ID:            domain.ChunkID(documentID, i),
			DocumentID:    documentID,
			DocumentTitle: title,
			Content:       content,
			ChunkIndex:    i,
			StartPosition: s.start,
			EndPosition:   s.end,
			TokenCount:    domain.EstimateTokens(content),
			WordCount:     len(strings.Fields(content)),
			Language:      lang,
			CreatedAt:     createdAt,
		})
	}

	return chunks
}

// span is a half-open rune range [start, end) of the cleaned text.
type span struct {
	start, end int
}

func (s span) len() int { return s.end - s.start }

// accumulator holds the running buffer as a span. Because every unit and
// every overlap is a span of the same text, extending the buffer keeps the
// separators between units intact.
type accumulator struct {
	runes        []rune
	maxChars     int
	overlapChars int
	start, end   int
	spans        []span
}

func (a *accumulator) add(u span) {
	if a.start < 0 {
		a.start, a.end = u.start, u.end
		return
	}

	if u.end-a.start <= a.maxChars {
		a.end = u.end
		return
	}

	closed := span{a.start, a.end}
	a.spans = append(a.spans, closed)

	// The overlap is shortened so overlap + separator + unit stays in bounds.
	budget := min(a.overlapChars, a.maxChars-(u.end-closed.end))
	a.start, a.end = a.overlapStart(closed, budget, u.start), u.end
}

// overlapStart returns where the next buffer begins: inside closed when an
// overlap of at most budget characters fits on a word boundary, otherwise
// at the unit itself.
func (a *accumulator) overlapStart(closed span, budget, unitStart int) int {
	if budget <= 0 {
		return unitStart
	}

	pos := max(closed.end-budget, closed.start)
	for pos < closed.end && pos > closed.start && !isSpace(a.runes[pos-1]) {
		pos++
	}
	for pos < closed.end && isSpace(a.runes[pos]) {
		pos++
	}
	if pos >= closed.end || pos == closed.start {
		return unitStart
	}
	return pos
}
