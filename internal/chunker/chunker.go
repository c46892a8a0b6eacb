package chunker

import (
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the target window size in runes
	DefaultChunkSize = 1000

	// DefaultOverlap is how many runes consecutive windows share
	DefaultOverlap = 200
)

// Chunker splits text into overlapping windows.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize overrides the window size. Non-positive values keep the
// default.
func WithChunkSize(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithOverlap overrides the window overlap. Values outside [0, chunkSize)
// keep the default.
func WithOverlap(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 5
	}
	return c
}

// Split divides text into windows of up to chunkSize runes, each sharing
// overlap runes with its predecessor. Windows are trimmed of surrounding
// whitespace; empty windows are dropped.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			if chunk := trim(runes[start:]); chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := c.boundary(runes, start, end)
		if chunk := trim(runes[start:cut]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - c.overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// boundary picks where to end the window [start, end). It scans the back
// half of the window for the best break available: paragraph, then line,
// then sentence, then word. With no break at all the window ends at end,
// mid-word.
func (c *Chunker) boundary(runes []rune, start, end int) int {
	floor := start + (end-start)/2

	for i := end - 1; i > floor; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i > floor; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	for i := end - 2; i > floor; i-- {
		if isSentenceEnd(runes[i]) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}
	for i := end - 1; i > floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func trim(runes []rune) string {
	return strings.TrimSpace(string(runes))
}
