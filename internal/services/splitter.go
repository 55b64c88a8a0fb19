package services

import (
	"fmt"
	"strings"
)

// Default chunking profiles. The large profile is meant for corpora with big
// individual files, where wider windows keep more context per chunk.
const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 200
	LargeChunkSize      = 1200
	LargeChunkOverlap   = 300
)

// defaultSeparators are tried in order, paragraph first, until the pieces
// fit the window. The empty separator is the character-level fallback.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// TextSplitter splits text into overlapping windows of at most chunkSize
// characters, preferring to break at coarse boundaries
type TextSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewTextSplitter creates a splitter. chunkOverlap must be smaller than
// chunkSize.
func NewTextSplitter(chunkSize, chunkOverlap int) (*TextSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, chunkSize), got %d with chunk size %d", chunkOverlap, chunkSize)
	}
	return &TextSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}, nil
}

// SplitText splits text into chunks of at most chunkSize characters, with
// adjacent chunks sharing overlap context. A single atomic unit longer than
// chunkSize is windowed at character level.
func (s *TextSplitter) SplitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	chunks := s.split(text, s.separators)
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

func (s *TextSplitter) split(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	// Pick the coarsest separator that actually occurs in the text
	separator := ""
	var remaining []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	if separator == "" {
		return s.window(text)
	}

	// SplitAfter keeps the separator attached so no characters are lost
	pieces := strings.SplitAfter(text, separator)

	var chunks []string
	var current []string
	currentLen := 0

	for _, piece := range pieces {
		if len(piece) > s.chunkSize {
			// piece too big for any window at this level; flush what we
			// have and recurse with finer separators
			if len(current) > 0 {
				chunks = append(chunks, strings.Join(current, ""))
				current = nil
				currentLen = 0
			}
			chunks = append(chunks, s.split(piece, remaining)...)
			continue
		}
		if currentLen+len(piece) > s.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, ""))
			// retain a tail of pieces as overlap context, shrinking further
			// if the next piece would still not fit
			for len(current) > 0 && (currentLen > s.chunkOverlap || currentLen+len(piece) > s.chunkSize) {
				currentLen -= len(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		currentLen += len(piece)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, ""))
	}

	return chunks
}

// window slices text into fixed chunkSize windows stepping by
// chunkSize-chunkOverlap. Used when no separator can break the text.
func (s *TextSplitter) window(text string) []string {
	step := s.chunkSize - s.chunkOverlap
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
