package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextSplitter_Validation(t *testing.T) {
	_, err := NewTextSplitter(0, 0)
	assert.Error(t, err)

	_, err = NewTextSplitter(100, 100)
	assert.Error(t, err)

	_, err = NewTextSplitter(100, -1)
	assert.Error(t, err)

	s, err := NewTextSplitter(100, 20)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestSplitText_EmptyInput(t *testing.T) {
	s, err := NewTextSplitter(100, 20)
	require.NoError(t, err)

	assert.Empty(t, s.SplitText(""))
	assert.Empty(t, s.SplitText("   \n\t  "))
}

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	s, err := NewTextSplitter(800, 200)
	require.NoError(t, err)

	text := strings.Repeat("a", 100)
	chunks := s.SplitText(text)

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitText_ChunksRespectSizeLimit(t *testing.T) {
	s, err := NewTextSplitter(100, 20)
	require.NoError(t, err)

	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("This is a sentence about nothing in particular. ")
	}

	chunks := s.SplitText(sb.String())
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100, "chunk %d exceeds limit: %q", i, chunk)
	}
}

func TestSplitText_NoCharactersLost(t *testing.T) {
	s, err := NewTextSplitter(80, 0)
	require.NoError(t, err)

	text := "First paragraph with some words.\n\nSecond paragraph with more words in it.\n\nThird paragraph here."
	chunks := s.SplitText(text)

	joined := strings.Join(chunks, "")
	assert.Equal(t, text, joined)
}

func TestSplitText_AdjacentChunksShareOverlap(t *testing.T) {
	s, err := NewTextSplitter(100, 40)
	require.NoError(t, err)

	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString("word word word word word word word word. ")
	}

	chunks := s.SplitText(sb.String())
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		// the head of each later chunk repeats the tail of the previous one
		head := chunks[i][:20]
		assert.Contains(t, chunks[i-1], head,
			"chunk %d does not share context with its predecessor", i)
	}
}

func TestSplitText_AtomicUnitWindowed(t *testing.T) {
	s, err := NewTextSplitter(50, 10)
	require.NoError(t, err)

	// no separators at all, longer than one chunk
	text := strings.Repeat("x", 130)
	chunks := s.SplitText(text)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 50)
	}

	// stepping by chunkSize-overlap covers the whole text
	assert.Equal(t, text[:50], chunks[0])
	assert.Equal(t, text[40:90], chunks[1])
}

func TestSplitText_PrefersParagraphBoundaries(t *testing.T) {
	s, err := NewTextSplitter(40, 0)
	require.NoError(t, err)

	text := "Short first paragraph.\n\nShort second paragraph here too."
	chunks := s.SplitText(text)

	require.Len(t, chunks, 2)
	assert.Equal(t, "Short first paragraph.\n\n", chunks[0])
	assert.Equal(t, "Short second paragraph here too.", chunks[1])
}

// Concrete chunking scenario: three documents of 100, 5000 and 50 characters
// at the default 800/200 profile. The short documents stay whole; the long
// one splits into bounded, overlapping chunks.
func TestSplitText_MixedDocumentSizes(t *testing.T) {
	s, err := NewTextSplitter(DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)

	short := strings.Repeat("a", 100)
	long := strings.Repeat("Sentence of a reasonable length goes here. ", 117)[:5000]
	tiny := strings.Repeat("b", 50)

	shortChunks := s.SplitText(short)
	require.Len(t, shortChunks, 1)
	assert.Equal(t, short, shortChunks[0])

	tinyChunks := s.SplitText(tiny)
	require.Len(t, tinyChunks, 1)

	longChunks := s.SplitText(long)
	assert.Greater(t, len(longChunks), 1)
	for _, chunk := range longChunks {
		assert.LessOrEqual(t, len(chunk), DefaultChunkSize)
	}
}
