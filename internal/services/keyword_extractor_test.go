package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_ReturnsSalientTerms(t *testing.T) {
	ke := NewKeywordExtractor()

	keywords, err := ke.Extract("The database connection failed because the server timeout was exceeded.", 5)
	require.NoError(t, err)
	require.NotEmpty(t, keywords)
	assert.LessOrEqual(t, len(keywords), 5)

	assert.Contains(t, keywords, "database")
	for _, kw := range keywords {
		assert.NotContains(t, []string{"the", "was"}, kw)
	}
}

func TestExtract_LimitZeroReturnsAll(t *testing.T) {
	ke := NewKeywordExtractor()

	keywords, err := ke.Extract("Chunking splits long documents into overlapping windows.", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, keywords)
}

func TestExtract_StopWordsAndNumbersFiltered(t *testing.T) {
	ke := NewKeywordExtractor()

	keywords, err := ke.Extract("It has 12345 and 678 in this text with errors", 10)
	require.NoError(t, err)

	for _, kw := range keywords {
		assert.NotEqual(t, "12345", kw)
		assert.NotEqual(t, "678", kw)
		assert.NotEqual(t, "it", kw)
	}
}
