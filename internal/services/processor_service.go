package services

import (
	"encoding/json"
	"log"
	"time"

	"ragchat/internal/models"
)

// ProcessorService splits raw documents into overlapping chunks, sanitizes
// chunk metadata to primitive values and computes integrity statistics
type ProcessorService struct {
	splitter  *TextSplitter
	keywords  *KeywordExtractor
	logger    *log.Logger
	timestamp func() time.Time
}

// NewProcessorService creates a processor. The keyword extractor is optional;
// pass nil to skip metadata enrichment.
func NewProcessorService(splitter *TextSplitter, keywords *KeywordExtractor, logger *log.Logger) *ProcessorService {
	return &ProcessorService{
		splitter:  splitter,
		keywords:  keywords,
		logger:    logger,
		timestamp: time.Now,
	}
}

// SplitDocuments splits each document into chunks that inherit the parent's
// metadata plus a chunk index
func (s *ProcessorService) SplitDocuments(docs []models.Document) []models.Document {
	chunks := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		pieces := s.splitter.SplitText(doc.Content)
		for i, piece := range pieces {
			metadata := doc.CloneMetadata()
			metadata["chunk_index"] = i
			chunks = append(chunks, models.NewDocument(piece, metadata))
		}
	}
	s.logger.Printf("Split %d documents into %d chunks", len(docs), len(chunks))
	return chunks
}

// SanitizeMetadata projects every chunk's metadata onto primitive values.
// Non-primitive values are JSON-stringified. Every chunk leaves with a
// source, its content length and a processing timestamp. Applying the
// sanitizer twice yields the same result as once.
func (s *ProcessorService) SanitizeMetadata(chunks []models.Document) []models.Document {
	out := make([]models.Document, 0, len(chunks))
	for _, chunk := range chunks {
		metadata := make(map[string]interface{}, len(chunk.Metadata)+3)
		for k, v := range chunk.Metadata {
			metadata[k] = sanitizeValue(v)
		}
		if _, ok := metadata["source"].(string); !ok {
			metadata["source"] = "unknown"
		}
		metadata["chunk_size"] = len(chunk.Content)
		if _, ok := metadata["processed_at"]; !ok {
			metadata["processed_at"] = s.timestamp().UTC().Format(time.RFC3339)
		}

		if s.keywords != nil {
			if kw, err := s.keywords.Extract(chunk.Content, 8); err == nil && len(kw) > 0 {
				metadata["keywords"] = sanitizeValue(kw)
			}
		}

		out = append(out, models.NewDocument(chunk.Content, metadata))
	}
	return out
}

// sanitizeValue keeps strings, numbers, booleans and nil as-is and
// JSON-stringifies everything else (the vector store only accepts primitives)
func sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// ValidateProcessingIntegrity compares the original documents against the
// processed chunks. It is a diagnostic, not a gate: mismatches are reported,
// never returned as errors.
func (s *ProcessorService) ValidateProcessingIntegrity(original, processed []models.Document) models.IntegrityReport {
	report := models.IntegrityReport{
		OriginalDocuments: len(original),
		ProcessedChunks:   len(processed),
	}
	for _, doc := range original {
		report.OriginalChars += len(doc.Content)
	}
	for _, chunk := range processed {
		report.ProcessedChars += len(chunk.Content)
	}
	if report.OriginalChars > 0 {
		report.RetentionPercent = float64(report.ProcessedChars) / float64(report.OriginalChars) * 100
	}
	if report.OriginalDocuments > 0 {
		report.MeanChunksPerDoc = float64(report.ProcessedChunks) / float64(report.OriginalDocuments)
	}

	s.logger.Printf("Processing integrity: %d docs -> %d chunks, %d -> %d chars (%.1f%% retention)",
		report.OriginalDocuments, report.ProcessedChunks,
		report.OriginalChars, report.ProcessedChars, report.RetentionPercent)
	return report
}
