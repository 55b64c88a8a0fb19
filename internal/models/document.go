package models

// Document represents a piece of text loaded into the system, either a whole
// source file or a chunk produced by splitting one.
type Document struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewDocument creates a document with its own metadata map
func NewDocument(content string, metadata map[string]interface{}) Document {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return Document{Content: content, Metadata: metadata}
}

// Source returns the document's source path, or "unknown" when absent
func (d Document) Source() string {
	if s, ok := d.Metadata["source"].(string); ok && s != "" {
		return s
	}
	return "unknown"
}

// CloneMetadata returns a shallow copy of the metadata map so chunks derived
// from the same parent don't share mutable state
func (d Document) CloneMetadata() map[string]interface{} {
	out := make(map[string]interface{}, len(d.Metadata))
	for k, v := range d.Metadata {
		out[k] = v
	}
	return out
}

// IntegrityReport summarizes how much content survived document processing
type IntegrityReport struct {
	OriginalDocuments int     `json:"original_documents"`
	ProcessedChunks   int     `json:"processed_chunks"`
	OriginalChars     int     `json:"original_chars"`
	ProcessedChars    int     `json:"processed_chars"`
	RetentionPercent  float64 `json:"retention_percent"`
	MeanChunksPerDoc  float64 `json:"mean_chunks_per_doc"`
}

// StoreReport summarizes a vector store build
type StoreReport struct {
	CollectionName string `json:"collection_name"`
	InputCount     int    `json:"input_count"`
	InsertedCount  int    `json:"inserted_count"`
	FilteredCount  int    `json:"filtered_count"`
	Batches        int    `json:"batches"`
}

// IntegrityCheck is the result of probing a built collection
type IntegrityCheck struct {
	CollectionName string `json:"collection_name"`
	ExpectedCount  int    `json:"expected_count"`
	ReportedCount  int    `json:"reported_count"`
	ProbeSucceeded bool   `json:"probe_succeeded"`
	Match          bool   `json:"match"`
	Detail         string `json:"detail,omitempty"`
}
