package services

import (
	"errors"
	"fmt"
)

// ConfigurationError means credentials or endpoints are missing or broken.
// It is fatal to the operation that needed them.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IngestionError means a specific batch failed to embed or insert. It aborts
// the whole build; earlier batches are not rolled back.
type IngestionError struct {
	Batch      int
	Collection string
	Err        error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed at batch %d (collection %s): %v", e.Batch, e.Collection, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// RetrievalError occurs during a conversational turn's retrieval step. It is
// recovered locally into an assistant message; the thread continues.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError occurs during a conversational turn's generation step.
// Recovered the same way as RetrievalError.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsIngestionError reports whether err is (or wraps) an IngestionError, and
// returns the failing batch number when it is
func IsIngestionError(err error) (int, bool) {
	var ie *IngestionError
	if errors.As(err, &ie) {
		return ie.Batch, true
	}
	return 0, false
}
