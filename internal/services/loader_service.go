package services

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"ragchat/internal/models"
)

// FileLoader parses one file into a document body
type FileLoader func(path string) (string, error)

// LoaderService walks a directory tree and turns supported files into
// documents. Loaders are selected by extension; unsupported extensions are
// skipped. Individual parse failures are aggregated and non-fatal.
type LoaderService struct {
	loaders map[string]FileLoader
	logger  *log.Logger
}

// NewLoaderService creates a loader with the built-in text, markdown and PDF
// handlers registered
func NewLoaderService(logger *log.Logger) *LoaderService {
	s := &LoaderService{
		loaders: make(map[string]FileLoader),
		logger:  logger,
	}
	s.RegisterLoader(".txt", loadTextFile)
	s.RegisterLoader(".md", loadTextFile)
	s.RegisterLoader(".markdown", loadTextFile)
	s.RegisterLoader(".pdf", loadPDFFile)
	return s
}

// RegisterLoader adds or replaces the loader for an extension. Extensions are
// matched case-insensitively and must include the leading dot.
func (s *LoaderService) RegisterLoader(ext string, loader FileLoader) {
	s.loaders[strings.ToLower(ext)] = loader
}

// LoadDocuments walks rootDir recursively and returns one document per
// successfully parsed file. Files that fail to parse are logged and skipped;
// the documents that did succeed are still returned. An empty directory
// yields an empty slice, not an error.
func (s *LoaderService) LoadDocuments(rootDir string) ([]models.Document, error) {
	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open document root %s: %w", rootDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document root %s is not a directory", rootDir)
	}

	docs := make([]models.Document, 0)
	var failed int

	err = filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.logger.Printf("Skipping %s: %v", path, walkErr)
			failed++
			return nil
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		loader, ok := s.loaders[ext]
		if !ok {
			return nil
		}

		content, err := loader(path)
		if err != nil {
			s.logger.Printf("Failed to parse %s: %v", path, err)
			failed++
			return nil
		}

		docs = append(docs, models.NewDocument(content, map[string]interface{}{
			"source":    path,
			"file_type": strings.TrimPrefix(ext, "."),
		}))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", rootDir, err)
	}

	s.logger.Printf("Loaded %d documents from %s (%d failed)", len(docs), rootDir, failed)
	return docs, nil
}

func loadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
