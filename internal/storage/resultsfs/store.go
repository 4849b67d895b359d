// Package resultsfs writes CLI result files and chart images to disk
package resultsfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/fundval/internal/common"
)

// Store writes output files relative to a base directory. Each write goes to a
// temp file in the target directory and is renamed into place.
type Store struct {
	basePath string
	logger   *common.Logger
}

// NewStore creates a store rooted at basePath ("" means the working directory)
func NewStore(basePath string, logger *common.Logger) *Store {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if basePath == "" {
		basePath = "."
	}
	return &Store{basePath: basePath, logger: logger}
}

// Path resolves name against the base directory; absolute names are kept
func (s *Store) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.basePath, name)
}

// WriteText overwrites name with content, normalising the trailing newline
func (s *Store) WriteText(name, content string) (string, error) {
	return s.Write(name, []byte(strings.TrimRight(content, "\n")+"\n"))
}

// Write overwrites name with data and returns the resolved path
func (s *Store) Write(name string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("output file name is required")
	}
	target := s.Path(name)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.logger.Debug().Str("path", target).Int("bytes", len(data)).Msg("Result file written")
	return target, nil
}
