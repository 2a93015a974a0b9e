package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fbinsights/pkg/analytics"
	"fbinsights/pkg/config"
)

// Files lists the artifacts written by one run
type Files struct {
	Summary string
	Raw     string
}

// Manager writes the analytics artifacts into an output directory
type Manager struct {
	outputDir   string
	summaryFile string
	rawFile     string
	indent      string
}

// NewManager creates a new storage manager, creating the output directory
// if needed
func NewManager(cfg config.OutputConfig) (*Manager, error) {
	if cfg.SummaryFile == "" || cfg.RawFile == "" {
		return nil, fmt.Errorf("output file names are required")
	}
	dir := cfg.Directory
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir:   dir,
		summaryFile: cfg.SummaryFile,
		rawFile:     cfg.RawFile,
		indent:      strings.Repeat(" ", cfg.Indent),
	}, nil
}

// WriteReports writes the clean summary and the raw archive
func (m *Manager) WriteReports(result *analytics.Result) (*Files, error) {
	if result == nil {
		return nil, fmt.Errorf("no result to write")
	}

	summary, err := m.SaveJSON(m.summaryFile, result.Clean)
	if err != nil {
		return nil, fmt.Errorf("failed to write summary: %w", err)
	}

	raw, err := m.SaveJSON(m.rawFile, result.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to write raw archive: %w", err)
	}

	return &Files{Summary: summary, Raw: raw}, nil
}

// SaveJSON encodes v with the configured indent and writes it atomically to
// name inside the output directory. It returns the written path.
func (m *Manager) SaveJSON(name string, v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if m.indent != "" {
		enc.SetIndent("", m.indent)
	}
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}

	filename := filepath.Join(m.outputDir, name)
	if err := writeAtomic(filename, buf.Bytes()); err != nil {
		return "", err
	}

	return filename, nil
}

// writeAtomic writes data to a temporary file next to filename and renames
// it into place
func writeAtomic(filename string, data []byte) error {
	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = out.Write(data)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
