package dataset

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists raw uploads and preprocessed derivatives on local disk.
// Writes are last-wins with no versioning.
type Store struct {
	dataDir string
}

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

// DataDir returns the directory uploads are persisted under.
func (s *Store) DataDir() string { return s.dataDir }

// IngestReport describes an accepted upload.
type IngestReport struct {
	Filename    string            `json:"filename"`
	Rows        int               `json:"rows"`
	Columns     int               `json:"columns"`
	ColumnNames []string          `json:"column_names"`
	Dtypes      map[string]string `json:"dtypes"`
	MemoryUsage int64             `json:"memory_usage"`
	FilePath    string            `json:"file_path"`
}

// Ingest validates and persists raw file bytes, then parses them to report
// shape and dtype metadata. Missing-value counting is deferred to
// preprocessing.
func (s *Store) Ingest(content []byte, filename string) (*IngestReport, error) {
	filename = filepath.Base(filename)
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, fmt.Errorf("%w: only CSV files are supported, got %q", ErrDataFormat, filepath.Ext(filename))
	}

	path := filepath.Join(s.dataDir, filename)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, fmt.Errorf("failed to persist upload: %w", err)
	}

	table, err := ReadCSV(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	return &IngestReport{
		Filename:    filename,
		Rows:        table.Rows(),
		Columns:     table.NumCols(),
		ColumnNames: table.ColumnNames(),
		Dtypes:      table.Dtypes(),
		MemoryUsage: table.MemoryUsage(),
		FilePath:    path,
	}, nil
}

// Path returns the on-disk path for an uploaded file.
func (s *Store) Path(filename string) string {
	return filepath.Join(s.dataDir, filepath.Base(filename))
}

// Load reads a persisted dataset.
func (s *Store) Load(filename string) (*Table, error) {
	content, err := os.ReadFile(s.Path(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %q: %w", filename, err)
	}
	return ReadCSV(bytes.NewReader(content))
}

// LoadPreferPreprocessed loads the preprocessed derivative when present,
// falling back to the original upload.
func (s *Store) LoadPreferPreprocessed(filename string) (*Table, error) {
	derived := PreprocessedName(filename)
	if _, err := os.Stat(s.Path(derived)); err == nil {
		return s.Load(derived)
	}
	return s.Load(filename)
}

// PreprocessedName maps an upload filename to its derived artifact name.
func PreprocessedName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_preprocessed.csv"
}
