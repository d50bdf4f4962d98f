package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"finance-pipeline/src/models"
)

// -----------------------------------------------------------------------------

// FileSource reads a symbol catalog from a JSON dump on disk, a mapping of
// symbol code to attributes (FinanceDatabase export format).
type FileSource struct {
	Path string
}

// -----------------------------------------------------------------------------

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// -----------------------------------------------------------------------------

func (f *FileSource) Records() (map[string]models.MSymbol, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file '%s': %w", f.Path, err)
	}

	var records map[string]models.MSymbol
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file '%s': %w", f.Path, err)
	}

	return records, nil
}
