package generator

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// WriteDataset serializes the dataset as CSV at the provided path, creating
// parent directories as needed.
func WriteDataset(dataset Dataset, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(dataset.Header); err != nil {
		return fmt.Errorf("write header for %s: %w", path, err)
	}
	for _, row := range dataset.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}
