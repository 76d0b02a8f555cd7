package exchange

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"example.com/ecomdata/internal/dataset"
)

// ErrMissingFile is returned when an expected exchange file is absent.
var ErrMissingFile = errors.New("exchange file missing")

// Path returns the exchange file location for an entity inside dir.
func Path(dir, entity string) string {
	return filepath.Join(dir, dataset.FileName(entity))
}

// WriteDataset writes one CSV per entity into dir and returns the number of
// data rows written per entity.
func WriteDataset(dir string, ds dataset.Dataset) (map[string]int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	counts := make(map[string]int, len(dataset.Entities))
	for _, entity := range dataset.Entities {
		rows := ds.Records(entity)
		if err := WriteFile(Path(dir, entity), dataset.Columns[entity], rows); err != nil {
			return counts, err
		}
		counts[entity] = len(rows)
	}
	return counts, nil
}

// WriteFile writes header followed by rows to path, replacing any previous file.
func WriteFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return nil
}

// ReadFile returns the header and data rows of a CSV file.
func ReadFile(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("parse %s: missing header row", path)
	}
	return records[0], records[1:], nil
}

// RequireAll checks that every entity has an exchange file in dir.
func RequireAll(dir string) error {
	var missing []error
	for _, entity := range dataset.Entities {
		path := Path(dir, entity)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				missing = append(missing, fmt.Errorf("%w: %s", ErrMissingFile, path))
				continue
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return errors.Join(missing...)
}
