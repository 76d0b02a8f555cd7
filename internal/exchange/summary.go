package exchange

import (
	"errors"
	"strings"

	"example.com/ecomdata/internal/dataset"
)

const sampleColumns = 5

// FileSummary describes one exchange file for reporting.
type FileSummary struct {
	Dataset       string
	Rows          int
	Columns       int
	SampleColumns string
}

// Summarize reads every exchange file in dir. Missing files are returned by
// path instead of failing the summary.
func Summarize(dir string) ([]FileSummary, []string, error) {
	var (
		summaries []FileSummary
		missing   []string
	)
	for _, entity := range dataset.Entities {
		path := Path(dir, entity)
		header, rows, err := ReadFile(path)
		if err != nil {
			if errors.Is(err, ErrMissingFile) {
				missing = append(missing, path)
				continue
			}
			return nil, nil, err
		}
		sample := header
		if len(sample) > sampleColumns {
			sample = sample[:sampleColumns]
		}
		summaries = append(summaries, FileSummary{
			Dataset:       entity,
			Rows:          len(rows),
			Columns:       len(header),
			SampleColumns: strings.Join(sample, ", "),
		})
	}
	return summaries, missing, nil
}
