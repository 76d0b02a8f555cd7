package query

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tealeg/xlsx"
)

// excel caps sheet names at 31 characters
const maxSheetName = 31

// Sheet is one named section of an exported workbook.
type Sheet struct {
	Name   string
	Result Result
}

// WriteWorkbook saves sheets to an xlsx file at path, one worksheet each,
// header row first.
func WriteWorkbook(path string, sheets []Sheet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	file := xlsx.NewFile()
	for _, s := range sheets {
		name := s.Name
		if len(name) > maxSheetName {
			name = name[:maxSheetName]
		}
		sheet, err := file.AddSheet(name)
		if err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}
		header := sheet.AddRow()
		for _, c := range s.Result.Columns {
			header.AddCell().SetValue(c)
		}
		for _, r := range s.Result.Rows {
			row := sheet.AddRow()
			for _, v := range r {
				row.AddCell().SetValue(v)
			}
		}
	}

	if err := file.Save(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
