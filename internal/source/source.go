// Package source loads raw meter tables from files.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jgoulah/ecowatts/internal/normalize"
)

// Load reads a raw table from a CSV or XLSX file, chosen by extension. sheet selects the
// worksheet of an XLSX file; empty means the first sheet.
func Load(path, sheet string) (normalize.RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(path, sheet)
	case ".csv", ".txt", "":
		f, err := os.Open(path)
		if err != nil {
			return normalize.RawTable{}, fmt.Errorf("opening CSV: %w", err)
		}
		defer f.Close()
		return ReadCSV(f)
	default:
		return normalize.RawTable{}, fmt.Errorf("unsupported file type: %s (use .csv or .xlsx)", filepath.Ext(path))
	}
}

// ReadCSV reads a header row followed by data rows
func ReadCSV(r io.Reader) (normalize.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Short rows are handled by the normalizer
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return normalize.RawTable{}, fmt.Errorf("empty CSV: no header row")
	}
	if err != nil {
		return normalize.RawTable{}, fmt.Errorf("reading header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	raw := normalize.RawTable{Header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return normalize.RawTable{}, fmt.Errorf("reading record: %w", err)
		}
		if isBlank(record) {
			continue
		}
		raw.Rows = append(raw.Rows, record)
	}

	return raw, nil
}

// LoadXLSX reads the first non-empty row of a worksheet as header
func LoadXLSX(path, sheet string) (normalize.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return normalize.RawTable{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return normalize.RawTable{}, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return normalize.RawTable{}, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	var raw normalize.RawTable
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		if raw.Header == nil {
			raw.Header = row
			continue
		}
		raw.Rows = append(raw.Rows, row)
	}
	if raw.Header == nil {
		return normalize.RawTable{}, fmt.Errorf("sheet %q is empty", sheet)
	}

	return raw, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
