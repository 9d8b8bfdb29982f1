package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format identifies the tabular encoding of a source.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
}

// Options tune how a source is read.
type Options struct {
	// Sheet selects the worksheet of an xlsx source; empty means the first sheet.
	Sheet string
}

// Load reads and validates the dataset stored at path.
func Load(path string, opts Options) (*Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &UnreadableSourceError{Source: path, Err: err}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &UnreadableSourceError{Source: path, Err: err}
	}
	defer file.Close()

	return Read(file, path, format, opts)
}

// Read reads and validates a dataset from r. name is only used in errors.
// Validation is all-or-nothing: either every row is typed or no table is returned.
func Read(r io.Reader, name string, format Format, opts Options) (*Table, error) {
	var rows [][]string
	var err error

	switch format {
	case FormatXLSX:
		rows, err = readXLSX(r, opts.Sheet)
	case FormatCSV:
		rows, err = readCSV(r)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, &UnreadableSourceError{Source: name, Err: err}
	}
	if len(rows) == 0 {
		return nil, &UnreadableSourceError{Source: name, Err: ErrEmptySource}
	}

	records, err := parseRows(rows)
	if err != nil {
		var cellErr *CellError
		if errors.As(err, &cellErr) {
			return nil, &UnreadableSourceError{Source: name, Err: err}
		}
		return nil, err
	}

	return NewTable(name, records), nil
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	return f.GetRows(sheet, excelize.Options{RawCellValue: true})
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

// ValidateHeader checks that header carries every required column and returns
// the index of each one.
func ValidateHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}
	return index, nil
}

func parseRows(rows [][]string) ([]HistoricalRecord, error) {
	index, err := ValidateHeader(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]HistoricalRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rowNum := i + 2 // 1-based, after header

		cell := func(col string) string {
			idx := index[col]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		rec := HistoricalRecord{
			SpeciesGroup: cell(ColSpeciesGroup),
			Region:       cell(ColRegion),
		}
		if rec.SpeciesGroup == "" {
			return nil, &CellError{Row: rowNum, Column: ColSpeciesGroup, Err: errors.New("value is required")}
		}
		if rec.Region == "" {
			return nil, &CellError{Row: rowNum, Column: ColRegion, Err: errors.New("value is required")}
		}

		if rec.Year, err = parseYear(cell(ColYear)); err != nil {
			return nil, &CellError{Row: rowNum, Column: ColYear, Value: cell(ColYear), Err: err}
		}
		if rec.Volume, err = parseNumber(cell(ColVolume), false); err != nil {
			return nil, &CellError{Row: rowNum, Column: ColVolume, Value: cell(ColVolume), Err: err}
		}
		if rec.Nominal, err = parseNumber(cell(ColNominal), true); err != nil {
			return nil, &CellError{Row: rowNum, Column: ColNominal, Value: cell(ColNominal), Err: err}
		}
		if rec.Price, err = parseNumber(cell(ColPrice), true); err != nil {
			return nil, &CellError{Row: rowNum, Column: ColPrice, Value: cell(ColPrice), Err: err}
		}

		records = append(records, rec)
	}

	return records, nil
}

// Accepted range of the year column.
const (
	minYear = 1
	maxYear = 9999
)

func parseYear(s string) (int, error) {
	if s == "" {
		return 0, errors.New("value is required")
	}
	// Spreadsheets often store years as floats.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("year %v is not a whole number", f)
	}
	if f < minYear || f > maxYear {
		return 0, fmt.Errorf("year %v outside %d..%d", f, minYear, maxYear)
	}
	return int(f), nil
}

// parseNumber parses a numeric cell. A blank cell yields NaN when allowBlank is set.
func parseNumber(s string, allowBlank bool) (float64, error) {
	if s == "" {
		if allowBlank {
			return math.NaN(), nil
		}
		return 0, errors.New("value is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
