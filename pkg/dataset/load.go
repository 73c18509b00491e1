package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/expectedfreq/pkg/errors"
)

// Load reads a table from path, choosing the reader by extension
// (.csv, .tsv, .json, .xlsx). Sheet selects an XLSX worksheet; empty
// means the first one.
func Load(path, sheet string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "dataset %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open dataset %s", path)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCSV(f, ',')
	case ".tsv":
		return ReadCSV(f, '\t')
	case ".json":
		return ReadJSON(f)
	case ".xlsx":
		return ReadXLSX(f, sheet)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"unsupported dataset extension %q (use .csv, .tsv, .json, or .xlsx)", ext)
	}
}

// ReadCSV reads delimited text with a header row.
func ReadCSV(r io.Reader, comma rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse csv")
	}
	return FromRecords(records)
}

// ReadJSON reads an array of flat objects. Column order follows the keys of
// the first object as written; keys that first appear later are appended.
func ReadJSON(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read json")
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse json")
	}
	if len(raw) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "dataset is empty")
	}

	cols, err := objectKeyOrder(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse json")
	}

	t := &Table{Columns: cols, Rows: make([]Row, 0, len(raw))}
	for _, obj := range raw {
		row := make(Row, len(cols))
		for _, c := range cols {
			row[c] = normalize(obj[c])
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadXLSX reads a worksheet with a header row. An empty sheet name selects
// the first worksheet.
func ReadXLSX(r io.Reader, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open workbook")
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		return nil, errors.New(errors.ErrCodeNotFound, "worksheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read worksheet %q", sheet)
	}
	return FromRecords(rows)
}

// WriteXLSX writes t to w as a single-sheet workbook.
func WriteXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for i, h := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range t.Rows {
		for c, col := range t.Columns {
			v := row[col]
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// normalize maps decoded JSON values onto cell types.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, float64, bool:
		return x
	case string:
		return parseCell(x)
	default:
		return nil
	}
}

// objectKeyOrder walks the token stream to recover key order, which
// map decoding loses.
func objectKeyOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var cols []string
	seen := make(map[string]bool)
	depth := 0
	expectKey := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return cols, nil
		}
		if err != nil {
			return nil, err
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{', '[':
				depth++
				expectKey = v == '{' && depth == 2
			case '}', ']':
				depth--
				expectKey = depth == 2
			}
			continue
		case string:
			if expectKey && depth == 2 {
				if !seen[v] {
					seen[v] = true
					cols = append(cols, v)
				}
				expectKey = false
				continue
			}
		}
		if depth == 2 {
			expectKey = true
		}
	}
}
