package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/expectedfreq/pkg/errors"
)

const sampleCSV = `hypothesis,outcome,model,risk_ratio,ci_lower,ci_upper
Alternative,Hepatic,IPW,1.1,0.67,2.0
Alternative,Renal,IPW,1.67,1.17,2.36
Null,Hepatic,Unadjusted,,,
Null,Renal,IPW,1.01,0.71,1.39
`

func sample(t *testing.T) *Table {
	t.Helper()
	tbl, err := ReadCSV(strings.NewReader(sampleCSV), ',')
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	return tbl
}

func TestReadCSV(t *testing.T) {
	tbl := sample(t)

	wantCols := []string{"hypothesis", "outcome", "model", "risk_ratio", "ci_lower", "ci_upper"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Errorf("Columns = %v, want %v", tbl.Columns, wantCols)
	}
	if tbl.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", tbl.Len())
	}
	if v := tbl.Rows[1]["risk_ratio"]; v != 1.67 {
		t.Errorf("risk_ratio = %#v, want 1.67", v)
	}
	if v := tbl.Rows[0]["outcome"]; v != "Hepatic" {
		t.Errorf("outcome = %#v, want Hepatic", v)
	}
	if v, ok := tbl.Rows[2]["risk_ratio"]; !ok || v != nil {
		t.Errorf("empty cell = %#v (present %v), want nil", v, ok)
	}
}

func TestReadCSVMissingMarkersAndShortRows(t *testing.T) {
	in := "a,b,c\nNA,None,1\n2\n\n"
	tbl, err := ReadCSV(strings.NewReader(in), ',')
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (blank lines skipped)", tbl.Len())
	}
	if tbl.Rows[0]["a"] != nil || tbl.Rows[0]["b"] != nil || tbl.Rows[0]["c"] != 1.0 {
		t.Errorf("row 0 = %v", tbl.Rows[0])
	}
	if tbl.Rows[1]["a"] != 2.0 || tbl.Rows[1]["c"] != nil {
		t.Errorf("short row = %v", tbl.Rows[1])
	}
}

func TestFromRecordsErrors(t *testing.T) {
	tests := []struct {
		name    string
		records [][]string
	}{
		{"empty", nil},
		{"blank header", [][]string{{"a", " "}}},
		{"duplicate header", [][]string{{"a", "b", "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromRecords(tt.records); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("FromRecords() code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestReadJSON(t *testing.T) {
	in := `[
		{"outcome": "Renal", "risk_ratio": 1.67, "ci_lower": "1.17", "meta": {"x": 1}},
		{"outcome": "Sepsis", "risk_ratio": null, "extra": true}
	]`
	tbl, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}

	wantCols := []string{"outcome", "risk_ratio", "ci_lower", "meta", "extra"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Errorf("Columns = %v, want %v", tbl.Columns, wantCols)
	}
	if tbl.Rows[0]["ci_lower"] != 1.17 {
		t.Errorf("numeric string = %#v, want 1.17", tbl.Rows[0]["ci_lower"])
	}
	if tbl.Rows[0]["meta"] != nil {
		t.Errorf("nested object = %#v, want nil", tbl.Rows[0]["meta"])
	}
	if tbl.Rows[1]["risk_ratio"] != nil || tbl.Rows[1]["extra"] != true {
		t.Errorf("row 1 = %v", tbl.Rows[1])
	}
}

func TestReadJSONErrors(t *testing.T) {
	for _, in := range []string{`[]`, `{"a": 1}`, `not json`} {
		if _, err := ReadJSON(strings.NewReader(in)); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ReadJSON(%q) code = %v", in, errors.GetCode(err))
		}
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	tbl := sample(t)

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, tbl); err != nil {
		t.Fatalf("WriteXLSX() error: %v", err)
	}

	got, err := ReadXLSX(bytes.NewReader(buf.Bytes()), "")
	if err != nil {
		t.Fatalf("ReadXLSX() error: %v", err)
	}
	if !reflect.DeepEqual(got.Columns, tbl.Columns) {
		t.Errorf("Columns = %v, want %v", got.Columns, tbl.Columns)
	}
	if got.Len() != tbl.Len() {
		t.Fatalf("Len() = %d, want %d", got.Len(), tbl.Len())
	}
	if got.Rows[1]["ci_upper"] != 2.36 {
		t.Errorf("ci_upper = %#v, want 2.36", got.Rows[1]["ci_upper"])
	}
	if got.Rows[2]["risk_ratio"] != nil {
		t.Errorf("missing cell = %#v, want nil", got.Rows[2]["risk_ratio"])
	}

	if _, err := ReadXLSX(bytes.NewReader(buf.Bytes()), "Nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing sheet code = %v", errors.GetCode(err))
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forest.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tbl.Len() != 4 {
		t.Errorf("Len() = %d, want 4", tbl.Len())
	}

	if _, err := Load(filepath.Join(dir, "missing.csv"), ""); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file code = %v", errors.GetCode(err))
	}

	bad := filepath.Join(dir, "forest.parquet")
	_ = os.WriteFile(bad, nil, 0o644)
	if _, err := Load(bad, ""); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown extension code = %v", errors.GetCode(err))
	}
}

func TestTableQueries(t *testing.T) {
	tbl := sample(t)

	if !tbl.Has("model") || tbl.Has("p_value") {
		t.Error("Has() mismatch")
	}
	if !tbl.IsNumeric("risk_ratio") || tbl.IsNumeric("outcome") {
		t.Error("IsNumeric() mismatch")
	}
	if got := tbl.Unique("outcome"); !reflect.DeepEqual(got, []any{"Hepatic", "Renal"}) {
		t.Errorf("Unique() = %v", got)
	}
	if got := tbl.Floats("risk_ratio"); len(got) != 3 {
		t.Errorf("Floats() = %v, want 3 values", got)
	}

	lo, hi, ok := tbl.Range("ci_lower")
	if !ok || lo != 0.67 || hi != 1.17 {
		t.Errorf("Range() = %v, %v, %v", lo, hi, ok)
	}
	if _, _, ok := tbl.Range("outcome"); ok {
		t.Error("Range() on a text column should report !ok")
	}

	alt := tbl.Where("hypothesis", "Alternative")
	if alt.Len() != 2 {
		t.Errorf("Where() len = %d, want 2", alt.Len())
	}
	if got := tbl.Where("risk_ratio", "1.10"); got.Len() != 1 {
		t.Errorf("numeric Where() len = %d, want 1", got.Len())
	}

	cp := tbl.Clone()
	cp.Rows[0]["text"] = "x"
	if _, ok := tbl.Rows[0]["text"]; ok {
		t.Error("Clone() shares rows with the original")
	}
}
