package table

import (
	"math"
	"reflect"
	"testing"

	"winsor/internal/bitmap"
)

func sample(t *testing.T) *Table {
	t.Helper()
	tbl := New()
	if err := tbl.AddNumeric("wage", []float64{10, 20, math.NaN(), 40}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.AddString("industry", []string{"Tech", "Tech", "Finance", "Finance"}); err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestAddAndLookup(t *testing.T) {
	tbl := sample(t)
	if tbl.NumRows() != 4 || tbl.NumCols() != 2 {
		t.Fatalf("shape = (%d,%d); want (4,2)", tbl.NumRows(), tbl.NumCols())
	}
	if !reflect.DeepEqual(tbl.Names(), []string{"wage", "industry"}) {
		t.Fatalf("Names = %v", tbl.Names())
	}
	if tbl.Column("missing") != nil {
		t.Fatal("Column(missing) should be nil")
	}
	c := tbl.Column("wage")
	if c == nil || c.Kind != Numeric || !IsMissing(c.Floats[2]) {
		t.Fatalf("wage column wrong: %+v", c)
	}
}

func TestAddErrors(t *testing.T) {
	tbl := sample(t)
	if err := tbl.AddNumeric("wage", []float64{1, 2, 3, 4}); err == nil {
		t.Fatal("duplicate column name must fail")
	}
	if err := tbl.AddNumeric("short", []float64{1, 2}); err == nil {
		t.Fatal("length mismatch must fail")
	}
	if err := tbl.AddString("", []string{"a", "b", "c", "d"}); err == nil {
		t.Fatal("empty column name must fail")
	}
}

func TestCloneIsDeep(t *testing.T) {
	tbl := sample(t)
	tbl.SetLabel("wage", "hourly wage")
	cl := tbl.Clone()

	cl.Column("wage").Floats[0] = 999
	cl.Column("industry").Strings[0] = "Other"
	cl.SetLabel("wage", "changed")

	if tbl.Column("wage").Floats[0] != 10 {
		t.Fatal("clone mutation leaked into source floats")
	}
	if tbl.Column("industry").Strings[0] != "Tech" {
		t.Fatal("clone mutation leaked into source strings")
	}
	if tbl.Label("wage") != "hourly wage" {
		t.Fatal("clone mutation leaked into source labels")
	}
}

func TestDrop(t *testing.T) {
	tbl := sample(t)
	mask := bitmap.New(tbl.NumRows())
	mask.Add(1)
	mask.Add(3)

	out := tbl.Drop(mask)
	if out.NumRows() != 2 {
		t.Fatalf("rows after drop = %d; want 2", out.NumRows())
	}
	wage := out.Column("wage").Floats
	if wage[0] != 10 || !IsMissing(wage[1]) {
		t.Fatalf("survivor order wrong: %v", wage)
	}
	ind := out.Column("industry").Strings
	if !reflect.DeepEqual(ind, []string{"Tech", "Finance"}) {
		t.Fatalf("survivor strings wrong: %v", ind)
	}
	// Source untouched.
	if tbl.NumRows() != 4 {
		t.Fatal("Drop mutated the source table")
	}
}

func TestRow(t *testing.T) {
	tbl := sample(t)
	row, err := tbl.Row(2, []string{"industry", "wage"})
	if err != nil {
		t.Fatal(err)
	}
	if row[0] != "Finance" {
		t.Fatalf("row[0] = %v", row[0])
	}
	if row[1] != nil {
		t.Fatalf("missing numeric cell should materialize as nil, got %v", row[1])
	}
	if _, err := tbl.Row(0, []string{"nope"}); err == nil {
		t.Fatal("unknown column must fail")
	}
}

func TestReplaceNumeric(t *testing.T) {
	tbl := sample(t)
	if err := tbl.ReplaceNumeric("industry", []float64{1, 2, 3, 4}); err == nil {
		t.Fatal("replacing a string column must fail")
	}
	if err := tbl.ReplaceNumeric("wage", []float64{1, 2}); err == nil {
		t.Fatal("length mismatch must fail")
	}
	if err := tbl.ReplaceNumeric("wage", []float64{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if tbl.Column("wage").Floats[3] != 4 {
		t.Fatal("replacement not visible")
	}
}

func TestCellString(t *testing.T) {
	tbl := sample(t)
	c := tbl.Column("wage")
	if got := c.CellString(0); got != "10" {
		t.Fatalf("CellString(0) = %q", got)
	}
	if got := c.CellString(2); got != "" {
		t.Fatalf("CellString(missing) = %q; want empty", got)
	}
}
