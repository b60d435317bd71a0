package builtin

import (
	"testing"

	"winsor/pkg/table"
)

func TestNormalizeStrings(t *testing.T) {
	tbl := table.New()
	// "č" as combining sequence (c + caron) must compose to the single rune,
	// and the no-break space must trim away.
	if err := tbl.AddString("kraj", []string{"c\u030cesko", "\u00a0PHA "}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.AddNumeric("x", []float64{1, 2}); err != nil {
		t.Fatal(err)
	}

	out, err := (&Normalize{}).Apply(tbl)
	if err != nil {
		t.Fatal(err)
	}
	got := out.Column("kraj").Strings
	if got[0] != "\u010desko" {
		t.Errorf("NFC not applied: %q", got[0])
	}
	if got[1] != "PHA" {
		t.Errorf("spaces not cleaned: %q", got[1])
	}
	if tbl.Column("kraj").Strings[1] != "\u00a0PHA " {
		t.Error("input table was mutated")
	}
}

func TestNormalizeColumnSubset(t *testing.T) {
	tbl := table.New()
	if err := tbl.AddString("a", []string{" x "}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.AddString("b", []string{" y "}); err != nil {
		t.Fatal(err)
	}
	out, err := (&Normalize{Columns: []string{"a"}}).Apply(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if out.Column("a").Strings[0] != "x" || out.Column("b").Strings[0] != " y " {
		t.Fatalf("a = %q, b = %q", out.Column("a").Strings[0], out.Column("b").Strings[0])
	}
}
