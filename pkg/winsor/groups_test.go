package winsor

import (
	"reflect"
	"testing"

	"winsor/pkg/table"
)

func TestPartitionGlobal(t *testing.T) {
	tbl := table.New()
	if err := tbl.AddNumeric("x", []float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	groups := partition(tbl, nil)
	if len(groups) != 1 {
		t.Fatalf("groups = %d; want 1", len(groups))
	}
	if !reflect.DeepEqual(groups[0].rows, []int{0, 1, 2}) {
		t.Fatalf("rows = %v", groups[0].rows)
	}
	if groups[0].key != "(all)" {
		t.Fatalf("key = %q", groups[0].key)
	}
}

/*
TestPartitionComposite verifies grouping over two key columns (one string,
one numeric): groups come back in first-seen order, rows keep input order
inside each group, and a missing numeric key renders as an empty component.
*/
func TestPartitionComposite(t *testing.T) {
	tbl := table.New()
	if err := tbl.AddString("g", []string{"A", "B", "A", "B", "A"}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.AddNumeric("year", []float64{2020, 2020, 2021, 2020, 2020}); err != nil {
		t.Fatal(err)
	}
	groups := partition(tbl, []string{"g", "year"})

	wantKeys := []string{"A|2020", "B|2020", "A|2021"}
	wantRows := [][]int{{0, 4}, {1, 3}, {2}}
	if len(groups) != len(wantKeys) {
		t.Fatalf("groups = %d; want %d", len(groups), len(wantKeys))
	}
	for i, g := range groups {
		if g.key != wantKeys[i] {
			t.Errorf("group %d key = %q; want %q", i, g.key, wantKeys[i])
		}
		if !reflect.DeepEqual(g.rows, wantRows[i]) {
			t.Errorf("group %d rows = %v; want %v", i, g.rows, wantRows[i])
		}
	}
}

func TestPartitionMissingKeyCell(t *testing.T) {
	tbl := table.New()
	if err := tbl.AddNumeric("k", []float64{1, table.Missing(), 1, table.Missing()}); err != nil {
		t.Fatal(err)
	}
	groups := partition(tbl, []string{"k"})
	if len(groups) != 2 {
		t.Fatalf("groups = %d; want 2 (value and missing)", len(groups))
	}
	if !reflect.DeepEqual(groups[1].rows, []int{1, 3}) {
		t.Fatalf("missing-key rows = %v; want [1 3]", groups[1].rows)
	}
}
