package bitmap

import "testing"

func TestAddHas(t *testing.T) {
	b := New(200)
	for _, id := range []int{0, 1, 63, 64, 65, 127, 128, 199} {
		b.Add(id)
	}
	for _, id := range []int{0, 1, 63, 64, 65, 127, 128, 199} {
		if !b.Has(id) {
			t.Errorf("Has(%d) = false; want true", id)
		}
	}
	for _, id := range []int{2, 62, 66, 126, 198} {
		if b.Has(id) {
			t.Errorf("Has(%d) = true; want false", id)
		}
	}
}

func TestOutOfRange(t *testing.T) {
	b := New(10)
	b.Add(-1)
	b.Add(10)
	b.Add(1000)
	if b.Count() != 0 {
		t.Fatalf("Count = %d after out-of-range adds; want 0", b.Count())
	}
	if b.Has(-1) || b.Has(10) || b.Has(1000) {
		t.Fatal("Has reported true for out-of-range ids")
	}
}

func TestCount(t *testing.T) {
	b := New(130)
	if b.Count() != 0 {
		t.Fatalf("empty Count = %d; want 0", b.Count())
	}
	for i := 0; i < 130; i += 2 {
		b.Add(i)
	}
	if got := b.Count(); got != 65 {
		t.Fatalf("Count = %d; want 65", got)
	}
	// Adding the same bit twice must not double-count.
	b.Add(0)
	if got := b.Count(); got != 65 {
		t.Fatalf("Count after re-add = %d; want 65", got)
	}
}

func TestZeroCapacity(t *testing.T) {
	b := New(0)
	b.Add(0)
	if b.Has(0) || b.Count() != 0 || b.Len() != 0 {
		t.Fatal("zero-capacity bitmap must behave as an empty set")
	}
}
