package sheet

import "testing"

func TestColumnIndex_ExactTrimmedMatch(t *testing.T) {
	t.Parallel()

	header := []string{"Name", " Call-status ", "Date", "Date 2"}
	if got := ColumnIndex(header, "Call-status"); got != 1 {
		t.Fatalf("trimmed header should match, got %d", got)
	}
	if got := ColumnIndex(header, "Date"); got != 2 {
		t.Fatalf("exact match only, got %d", got)
	}
	if got := ColumnIndex(header, "Dat"); got != -1 {
		t.Fatalf("partial name must not match, got %d", got)
	}
	if got := ColumnIndex(header, "Stakeholder"); got != -1 {
		t.Fatalf("missing column want -1, got %d", got)
	}
}

func TestPadRow(t *testing.T) {
	t.Parallel()

	got := PadRow([]string{" a ", "b"}, 4)
	if len(got) != 4 || got[0] != "a" || got[1] != "b" || got[2] != "" || got[3] != "" {
		t.Fatalf("pad got %v", got)
	}
	got = PadRow([]string{"a", "b", "c"}, 2)
	if len(got) != 2 || got[1] != "b" {
		t.Fatalf("truncate got %v", got)
	}
}

func TestMemory_BatchWriteExtendsGrid(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.Seed("S", [][]string{{"x"}})
	n, err := m.BatchWrite("S", []CellUpdate{{Row: 3, Col: 4, Value: "v"}})
	if err != nil || n != 1 {
		t.Fatalf("write n=%d err=%v", n, err)
	}
	if got := m.Cell("S", 3, 4); got != "v" {
		t.Fatalf("cell got %q", got)
	}
	if got := m.Cell("S", 1, 1); got != "x" {
		t.Fatalf("seeded cell got %q", got)
	}
}

func TestMemory_ReadColumnStopsAtLastNonEmpty(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.Seed("S", [][]string{{"a"}, {""}, {"c"}, {""}, {""}})
	col, err := m.ReadColumn("S", 1)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(col) != 3 || col[2] != "c" {
		t.Fatalf("column got %v", col)
	}
}
