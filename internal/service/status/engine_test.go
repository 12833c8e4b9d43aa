package status

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyprian/shopifyCRM/internal/model"
	"github.com/hyprian/shopifyCRM/internal/sheet"
)

func ordersSpec() model.SourceSpec {
	return model.SourceSpec{
		Name:         "orders",
		Sheet:        "Orders",
		HeaderRow:    2,
		DataStartRow: 3,
		Columns: model.ColumnNames{
			Status:      "Call-status",
			OrderName:   "Name",
			OrderStatus: "order status",
		},
	}
}

func seedOrders(rows ...[]string) *sheet.Memory {
	grid := sheet.NewMemory()
	all := [][]string{
		{"Orders 2025"},
		{"Name", "Call-status", "order status"},
	}
	all = append(all, rows...)
	grid.Seed("Orders", all)
	return grid
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master_report.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestEngine_MapsAndWritesStatuses(t *testing.T) {
	t.Parallel()

	grid := seedOrders(
		[]string{"#1001", "Confirmed", ""},
		[]string{"#1002", "Prepaid", ""},
		[]string{"#1003", "Confirmed", ""},
	)
	csvPath := writeCSV(t, "Order Name,Order Status\n"+
		"#1001,DELIVERED\n"+
		"#1002,RTO_INITIATED\n"+
		"#1003,SHIPPED\n")

	res, err := NewEngine(ordersSpec(), grid).Run(csvPath)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if res.Updated != 3 || res.CellsWritten != 3 {
		t.Fatalf("updated/cells want=3/3 got=%d/%d", res.Updated, res.CellsWritten)
	}
	if got := grid.Cell("Orders", 3, 3); got != "Delivered" {
		t.Fatalf("row 3 got=%q", got)
	}
	if got := grid.Cell("Orders", 4, 3); got != "RTO" {
		t.Fatalf("row 4 got=%q", got)
	}
	if got := grid.Cell("Orders", 5, 3); got != "In-transit" {
		t.Fatalf("row 5 got=%q", got)
	}
}

func TestEngine_OnlyTouchesConfirmedAndPrepaid(t *testing.T) {
	t.Parallel()

	grid := seedOrders(
		[]string{"#1001", "Fresh", ""},
		[]string{"#1002", "Follow up", ""},
		[]string{"#1003", "Confirmed", ""},
	)
	csvPath := writeCSV(t, "Order Name,Order Status\n"+
		"#1001,DELIVERED\n"+
		"#1002,DELIVERED\n"+
		"#1003,PACKED\n")

	res, err := NewEngine(ordersSpec(), grid).Run(csvPath)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if res.Eligible != 1 || res.Updated != 1 {
		t.Fatalf("eligible/updated want=1/1 got=%d/%d", res.Eligible, res.Updated)
	}
	if got := grid.Cell("Orders", 3, 3); got != "" {
		t.Fatalf("ineligible row should stay untouched, got=%q", got)
	}
	if got := grid.Cell("Orders", 5, 3); got != "Pending pick up" {
		t.Fatalf("row 5 got=%q", got)
	}
}

func TestEngine_SkipsAlreadyCurrent(t *testing.T) {
	t.Parallel()

	grid := seedOrders(
		[]string{"#1001", "Confirmed", "Delivered"},
	)
	csvPath := writeCSV(t, "Order Name,Order Status\n#1001,DELIVERED\n")

	res, err := NewEngine(ordersSpec(), grid).Run(csvPath)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.SkippedCurrent != 1 || res.Updated != 0 || res.CellsWritten != 0 {
		t.Fatalf("current/updated/cells want=1/0/0 got=%d/%d/%d",
			res.SkippedCurrent, res.Updated, res.CellsWritten)
	}
}

func TestEngine_FirstCSVMatchWins(t *testing.T) {
	t.Parallel()

	grid := seedOrders(
		[]string{"#1001", "Confirmed", ""},
	)
	csvPath := writeCSV(t, "Order Name,Order Status\n"+
		"#1001,SHIPPED\n"+
		"#1001,DELIVERED\n")

	_, err := NewEngine(ordersSpec(), grid).Run(csvPath)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := grid.Cell("Orders", 3, 3); got != "In-transit" {
		t.Fatalf("first csv record should win, got=%q", got)
	}
}

func TestEngine_UnmappedAndUnmatchedRows(t *testing.T) {
	t.Parallel()

	grid := seedOrders(
		[]string{"#1001", "Confirmed", ""},
		[]string{"", "Confirmed", ""},
	)
	// CANCELLED 不在映射里，#1001 因此没有可用的 CSV 状态
	csvPath := writeCSV(t, "Order Name,Order Status\n#1001,CANCELLED\n")

	res, err := NewEngine(ordersSpec(), grid).Run(csvPath)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.CSVRelevant != 0 {
		t.Fatalf("csv relevant want=0 got=%d", res.CSVRelevant)
	}
	if res.SkippedNoMatch != 1 || res.SkippedNoName != 1 || res.Updated != 0 {
		t.Fatalf("nomatch/noname/updated want=1/1/0 got=%d/%d/%d",
			res.SkippedNoMatch, res.SkippedNoName, res.Updated)
	}
}

func TestEngine_MissingColumnFails(t *testing.T) {
	t.Parallel()

	grid := sheet.NewMemory()
	grid.Seed("Orders", [][]string{
		{"Orders 2025"},
		{"Name", "Call-status"},
	})
	csvPath := writeCSV(t, "Order Name,Order Status\n")

	if _, err := NewEngine(ordersSpec(), grid).Run(csvPath); err == nil {
		t.Fatalf("missing order status column should fail")
	}
}

func TestEngine_MissingCSVFails(t *testing.T) {
	t.Parallel()

	grid := seedOrders([]string{"#1001", "Confirmed", ""})

	if _, err := NewEngine(ordersSpec(), grid).Run(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatalf("missing csv should fail")
	}
}
